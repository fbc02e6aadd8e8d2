package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffset(t *testing.T) {
	o := NoOffset[int64]()
	assert.Equal(t, false, o.IsSet())
	assert.Equal(t, int64(0), o.Value())
	assert.Equal(t, "<none>", o.String())

	o = NewOffset(int64(20))
	v, ok := o.Get()
	assert.Equal(t, true, ok)
	assert.Equal(t, int64(20), v)
	assert.Equal(t, "20", o.String())
}

func TestOffsetZeroValueIsSentinel(t *testing.T) {
	var o Offset[string]
	assert.Equal(t, NoOffset[string](), o)

	// an explicit zero is still an offset
	assert.Equal(t, true, NewOffset("").IsSet())
}

func TestCompare(t *testing.T) {
	none := NoOffset[int]()
	assert.Equal(t, 0, Compare(none, none))
	assert.Equal(t, -1, Compare(none, NewOffset(0)))
	assert.Equal(t, 1, Compare(NewOffset(0), none))
	assert.Equal(t, -1, Compare(NewOffset(5), NewOffset(10)))
	assert.Equal(t, 0, Compare(NewOffset(10), NewOffset(10)))
	assert.Equal(t, 1, Compare(NewOffset("b"), NewOffset("a")))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "started", Started.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "unknown", Status(9).String())
}
