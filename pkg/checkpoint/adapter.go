package checkpoint

// Adapter applies recovered offsets to the underlying resources, e,g. a file
// reader skips to the recovered position. What applying means is up to the
// component, the strategy only calls Resume.
type Adapter interface {
	Resume() error
}

// AdapterFunc adapts a plain function to Adapter.
type AdapterFunc func() error

func (f AdapterFunc) Resume() error {
	return f()
}

type resumableAdapter[K comparable, T any] struct {
	lookup     Lookup[K, T]
	resumables []Resumable[K, T]
}

// NewResumableAdapter creates an Adapter that moves every resumable to the
// offset recovered for its key. Resumables without a recovered offset are
// left untouched.
func NewResumableAdapter[K comparable, T any](lookup Lookup[K, T], resumables ...Resumable[K, T]) Adapter {
	return &resumableAdapter[K, T]{lookup: lookup, resumables: resumables}
}

func (a *resumableAdapter[K, T]) Resume() error {
	for _, r := range a.resumables {
		if v, present := a.lookup.Get(r.Addressable()); present {
			r.UpdateLastOffset(v)
		}
	}

	return nil
}
