package codec

import (
	"fmt"

	"github.com/linkedin/goavro/v2"
)

type avroCodec[T any] struct {
	c *goavro.Codec
}

// Avro stores T as binary avro of schema. T travels through the avro textual
// form, so T must marshal to json the way the schema expects, e,g. a struct
// whose json field names match the record fields.
func Avro[T any](schema string) (Codec[T], error) {
	c, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, err
	}

	return &avroCodec[T]{c: c}, nil
}

func (a *avroCodec[T]) Encode(v T) ([]byte, error) {
	textual, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	native, _, err := a.c.NativeFromTextual(textual)
	if err != nil {
		return nil, err
	}

	return a.c.BinaryFromNative(nil, native)
}

func (a *avroCodec[T]) Decode(b []byte) (v T, err error) {
	native, _, err := a.c.NativeFromBinary(b)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrDecode, err)
		return
	}

	textual, err := a.c.TextualFromNative(nil, native)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrDecode, err)
		return
	}

	if err = json.Unmarshal(textual, &v); err != nil {
		err = fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return
}
