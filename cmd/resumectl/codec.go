package main

import (
	"fmt"
	"strconv"

	"github.com/kgibm/resume/pkg/checkpoint/codec"
)

// int64Text shows binary int64 offsets as decimal text.
type int64Text struct{}

func (int64Text) Encode(v string) ([]byte, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return codec.Int64().Encode(n)
}

func (int64Text) Decode(b []byte) (string, error) {
	n, err := codec.Int64().Decode(b)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func valueCodec(name string) (codec.Codec[string], error) {
	switch name {
	case "", "string", "json":
		return codec.String(), nil
	case "int64":
		return int64Text{}, nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}
