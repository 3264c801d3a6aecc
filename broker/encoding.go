package broker

import (
	"encoding/json"
	"errors"

	"github.com/go-kratos/kratos/v2/encoding"
	_ "github.com/go-kratos/kratos/v2/encoding/json"
	_ "github.com/go-kratos/kratos/v2/encoding/proto"

	_ "github.com/tx7do/kratos-transport-aws/codec/text"
)

// DefaultCodecName is the kratos codec used when none is configured.
const DefaultCodecName = "json"

// Marshal encodes a message into bytes using the provided codec.
// Raw bytes and json.RawMessage pass through untouched.
func Marshal(codec encoding.Codec, msg any) ([]byte, error) {
	if msg == nil {
		return nil, errors.New("message is nil")
	}

	switch t := msg.(type) {
	case []byte:
		return t, nil
	case json.RawMessage:
		return t, nil
	}

	if codec == nil {
		codec = encoding.GetCodec(DefaultCodecName)
	}
	return codec.Marshal(msg)
}
