package text

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/encoding"
)

// Name is the name registered for the text codec.
const Name = "text"

func init() {
	encoding.RegisterCodec(codec{})
}

// codec passes strings and bytes through unquoted, so a plain-text payload
// reaches subscribers exactly as published.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case *string:
		return []byte(*t), nil
	case []byte:
		return t, nil
	case *[]byte:
		return *t, nil
	case fmt.Stringer:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("text codec cannot marshal %T", v)
	}
}

func (codec) Unmarshal(data []byte, v any) error {
	switch t := v.(type) {
	case *string:
		*t = string(data)
	case *[]byte:
		*t = append((*t)[:0], data...)
	default:
		return fmt.Errorf("text codec cannot unmarshal into %T", v)
	}
	return nil
}

func (codec) Name() string {
	return Name
}
