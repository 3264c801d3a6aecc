package text

import (
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistered(t *testing.T) {
	c := encoding.GetCodec(Name)
	require.NotNil(t, c)
	assert.Equal(t, Name, c.Name())
}

func TestMarshal(t *testing.T) {
	c := codec{}

	s := "hello"
	b := []byte("bytes")
	cases := []struct {
		in   any
		want string
	}{
		{"hello", "hello"},
		{&s, "hello"},
		{b, "bytes"},
		{&b, "bytes"},
		{1500 * time.Millisecond, "1.5s"},
	}
	for _, tc := range cases {
		out, err := c.Marshal(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(out))
	}

	_, err := c.Marshal(42)
	assert.Error(t, err)
}

func TestUnmarshal(t *testing.T) {
	c := codec{}

	var s string
	require.NoError(t, c.Unmarshal([]byte("hello"), &s))
	assert.Equal(t, "hello", s)

	var b []byte
	require.NoError(t, c.Unmarshal([]byte("bytes"), &b))
	assert.Equal(t, []byte("bytes"), b)

	var n int
	assert.Error(t, c.Unmarshal([]byte("1"), &n))
}
