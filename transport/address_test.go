package transport

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustAddressKeepsExplicitHost(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	port, ok := ExtractPort(lis)
	require.True(t, ok)

	addr, err := AdjustAddress("127.0.0.1:0", lis)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:"+strconv.Itoa(port), addr)
}

func TestAdjustAddressWithoutListener(t *testing.T) {
	addr, err := AdjustAddress("10.1.2.3:8080", nil)
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3:8080", addr)

	_, err = AdjustAddress("not-an-address", nil)
	assert.Error(t, err)
}

func TestIsValidIP(t *testing.T) {
	assert.True(t, IsValidIP("10.0.0.1"))
	assert.False(t, IsValidIP("127.0.0.1"))
	assert.False(t, IsValidIP("0.0.0.0"))
	assert.False(t, IsValidIP("garbage"))
}

func TestNewRegistryEndpoint(t *testing.T) {
	u := NewRegistryEndpoint("sqs", "10.0.0.1:9000")
	assert.Equal(t, "sqs://10.0.0.1:9000", u.String())
}
