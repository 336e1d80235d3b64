package types

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAddressKey_Width 键长度：v4 4 字节，v6 16 字节
func TestAddressKey_Width(t *testing.T) {
	k4, err := ParseAddressKey("10.1.2.3")
	require.NoError(t, err)
	assert.Len(t, string(k4), 4)
	assert.Equal(t, AddressKey([]byte{10, 1, 2, 3}), k4)

	k6, err := ParseAddressKey("2001:db8::1")
	require.NoError(t, err)
	assert.Len(t, string(k6), 16)
}

// TestAddressKey_Normalization 不同写法的同一地址落在同一个键
func TestAddressKey_Normalization(t *testing.T) {
	base := MustAddressKey("10.1.2.3")

	for _, s := range []string{"10.1.2.3:8080", "::ffff:10.1.2.3", "[::ffff:10.1.2.3]:80"} {
		k, err := ParseAddressKey(s)
		require.NoError(t, err, s)
		assert.Equal(t, base, k, s)
	}

	assert.Equal(t, MustAddressKey("2001:db8::1"), MustAddressKey("2001:0db8:0000::0001"))
}

// TestAddressKey_RoundTrip 键还原为地址
func TestAddressKey_RoundTrip(t *testing.T) {
	for _, s := range []string{"192.168.0.1", "fe80::1"} {
		k := MustAddressKey(s)
		addr, err := k.Addr()
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddr(s), addr)
		assert.Equal(t, s, k.String())
	}

	_, err := AddressKey("abc").Addr()
	assert.ErrorIs(t, err, ErrInvalidAddressKey)
}

// TestAddressKey_Invalid 非法输入
func TestAddressKey_Invalid(t *testing.T) {
	_, err := ParseAddressKey("not-an-ip")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = KeyFromAddr(netip.Addr{})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
