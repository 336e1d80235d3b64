package types

import (
	"fmt"
	"net/netip"
)

// AddressKey 地址键
//
// 网络地址的定长二进制编码：IPv4 为 4 字节，IPv6 为 16 字节。
// IPv4 映射的 IPv6 地址（::ffff:a.b.c.d）会先还原为 IPv4，
// 保证同一地址的不同文本写法落在同一个键上。
type AddressKey string

// KeyFromAddr 从 netip.Addr 构造地址键
func KeyFromAddr(addr netip.Addr) (AddressKey, error) {
	if !addr.IsValid() {
		return "", ErrInvalidAddress
	}
	addr = addr.Unmap().WithZone("")
	if addr.Is4() {
		b := addr.As4()
		return AddressKey(b[:]), nil
	}
	b := addr.As16()
	return AddressKey(b[:]), nil
}

// ParseAddressKey 从文本地址构造地址键
//
// 同时接受 "ip" 与 "ip:port" 形式，端口被忽略。
func ParseAddressKey(s string) (AddressKey, error) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return KeyFromAddr(ap.Addr())
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return KeyFromAddr(addr)
}

// MustAddressKey 解析失败时 panic，仅用于测试与常量
func MustAddressKey(s string) AddressKey {
	k, err := ParseAddressKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Addr 还原为 netip.Addr
func (k AddressKey) Addr() (netip.Addr, error) {
	switch len(k) {
	case 4:
		var b [4]byte
		copy(b[:], k)
		return netip.AddrFrom4(b), nil
	case 16:
		var b [16]byte
		copy(b[:], k)
		return netip.AddrFrom16(b), nil
	default:
		return netip.Addr{}, ErrInvalidAddressKey
	}
}

// String 返回文本地址
func (k AddressKey) String() string {
	addr, err := k.Addr()
	if err != nil {
		return fmt.Sprintf("AddressKey(%x)", string(k))
	}
	return addr.String()
}
