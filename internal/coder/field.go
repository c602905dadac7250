package coder

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// MaxWidth is the widest unsigned field the codec packs.
	MaxWidth = 32

	AddressLength = common.AddressLength

	// MaxFlags is the number of independent bits a flags byte carries.
	MaxFlags = 8
)

// EncodeUint writes v as a fixed width unsigned big-endian field. Values that
// do not fit are rejected, never truncated.
func EncodeUint(v *uint256.Int, width int) ([]byte, error) {
	if width <= 0 || width > MaxWidth {
		return nil, fmt.Errorf("%w: unsupported width %d", ErrRange, width)
	}

	if v == nil {
		return nil, fmt.Errorf("%w: missing value", ErrRange)
	}

	if v.BitLen() > width*8 {
		return nil, fmt.Errorf("%w: %s does not fit in %d bytes", ErrRange, v.Dec(), width)
	}

	word := v.Bytes32()
	out := make([]byte, width)
	copy(out, word[MaxWidth-width:])

	return out, nil
}

func EncodeUint64(v uint64, width int) ([]byte, error) {
	return EncodeUint(uint256.NewInt(v), width)
}

// DecodeUint reads the first width bytes of b as an unsigned big-endian value.
func DecodeUint(b []byte, width int) (*uint256.Int, error) {
	if width <= 0 || width > MaxWidth {
		return nil, fmt.Errorf("%w: unsupported width %d", ErrRange, width)
	}

	if len(b) < width {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrLength, width, len(b))
	}

	return new(uint256.Int).SetBytes(b[:width]), nil
}

func DecodeUint64(b []byte, width int) (uint64, error) {
	if width > 8 {
		return 0, fmt.Errorf("%w: width %d overflows uint64", ErrRange, width)
	}

	v, err := DecodeUint(b, width)
	if err != nil {
		return 0, err
	}

	return v.Uint64(), nil
}

// ParseAddress accepts only the canonical hex form: a lowercase 0x prefix and
// 40 hex digits. Mixed case input must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	if len(s) != 2+2*AddressLength || !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: address %q", ErrFormat, s)
	}

	addr := common.HexToAddress(s)

	digits := s[2:]
	if digits != strings.ToLower(digits) && digits != strings.ToUpper(digits) && addr.Hex() != s {
		return common.Address{}, fmt.Errorf("%w: address %q has a bad checksum", ErrFormat, s)
	}

	return addr, nil
}

func EncodeAddress(s string) ([]byte, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return nil, err
	}

	return addr.Bytes(), nil
}

func DecodeAddress(b []byte) (common.Address, error) {
	if len(b) < AddressLength {
		return common.Address{}, fmt.Errorf("%w: need %d bytes, have %d", ErrLength, AddressLength, len(b))
	}

	return common.BytesToAddress(b[:AddressLength]), nil
}

// EncodeFlags packs bits into one byte, bits[i] at bit position i.
func EncodeFlags(bits ...bool) (byte, error) {
	if len(bits) > MaxFlags {
		return 0, fmt.Errorf("%w: %d flags do not fit in one byte", ErrRange, len(bits))
	}

	var out byte
	for i, bit := range bits {
		if bit {
			out |= 1 << i
		}
	}

	return out, nil
}

// DecodeFlags unpacks the low n bits of b. Any set bit at position n or above
// is not part of the protocol and is rejected.
func DecodeFlags(b byte, n int) ([]bool, error) {
	if n < 0 || n > MaxFlags {
		return nil, fmt.Errorf("%w: %d flags do not fit in one byte", ErrRange, n)
	}

	if n < MaxFlags && b>>n != 0 {
		return nil, fmt.Errorf("%w: flags byte 0x%02x sets undefined bits", ErrMalformedInstruction, b)
	}

	bits := make([]bool, n)
	for i := range bits {
		bits[i] = b&(1<<i) != 0
	}

	return bits, nil
}
