package coder

import (
	"encoding/binary"
	"fmt"
)

const (
	PairWidth = 2

	// CurveWidth is the curve component width of the bare identifier form.
	// Instruction layouts may allot a wider curve component.
	CurveWidth = 2

	PoolIdWidth = PairWidth + CurveWidth
)

// EncodePoolId packs the bare 4-byte identifier: pair ‖ curve.
func EncodePoolId(pair, curve uint16) []byte {
	out := make([]byte, PoolIdWidth)
	binary.BigEndian.PutUint16(out, pair)
	binary.BigEndian.PutUint16(out[PairWidth:], curve)

	return out
}

func DecodePoolId(b []byte) (pair, curve uint16, err error) {
	if len(b) < PoolIdWidth {
		return 0, 0, fmt.Errorf("%w: pool id needs %d bytes, have %d", ErrLength, PoolIdWidth, len(b))
	}

	return binary.BigEndian.Uint16(b), binary.BigEndian.Uint16(b[PairWidth:]), nil
}

// PoolIdValue is the integer value of the bare identifier bytes.
func PoolIdValue(pair, curve uint16) uint32 {
	return uint32(pair)<<(CurveWidth*8) | uint32(curve)
}

// PackPoolId packs pair ‖ curve with a curve component of curveWidth bytes.
func PackPoolId(pair uint16, curve uint64, curveWidth int) ([]byte, error) {
	if curveWidth <= 0 || curveWidth > 6 {
		return nil, fmt.Errorf("%w: unsupported curve width %d", ErrRange, curveWidth)
	}

	c, err := EncodeUint64(curve, curveWidth)
	if err != nil {
		return nil, fmt.Errorf("curve index: %w", err)
	}

	out := make([]byte, PairWidth, PairWidth+curveWidth)
	binary.BigEndian.PutUint16(out, pair)

	return append(out, c...), nil
}

func UnpackPoolId(b []byte, curveWidth int) (pair uint16, curve uint64, err error) {
	if curveWidth <= 0 || curveWidth > 6 {
		return 0, 0, fmt.Errorf("%w: unsupported curve width %d", ErrRange, curveWidth)
	}

	if len(b) < PairWidth+curveWidth {
		return 0, 0, fmt.Errorf("%w: pool id needs %d bytes, have %d", ErrLength, PairWidth+curveWidth, len(b))
	}

	curve, err = DecodeUint64(b[PairWidth:], curveWidth)
	if err != nil {
		return 0, 0, err
	}

	return binary.BigEndian.Uint16(b), curve, nil
}
