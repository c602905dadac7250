package instructions

import (
	"fmt"
	"strconv"

	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
)

// EntityKind names what a creation instruction produces and what a recent
// reference points back to.
type EntityKind uint8

const (
	EntityNone EntityKind = iota
	EntityPair
	EntityCurve
	EntityPool
)

func (k EntityKind) String() string {
	switch k {
	case EntityPair:
		return "pair"
	case EntityCurve:
		return "curve"
	case EntityPool:
		return "pool"
	default:
		return "none"
	}
}

const recentName = "recent"

// PairRef is either a literal pair index or the pair most recently created
// within the same batch. Index zero is the wire sentinel for the latter and
// is never a literal.
type PairRef struct {
	index  uint16
	recent bool
}

func Pair(index uint16) PairRef { return PairRef{index: index} }

func RecentPair() PairRef { return PairRef{recent: true} }

func (r PairRef) IsRecent() bool { return r.recent }

func (r PairRef) Index() uint16 { return r.index }

func (r PairRef) String() string {
	if r.recent {
		return recentName
	}
	return strconv.FormatUint(uint64(r.index), 10)
}

type CurveRef struct {
	index  uint32
	recent bool
}

func Curve(index uint32) CurveRef { return CurveRef{index: index} }

func RecentCurve() CurveRef { return CurveRef{recent: true} }

func (r CurveRef) IsRecent() bool { return r.recent }

func (r CurveRef) Index() uint32 { return r.index }

func (r CurveRef) String() string {
	if r.recent {
		return recentName
	}
	return strconv.FormatUint(uint64(r.index), 10)
}

// PoolId is the instruction-embedded composite identifier.
type PoolId struct {
	Pair  uint16
	Curve uint32
}

// PoolIdFromUint64 splits a 48-bit pool id value into its components.
func PoolIdFromUint64(v uint64) (PoolId, error) {
	if v>>(poolIdWidth*8) != 0 {
		return PoolId{}, fmt.Errorf("%w: pool id %d exceeds %d bytes", coder.ErrRange, v, poolIdWidth)
	}
	return PoolId{Pair: uint16(v >> (curveWidth * 8)), Curve: uint32(v)}, nil
}

func (p PoolId) Uint64() uint64 {
	return uint64(p.Pair)<<(curveWidth*8) | uint64(p.Curve)
}

func (p PoolId) IsZero() bool { return p.Pair == 0 && p.Curve == 0 }

func (p PoolId) String() string { return strconv.FormatUint(p.Uint64(), 10) }

type PoolRef struct {
	id     PoolId
	recent bool
}

func Pool(id PoolId) PoolRef { return PoolRef{id: id} }

func RecentPool() PoolRef { return PoolRef{recent: true} }

func (r PoolRef) IsRecent() bool { return r.recent }

func (r PoolRef) Id() PoolId { return r.id }

func (r PoolRef) String() string {
	if r.recent {
		return recentName
	}
	return r.id.String()
}
