package instructions

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	bin "github.com/gagliardetto/binary"
	"github.com/holiman/uint256"
	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
)

// Instruction is one operation of the closed instruction set. Each kind has
// a fixed layout; see LayoutOf.
type Instruction interface {
	OpCode() OpCode
	MarshalWithEncoder(encoder *bin.Encoder) error
	UnmarshalWithDecoder(decoder *bin.Decoder) error

	// references lists the entity kinds this instruction reads through a
	// recent reference, in operand order.
	references() []EntityKind
	// creates is the entity kind the instruction produces, or EntityNone.
	creates() []EntityKind
}

// Direction of a swap.
type Direction uint8

const (
	AssetToQuote Direction = 0
	QuoteToAsset Direction = 1
)

func (d Direction) String() string {
	if d == QuoteToAsset {
		return "quoteToAsset"
	}
	return "assetToQuote"
}

type CreatePair struct {
	Asset common.Address
	Quote common.Address
}

func NewCreatePair(asset, quote common.Address) *CreatePair {
	return &CreatePair{Asset: asset, Quote: quote}
}

func (ix *CreatePair) OpCode() OpCode { return OpCreatePair }

func (ix *CreatePair) MarshalWithEncoder(encoder *bin.Encoder) error {
	w := newFieldWriter(encoder, OpCreatePair)
	w.Address(ix.Asset)
	w.Address(ix.Quote)
	return w.Close()
}

func (ix *CreatePair) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	r := newFieldReader(decoder, OpCreatePair)
	ix.Asset = r.Address()
	ix.Quote = r.Address()
	return r.Close()
}

func (ix *CreatePair) references() []EntityKind { return nil }

func (ix *CreatePair) creates() []EntityKind { return []EntityKind{EntityPair} }

// CreateCurve carries narrow fields: strike fits 3 bytes, sigma 4, maturity
// and fee 2 each.
type CreateCurve struct {
	Strike   uint32
	Sigma    uint32
	Maturity uint16
	Fee      uint16
}

func NewCreateCurve(strike, sigma uint32, maturity, fee uint16) *CreateCurve {
	return &CreateCurve{Strike: strike, Sigma: sigma, Maturity: maturity, Fee: fee}
}

func (ix *CreateCurve) OpCode() OpCode { return OpCreateCurve }

func (ix *CreateCurve) MarshalWithEncoder(encoder *bin.Encoder) error {
	w := newFieldWriter(encoder, OpCreateCurve)
	w.Uint(uint64(ix.Strike))
	w.Uint(uint64(ix.Sigma))
	w.Uint(uint64(ix.Maturity))
	w.Uint(uint64(ix.Fee))
	return w.Close()
}

func (ix *CreateCurve) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	r := newFieldReader(decoder, OpCreateCurve)
	ix.Strike = uint32(r.Uint())
	ix.Sigma = uint32(r.Uint())
	ix.Maturity = uint16(r.Uint())
	ix.Fee = uint16(r.Uint())
	return r.Close()
}

func (ix *CreateCurve) references() []EntityKind { return nil }

func (ix *CreateCurve) creates() []EntityKind { return []EntityKind{EntityCurve} }

type CreatePool struct {
	Pair             PairRef
	Curve            CurveRef
	BasePerLiquidity uint256.Int
	DeltaLiquidity   uint256.Int
}

func NewCreatePool(pair PairRef, curve CurveRef, basePerLiquidity, deltaLiquidity *uint256.Int) *CreatePool {
	ix := &CreatePool{Pair: pair, Curve: curve}
	setAmount(&ix.BasePerLiquidity, basePerLiquidity)
	setAmount(&ix.DeltaLiquidity, deltaLiquidity)
	return ix
}

func (ix *CreatePool) OpCode() OpCode { return OpCreatePool }

func (ix *CreatePool) MarshalWithEncoder(encoder *bin.Encoder) error {
	w := newFieldWriter(encoder, OpCreatePool)
	w.Pair(ix.Pair)
	w.Curve(ix.Curve)
	w.Amount(&ix.BasePerLiquidity)
	w.Amount(&ix.DeltaLiquidity)
	return w.Close()
}

func (ix *CreatePool) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	r := newFieldReader(decoder, OpCreatePool)
	ix.Pair = r.Pair()
	ix.Curve = r.Curve()
	r.Amount(&ix.BasePerLiquidity)
	r.Amount(&ix.DeltaLiquidity)
	return r.Close()
}

func (ix *CreatePool) references() (kinds []EntityKind) {
	if ix.Pair.IsRecent() {
		kinds = append(kinds, EntityPair)
	}
	if ix.Curve.IsRecent() {
		kinds = append(kinds, EntityCurve)
	}
	return kinds
}

func (ix *CreatePool) creates() []EntityKind { return []EntityKind{EntityPool} }

// CreateControlledPool creates a pool whose curve parameters travel inline,
// governed by Controller.
type CreateControlledPool struct {
	Pair        PairRef
	Controller  common.Address
	PriorityFee uint16
	Fee         uint16
	Volatility  uint16
	Duration    uint16
	JIT         uint8
	MaxTick     uint32
	Price       uint256.Int
}

func (ix *CreateControlledPool) OpCode() OpCode { return OpCreateControlledPool }

func (ix *CreateControlledPool) MarshalWithEncoder(encoder *bin.Encoder) error {
	w := newFieldWriter(encoder, OpCreateControlledPool)
	w.Pair(ix.Pair)
	w.Address(ix.Controller)
	w.Uint(uint64(ix.PriorityFee))
	w.Uint(uint64(ix.Fee))
	w.Uint(uint64(ix.Volatility))
	w.Uint(uint64(ix.Duration))
	w.Uint(uint64(ix.JIT))
	w.Uint(uint64(ix.MaxTick))
	w.Amount(&ix.Price)
	return w.Close()
}

func (ix *CreateControlledPool) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	r := newFieldReader(decoder, OpCreateControlledPool)
	ix.Pair = r.Pair()
	ix.Controller = r.Address()
	ix.PriorityFee = uint16(r.Uint())
	ix.Fee = uint16(r.Uint())
	ix.Volatility = uint16(r.Uint())
	ix.Duration = uint16(r.Uint())
	ix.JIT = uint8(r.Uint())
	ix.MaxTick = uint32(r.Uint())
	r.Amount(&ix.Price)
	return r.Close()
}

func (ix *CreateControlledPool) references() []EntityKind {
	if ix.Pair.IsRecent() {
		return []EntityKind{EntityPair}
	}
	return nil
}

// The inline curve gets its own index, so a controlled pool creates a curve
// as well as a pool.
func (ix *CreateControlledPool) creates() []EntityKind {
	return []EntityKind{EntityCurve, EntityPool}
}

type AddLiquidity struct {
	UseMax     bool
	Pool       PoolRef
	DeltaBase  uint256.Int
	DeltaQuote uint256.Int
}

func NewAddLiquidity(useMax bool, pool PoolRef, deltaBase, deltaQuote *uint256.Int) *AddLiquidity {
	ix := &AddLiquidity{UseMax: useMax, Pool: pool}
	setAmount(&ix.DeltaBase, deltaBase)
	setAmount(&ix.DeltaQuote, deltaQuote)
	return ix
}

func (ix *AddLiquidity) OpCode() OpCode { return OpAddLiquidity }

func (ix *AddLiquidity) MarshalWithEncoder(encoder *bin.Encoder) error {
	w := newFieldWriter(encoder, OpAddLiquidity)
	w.Flags(ix.UseMax)
	w.Pool(ix.Pool)
	w.Amount(&ix.DeltaBase)
	w.Amount(&ix.DeltaQuote)
	return w.Close()
}

func (ix *AddLiquidity) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	r := newFieldReader(decoder, OpAddLiquidity)
	ix.UseMax = r.Flags()[0]
	ix.Pool = r.Pool()
	r.Amount(&ix.DeltaBase)
	r.Amount(&ix.DeltaQuote)
	return r.Close()
}

func (ix *AddLiquidity) references() []EntityKind { return poolReferences(ix.Pool) }

func (ix *AddLiquidity) creates() []EntityKind { return nil }

type RemoveLiquidity struct {
	UseMax         bool
	Pool           PoolRef
	DeltaLiquidity uint256.Int
}

func NewRemoveLiquidity(useMax bool, pool PoolRef, deltaLiquidity *uint256.Int) *RemoveLiquidity {
	ix := &RemoveLiquidity{UseMax: useMax, Pool: pool}
	setAmount(&ix.DeltaLiquidity, deltaLiquidity)
	return ix
}

func (ix *RemoveLiquidity) OpCode() OpCode { return OpRemoveLiquidity }

func (ix *RemoveLiquidity) MarshalWithEncoder(encoder *bin.Encoder) error {
	w := newFieldWriter(encoder, OpRemoveLiquidity)
	w.Flags(ix.UseMax)
	w.Pool(ix.Pool)
	w.Amount(&ix.DeltaLiquidity)
	return w.Close()
}

func (ix *RemoveLiquidity) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	r := newFieldReader(decoder, OpRemoveLiquidity)
	ix.UseMax = r.Flags()[0]
	ix.Pool = r.Pool()
	r.Amount(&ix.DeltaLiquidity)
	return r.Close()
}

func (ix *RemoveLiquidity) references() []EntityKind { return poolReferences(ix.Pool) }

func (ix *RemoveLiquidity) creates() []EntityKind { return nil }

type SwapExactTokens struct {
	UseMax     bool
	Pool       PoolRef
	DeltaIn    uint256.Int
	LimitPrice uint256.Int
	Direction  Direction
}

func NewSwapExactTokens(useMax bool, pool PoolRef, deltaIn, limitPrice *uint256.Int, direction Direction) *SwapExactTokens {
	ix := &SwapExactTokens{UseMax: useMax, Pool: pool, Direction: direction}
	setAmount(&ix.DeltaIn, deltaIn)
	setAmount(&ix.LimitPrice, limitPrice)
	return ix
}

func (ix *SwapExactTokens) OpCode() OpCode { return OpSwapExactTokens }

func (ix *SwapExactTokens) MarshalWithEncoder(encoder *bin.Encoder) error {
	w := newFieldWriter(encoder, OpSwapExactTokens)
	if ix.Direction > QuoteToAsset {
		w.err = fmt.Errorf("%w: %s direction %d", coder.ErrRange, OpSwapExactTokens, ix.Direction)
	}
	w.Flags(ix.UseMax, ix.Direction == QuoteToAsset)
	w.Pool(ix.Pool)
	w.Amount(&ix.DeltaIn)
	w.Amount(&ix.LimitPrice)
	return w.Close()
}

func (ix *SwapExactTokens) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	r := newFieldReader(decoder, OpSwapExactTokens)
	flags := r.Flags()
	ix.UseMax = flags[0]
	ix.Direction = AssetToQuote
	if flags[1] {
		ix.Direction = QuoteToAsset
	}
	ix.Pool = r.Pool()
	r.Amount(&ix.DeltaIn)
	r.Amount(&ix.LimitPrice)
	return r.Close()
}

func (ix *SwapExactTokens) references() []EntityKind { return poolReferences(ix.Pool) }

func (ix *SwapExactTokens) creates() []EntityKind { return nil }

func poolReferences(r PoolRef) []EntityKind {
	if r.IsRecent() {
		return []EntityKind{EntityPool}
	}
	return nil
}

// newInstruction returns an empty instruction for op, or nil when op has no
// fixed layout.
func newInstruction(op OpCode) Instruction {
	switch op {
	case OpCreatePair:
		return new(CreatePair)
	case OpCreateCurve:
		return new(CreateCurve)
	case OpCreatePool:
		return new(CreatePool)
	case OpCreateControlledPool:
		return new(CreateControlledPool)
	case OpAddLiquidity:
		return new(AddLiquidity)
	case OpRemoveLiquidity:
		return new(RemoveLiquidity)
	case OpSwapExactTokens:
		return new(SwapExactTokens)
	default:
		return nil
	}
}

// setAmount copies src into dst, treating nil as zero.
func setAmount(dst, src *uint256.Int) {
	if src == nil {
		dst.Clear()
		return
	}
	dst.Set(src)
}
