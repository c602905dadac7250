package instructions

import "github.com/iqbalbaharum/hyper-sdk/internal/coder"

type FieldKind uint8

const (
	FieldUint FieldKind = iota + 1
	FieldAddress
	FieldFlags
	FieldPairId
	FieldCurveId
	FieldPoolId
)

func (k FieldKind) String() string {
	switch k {
	case FieldUint:
		return "uint"
	case FieldAddress:
		return "address"
	case FieldFlags:
		return "flags"
	case FieldPairId:
		return "pairId"
	case FieldCurveId:
		return "curveId"
	case FieldPoolId:
		return "poolId"
	default:
		return "invalid"
	}
}

// Field describes one operand in an instruction layout. Bits is the number of
// defined flags for FieldFlags operands.
type Field struct {
	Name  string
	Width int
	Kind  FieldKind
	Bits  int
}

// Layout is the fixed wire form of one opcode: the opcode byte followed by
// Fields in order.
type Layout struct {
	OpCode OpCode
	Fields []Field
}

// Size is the total encoded length, opcode byte included.
func (l Layout) Size() int {
	size := 1
	for _, f := range l.Fields {
		size += f.Width
	}
	return size
}

// Offset returns the byte offset of the named operand from the start of the
// instruction.
func (l Layout) Offset(name string) (int, bool) {
	offset := 1
	for _, f := range l.Fields {
		if f.Name == name {
			return offset, true
		}
		offset += f.Width
	}
	return 0, false
}

const (
	amountWidth = 16

	// poolIdWidth is the instruction-embedded pool id: pair 2 ‖ curve 4.
	poolIdWidth = coder.PairWidth + 4
	curveWidth  = 4
)

var layouts = map[OpCode]Layout{
	OpCreatePair: {OpCreatePair, []Field{
		{Name: "asset", Width: coder.AddressLength, Kind: FieldAddress},
		{Name: "quote", Width: coder.AddressLength, Kind: FieldAddress},
	}},
	OpCreateCurve: {OpCreateCurve, []Field{
		{Name: "strike", Width: 3, Kind: FieldUint},
		{Name: "sigma", Width: 4, Kind: FieldUint},
		{Name: "maturity", Width: 2, Kind: FieldUint},
		{Name: "fee", Width: 2, Kind: FieldUint},
	}},
	OpCreatePool: {OpCreatePool, []Field{
		{Name: "pairId", Width: coder.PairWidth, Kind: FieldPairId},
		{Name: "curveId", Width: curveWidth, Kind: FieldCurveId},
		{Name: "basePerLiquidity", Width: amountWidth, Kind: FieldUint},
		{Name: "deltaLiquidity", Width: amountWidth, Kind: FieldUint},
	}},
	OpCreateControlledPool: {OpCreateControlledPool, []Field{
		{Name: "pairId", Width: coder.PairWidth, Kind: FieldPairId},
		{Name: "controller", Width: coder.AddressLength, Kind: FieldAddress},
		{Name: "priorityFee", Width: 2, Kind: FieldUint},
		{Name: "fee", Width: 2, Kind: FieldUint},
		{Name: "volatility", Width: 2, Kind: FieldUint},
		{Name: "duration", Width: 2, Kind: FieldUint},
		{Name: "jit", Width: 1, Kind: FieldUint},
		{Name: "maxTick", Width: 3, Kind: FieldUint},
		{Name: "price", Width: amountWidth, Kind: FieldUint},
	}},
	OpAddLiquidity: {OpAddLiquidity, []Field{
		{Name: "flags", Width: 1, Kind: FieldFlags, Bits: 1},
		{Name: "poolId", Width: poolIdWidth, Kind: FieldPoolId},
		{Name: "deltaBase", Width: amountWidth, Kind: FieldUint},
		{Name: "deltaQuote", Width: amountWidth, Kind: FieldUint},
	}},
	OpRemoveLiquidity: {OpRemoveLiquidity, []Field{
		{Name: "flags", Width: 1, Kind: FieldFlags, Bits: 1},
		{Name: "poolId", Width: poolIdWidth, Kind: FieldPoolId},
		{Name: "deltaLiquidity", Width: amountWidth, Kind: FieldUint},
	}},
	OpSwapExactTokens: {OpSwapExactTokens, []Field{
		{Name: "flags", Width: 1, Kind: FieldFlags, Bits: 2},
		{Name: "poolId", Width: poolIdWidth, Kind: FieldPoolId},
		{Name: "deltaIn", Width: amountWidth, Kind: FieldUint},
		{Name: "limitPrice", Width: amountWidth, Kind: FieldUint},
	}},
}

// LayoutOf returns the layout of a single-instruction opcode. OpJump has no
// fixed layout and is not listed.
func LayoutOf(op OpCode) (Layout, bool) {
	l, ok := layouts[op]
	return l, ok
}
