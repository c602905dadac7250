package instructions

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	one = common.HexToAddress("0x0000000000000000000000000000000000000001")
	two = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

// maxOf returns 2^(8*width) - 1.
func maxOf(width int) *uint256.Int {
	v := new(uint256.Int).Lsh(u(1), uint(width*8))
	return v.Sub(v, u(1))
}

func field(t *testing.T, op OpCode, data []byte, name string) uint64 {
	t.Helper()

	layout, ok := LayoutOf(op)
	require.True(t, ok)

	offset, ok := layout.Offset(name)
	require.True(t, ok, name)

	for _, f := range layout.Fields {
		if f.Name == name {
			return new(big.Int).SetBytes(data[offset : offset+f.Width]).Uint64()
		}
	}

	t.Fatalf("no field %s", name)
	return 0
}

func TestLayoutSizes(t *testing.T) {
	sizes := map[OpCode]int{
		OpCreatePair:           41,
		OpCreateCurve:          12,
		OpCreatePool:           39,
		OpCreateControlledPool: 51,
		OpAddLiquidity:         40,
		OpRemoveLiquidity:      24,
		OpSwapExactTokens:      40,
	}

	for op, size := range sizes {
		layout, ok := LayoutOf(op)
		require.True(t, ok, op.String())
		assert.Equal(t, size, layout.Size(), op.String())
		assert.Equal(t, op, newInstruction(op).OpCode())
	}

	assert.Len(t, layouts, len(sizes))

	_, ok := LayoutOf(OpJump)
	assert.False(t, ok)
}

func TestOpCodeNames(t *testing.T) {
	seen := make(map[string]bool)
	for op, name := range opNames {
		assert.False(t, seen[name], name)
		seen[name] = true

		got, ok := ParseOpCode(name)
		require.True(t, ok)
		assert.Equal(t, op, got)
	}

	_, ok := ParseOpCode("mint")
	assert.False(t, ok)
	assert.Equal(t, "unknown(0x42)", OpCode(0x42).String())
}

func TestEncodeCreatePair(t *testing.T) {
	data, err := Encode(NewCreatePair(one, two))
	require.NoError(t, err)
	require.Len(t, data, 41)

	assert.Equal(t, byte(OpCreatePair), data[0])
	info := data[1:]
	assert.Equal(t, one.Bytes(), info[:20])
	assert.Equal(t, two.Bytes(), info[20:])

	ix, err := Decode(data)
	require.NoError(t, err)
	pair, ok := ix.(*CreatePair)
	require.True(t, ok)
	assert.Equal(t, one, pair.Asset)
	assert.Equal(t, two, pair.Quote)
}

func TestEncodeCreateCurve(t *testing.T) {
	data, err := Encode(NewCreateCurve(50, 10000, 200, 100))
	require.NoError(t, err)
	require.Len(t, data, 12)

	info := data[1:]
	assert.Equal(t, uint64(50), new(big.Int).SetBytes(info[0:3]).Uint64())
	assert.Equal(t, uint64(10000), new(big.Int).SetBytes(info[3:7]).Uint64())
	assert.Equal(t, uint64(200), new(big.Int).SetBytes(info[7:9]).Uint64())
	assert.Equal(t, uint64(100), new(big.Int).SetBytes(info[9:]).Uint64())

	ix, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, NewCreateCurve(50, 10000, 200, 100), ix)
}

func TestEncodeCreatePool(t *testing.T) {
	data, err := Encode(NewCreatePool(Pair(4), Curve(2^6), u(400), u(1)))
	require.NoError(t, err)
	require.Len(t, data, 39)

	info := data[1:]
	assert.Equal(t, uint64(4)<<32|4, new(big.Int).SetBytes(info[0:6]).Uint64())
	assert.Equal(t, uint64(4), new(big.Int).SetBytes(info[0:2]).Uint64())
	assert.Equal(t, uint64(4), new(big.Int).SetBytes(info[2:6]).Uint64())
	assert.Equal(t, uint64(400), new(big.Int).SetBytes(info[6:22]).Uint64())
	assert.Equal(t, uint64(1), new(big.Int).SetBytes(info[22:]).Uint64())
}

func TestEncodeRemoveLiquidity(t *testing.T) {
	id, err := PoolIdFromUint64(8)
	require.NoError(t, err)
	assert.Equal(t, PoolId{Pair: 0, Curve: 8}, id)

	data, err := Encode(NewRemoveLiquidity(false, Pool(id), u(72)))
	require.NoError(t, err)

	assert.Equal(t, uint64(0), field(t, OpRemoveLiquidity, data, "flags"))
	assert.Equal(t, uint64(8), field(t, OpRemoveLiquidity, data, "poolId"))
	assert.Equal(t, uint64(72), field(t, OpRemoveLiquidity, data, "deltaLiquidity"))

	ix, err := Decode(data)
	require.NoError(t, err)
	remove := ix.(*RemoveLiquidity)
	assert.False(t, remove.UseMax)
	assert.Equal(t, uint16(0), remove.Pool.Id().Pair)
	assert.Equal(t, uint32(8), remove.Pool.Id().Curve)
	assert.Equal(t, uint64(72), remove.DeltaLiquidity.Uint64())
}

func TestEncodeAddLiquidity(t *testing.T) {
	id, err := PoolIdFromUint64(8)
	require.NoError(t, err)

	data, err := Encode(NewAddLiquidity(true, Pool(id), u(300), u(700)))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), field(t, OpAddLiquidity, data, "flags"))
	assert.Equal(t, uint64(8), field(t, OpAddLiquidity, data, "poolId"))
	assert.Equal(t, uint64(300), field(t, OpAddLiquidity, data, "deltaBase"))
	assert.Equal(t, uint64(700), field(t, OpAddLiquidity, data, "deltaQuote"))
}

func TestEncodeSwapExactTokens(t *testing.T) {
	id := PoolId{Pair: 1, Curve: 2}

	for _, tt := range []struct {
		useMax    bool
		direction Direction
		flags     uint64
	}{
		{false, AssetToQuote, 0b00},
		{true, AssetToQuote, 0b01},
		{false, QuoteToAsset, 0b10},
		{true, QuoteToAsset, 0b11},
	} {
		data, err := Encode(NewSwapExactTokens(tt.useMax, Pool(id), u(300), u(5), tt.direction))
		require.NoError(t, err)

		assert.Equal(t, tt.flags, field(t, OpSwapExactTokens, data, "flags"))
		assert.Equal(t, id.Uint64(), field(t, OpSwapExactTokens, data, "poolId"))
		assert.Equal(t, uint64(300), field(t, OpSwapExactTokens, data, "deltaIn"))
		assert.Equal(t, uint64(5), field(t, OpSwapExactTokens, data, "limitPrice"))

		ix, err := Decode(data)
		require.NoError(t, err)
		swap := ix.(*SwapExactTokens)
		assert.Equal(t, tt.useMax, swap.UseMax)
		assert.Equal(t, tt.direction, swap.Direction)
	}
}

func boundaryInstructions() map[string]Instruction {
	maxAmount := maxOf(16)
	maxPool := Pool(PoolId{Pair: 0xffff, Curve: 0xffffffff})

	return map[string]Instruction{
		"create pair zero":   NewCreatePair(common.Address{}, common.Address{}),
		"create pair":        NewCreatePair(one, common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")),
		"create curve zero":  NewCreateCurve(0, 0, 0, 0),
		"create curve max":   NewCreateCurve(1<<24-1, 1<<32-1, 1<<16-1, 1<<16-1),
		"create pool min":    NewCreatePool(Pair(1), Curve(1), u(0), u(0)),
		"create pool max":    NewCreatePool(Pair(0xffff), Curve(0xffffffff), maxAmount, maxAmount),
		"create pool recent": NewCreatePool(RecentPair(), RecentCurve(), u(400), u(1)),
		"controlled pool": &CreateControlledPool{
			Pair:        Pair(7),
			Controller:  two,
			PriorityFee: 1,
			Fee:         100,
			Volatility:  10000,
			Duration:    365,
			JIT:         4,
			MaxTick:     1<<24 - 1,
			Price:       *u(10),
		},
		"controlled pool recent": &CreateControlledPool{Pair: RecentPair(), Controller: one, Price: *maxAmount},
		"add liquidity":          NewAddLiquidity(false, Pool(PoolId{Curve: 1}), u(0), maxAmount),
		"add liquidity recent":   NewAddLiquidity(true, RecentPool(), u(1), u(2)),
		"remove liquidity":       NewRemoveLiquidity(true, maxPool, maxAmount),
		"swap":                   NewSwapExactTokens(true, maxPool, maxAmount, u(0), QuoteToAsset),
		"swap recent":            NewSwapExactTokens(false, RecentPool(), u(1), maxAmount, AssetToQuote),
	}
}

func TestRoundTrip(t *testing.T) {
	for name, ix := range boundaryInstructions() {
		t.Run(name, func(t *testing.T) {
			data, err := Encode(ix)
			require.NoError(t, err)

			layout, _ := LayoutOf(ix.OpCode())
			assert.Len(t, data, layout.Size())

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, ix, got)

			again, err := Encode(ix)
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestRecentReferenceIsZero(t *testing.T) {
	data, err := Encode(NewCreatePool(RecentPair(), RecentCurve(), u(1), u(1)))
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 6), data[1:7])

	ix, err := Decode(data)
	require.NoError(t, err)
	pool := ix.(*CreatePool)
	assert.True(t, pool.Pair.IsRecent())
	assert.True(t, pool.Curve.IsRecent())
	assert.Equal(t, "recent", pool.Pair.String())
}

func TestEncodeRange(t *testing.T) {
	over := new(uint256.Int).AddUint64(maxOf(16), 1)

	tests := map[string]Instruction{
		"strike":         NewCreateCurve(1<<24, 1, 1, 1),
		"max tick":       &CreateControlledPool{Pair: Pair(1), MaxTick: 1 << 24},
		"base amount":    NewCreatePool(Pair(1), Curve(1), over, u(1)),
		"price":          &CreateControlledPool{Pair: Pair(1), Price: *over},
		"delta quote":    NewAddLiquidity(false, Pool(PoolId{Curve: 1}), u(1), over),
		"limit price":    NewSwapExactTokens(false, Pool(PoolId{Curve: 1}), u(1), over, AssetToQuote),
		"zero pair":      NewCreatePool(Pair(0), Curve(1), u(1), u(1)),
		"zero curve":     NewCreatePool(Pair(1), Curve(0), u(1), u(1)),
		"zero pool":      NewRemoveLiquidity(false, Pool(PoolId{}), u(1)),
		"zero ctrl pair": &CreateControlledPool{Pair: Pair(0)},
		"direction":      NewSwapExactTokens(false, Pool(PoolId{Curve: 1}), u(1), u(1), Direction(2)),
	}

	for name, ix := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := Encode(ix)
			assert.ErrorIs(t, err, coder.ErrRange)
			assert.Nil(t, data)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	valid, err := Encode(NewRemoveLiquidity(false, Pool(PoolId{Curve: 8}), u(72)))
	require.NoError(t, err)

	badFlags := append([]byte(nil), valid...)
	badFlags[1] = 0x02

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"empty", nil, coder.ErrLength},
		{"unknown opcode", []byte{0x42, 0x00}, coder.ErrMalformedInstruction},
		{"unset opcode", []byte{0x02}, coder.ErrMalformedInstruction},
		{"truncated", valid[:len(valid)-1], coder.ErrLength},
		{"opcode only", valid[:1], coder.ErrLength},
		{"trailing", append(append([]byte(nil), valid...), 0x00), coder.ErrMalformedInstruction},
		{"undefined flag", badFlags, coder.ErrMalformedInstruction},
		{"jump", []byte{byte(OpJump), 0x01, 0x00, 0x04}, coder.ErrMalformedInstruction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := Decode(tt.data)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, ix)
		})
	}
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, coder.ErrMalformedInstruction)
}

func TestPoolIdFromUint64(t *testing.T) {
	id, err := PoolIdFromUint64(uint64(3)<<32 | 9)
	require.NoError(t, err)
	assert.Equal(t, PoolId{Pair: 3, Curve: 9}, id)
	assert.Equal(t, uint64(3)<<32|9, id.Uint64())

	_, err = PoolIdFromUint64(1 << 48)
	assert.ErrorIs(t, err, coder.ErrRange)
}

func TestHex(t *testing.T) {
	data, err := Encode(NewCreateCurve(50, 10000, 200, 100))
	require.NoError(t, err)

	s := Hex(data)
	assert.Equal(t, "0x0d0000320000271000c80064", s)

	back, err := FromHex(s)
	require.NoError(t, err)
	assert.Equal(t, data, back)

	for _, bad := range []string{"0d00", "0x0", "0xzz"} {
		_, err := FromHex(bad)
		assert.ErrorIs(t, err, coder.ErrFormat, bad)
	}
}
