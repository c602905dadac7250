package instructions

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func controlledPool() *CreateControlledPool {
	return &CreateControlledPool{
		Pair:        RecentPair(),
		Controller:  two,
		PriorityFee: 1,
		Fee:         100,
		Volatility:  10000,
		Duration:    365,
		JIT:         4,
		MaxTick:     1000,
		Price:       *u(10),
	}
}

func TestCreatePairThenPool(t *testing.T) {
	payload, err := EncodeBatch(NewCreatePair(one, two), controlledPool())
	require.NoError(t, err)

	offsets, err := BatchOffsets(payload)
	require.NoError(t, err)
	require.Equal(t, []int{6, 6 + 41}, offsets)

	assert.Equal(t, byte(OpJump), payload[0])
	assert.Equal(t, byte(2), payload[1])
	assert.Len(t, payload, 6+41+51)

	pool := payload[offsets[1]:]
	assert.Equal(t, byte(OpCreateControlledPool), pool[0])
	assert.Equal(t, []byte{0x00, 0x00}, pool[1:3], "pair reference must be the sentinel")

	batch, err := DecodeBatch(payload)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, NewCreatePair(one, two), batch[0])
	assert.True(t, batch[1].(*CreateControlledPool).Pair.IsRecent())
}

func randomInstruction(rng *rand.Rand) Instruction {
	id := PoolId{Pair: uint16(rng.Intn(1 << 16)), Curve: uint32(rng.Int63n(1<<32-1)) + 1}
	amount := u(rng.Uint64())

	switch rng.Intn(7) {
	case 0:
		return NewCreatePair(one, two)
	case 1:
		return NewCreateCurve(uint32(rng.Intn(1<<24)), rng.Uint32(), uint16(rng.Intn(1<<16)), uint16(rng.Intn(1<<16)))
	case 2:
		return NewCreatePool(Pair(uint16(rng.Intn(1<<16-1))+1), Curve(id.Curve), amount, u(1))
	case 3:
		ix := controlledPool()
		ix.Pair = Pair(id.Pair | 1)
		return ix
	case 4:
		return NewAddLiquidity(rng.Intn(2) == 1, Pool(id), amount, amount)
	case 5:
		return NewRemoveLiquidity(rng.Intn(2) == 1, Pool(id), amount)
	default:
		return NewSwapExactTokens(rng.Intn(2) == 1, Pool(id), amount, u(10), Direction(rng.Intn(2)))
	}
}

func TestBatchOffsets(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, n := range []int{1, 2, 3, 10, 64, MaxBatchSize} {
		batch := make([]Instruction, n)
		for i := range batch {
			batch[i] = randomInstruction(rng)
		}

		payload, err := EncodeBatch(batch...)
		require.NoError(t, err)

		offsets, err := BatchOffsets(payload)
		require.NoError(t, err)
		require.Len(t, offsets, n)

		want := 2 + 2*n
		for i, ix := range batch {
			assert.Equal(t, want, offsets[i], "instruction %d", i)
			assert.Equal(t, uint16(want), binary.BigEndian.Uint16(payload[2+2*i:]))

			layout, _ := LayoutOf(ix.OpCode())
			want += layout.Size()
		}
		assert.Equal(t, want, len(payload))

		byTable, err := DecodeBatch(payload)
		require.NoError(t, err)
		byScan, err := DecodeBatchLinear(payload)
		require.NoError(t, err)

		assert.Equal(t, batch, byTable)
		assert.Equal(t, byTable, byScan)
	}
}

func TestJoinEncoded(t *testing.T) {
	pair, err := Encode(NewCreatePair(one, two))
	require.NoError(t, err)
	pool, err := Encode(controlledPool())
	require.NoError(t, err)

	joined, err := JoinEncoded(pair, pool)
	require.NoError(t, err)

	direct, err := EncodeBatch(NewCreatePair(one, two), controlledPool())
	require.NoError(t, err)
	assert.Equal(t, direct, joined)

	_, err = JoinEncoded(pair, pool[:10])
	assert.ErrorIs(t, err, coder.ErrLength)

	_, err = JoinEncoded(pair, []byte{0x42})
	assert.ErrorIs(t, err, coder.ErrMalformedInstruction)

	_, err = JoinEncoded(pool)
	assert.ErrorIs(t, err, coder.ErrCompose)
}

func TestCompose(t *testing.T) {
	pool := Pool(PoolId{Pair: 1, Curve: 1})

	tests := []struct {
		name  string
		batch []Instruction
		ok    bool
	}{
		{"pair then pool", []Instruction{NewCreatePair(one, two), controlledPool()}, true},
		{
			"pair, curve, pool, liquidity",
			[]Instruction{
				NewCreatePair(one, two),
				NewCreateCurve(50, 10000, 200, 100),
				NewCreatePool(RecentPair(), RecentCurve(), u(400), u(1)),
				NewAddLiquidity(false, RecentPool(), u(1), u(1)),
			},
			true,
		},
		{
			"creation between references",
			[]Instruction{NewCreatePair(one, two), controlledPool(), NewCreatePair(two, one), controlledPool()},
			true,
		},
		{
			"controlled pool creates a curve",
			[]Instruction{
				NewCreatePair(one, two),
				controlledPool(),
				NewCreatePool(Pair(1), RecentCurve(), u(1), u(1)),
			},
			true,
		},
		{"literals only", []Instruction{NewAddLiquidity(false, pool, u(1), u(1)), NewRemoveLiquidity(true, pool, u(1))}, true},
		{"two references to one pair", []Instruction{NewCreatePair(one, two), controlledPool(), controlledPool()}, false},
		{
			"two references to one pool",
			[]Instruction{
				NewCreatePair(one, two),
				controlledPool(),
				NewAddLiquidity(false, RecentPool(), u(1), u(1)),
				NewSwapExactTokens(false, RecentPool(), u(1), u(1), AssetToQuote),
			},
			false,
		},
		{"reference before creation", []Instruction{controlledPool(), NewCreatePair(one, two)}, false},
		{"no curve created", []Instruction{NewCreatePair(one, two), NewCreatePool(RecentPair(), RecentCurve(), u(1), u(1))}, false},
		{"recent pool only", []Instruction{NewAddLiquidity(false, RecentPool(), u(1), u(1))}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := EncodeBatch(tt.batch...)
			if tt.ok {
				require.NoError(t, err)
				assert.NotEmpty(t, payload)
				return
			}
			assert.ErrorIs(t, err, coder.ErrCompose)
			assert.Nil(t, payload)
		})
	}
}

func TestBatchLimits(t *testing.T) {
	batch := make([]Instruction, MaxBatchSize+1)
	for i := range batch {
		batch[i] = NewCreatePair(one, two)
	}

	_, err := EncodeBatch(batch...)
	assert.ErrorIs(t, err, coder.ErrCompose)

	_, err = EncodeBatch(NewCreatePair(one, two), nil)
	assert.ErrorIs(t, err, coder.ErrCompose)

	_, err = EncodeBatch(NewCreateCurve(1<<24, 0, 0, 0))
	assert.ErrorIs(t, err, coder.ErrRange)
}

func TestDecodeBatchErrors(t *testing.T) {
	payload, err := EncodeBatch(NewCreatePair(one, two), NewCreateCurve(1, 2, 3, 4))
	require.NoError(t, err)

	mutate := func(f func(b []byte) []byte) []byte {
		return f(append([]byte(nil), payload...))
	}

	tests := []struct {
		name string
		data []byte
		err  error
		// the linear scan ignores the addressing table
		tableOnly bool
	}{
		{"empty", nil, coder.ErrLength, false},
		{"not a jump", []byte{byte(OpCreatePair), 0x01}, coder.ErrMalformedInstruction, false},
		{"zero count", []byte{byte(OpJump), 0x00}, coder.ErrMalformedInstruction, false},
		{"short table", payload[:4], coder.ErrLength, false},
		{"truncated", payload[:len(payload)-1], coder.ErrLength, false},
		{"trailing", append(append([]byte(nil), payload...), 0x00), coder.ErrMalformedInstruction, false},
		{"first offset", mutate(func(b []byte) []byte { b[3] = 0x07; return b }), coder.ErrMalformedInstruction, true},
		{"second offset", mutate(func(b []byte) []byte { b[5] = 0x06; return b }), coder.ErrMalformedInstruction, true},
		{"offset past end", mutate(func(b []byte) []byte { b[4] = 0xff; return b }), coder.ErrLength, true},
		{"unknown opcode", mutate(func(b []byte) []byte { b[6] = 0x42; return b }), coder.ErrMalformedInstruction, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBatch(tt.data)
			assert.ErrorIs(t, err, tt.err)

			_, err = DecodeBatchLinear(tt.data)
			if tt.tableOnly {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDecodeNestedJump(t *testing.T) {
	inner, err := EncodeBatch(NewCreatePair(one, two))
	require.NoError(t, err)

	outer := []byte{byte(OpJump), 0x01, 0x00, 0x04}
	outer = append(outer, inner...)

	_, err = DecodeBatch(outer)
	assert.ErrorIs(t, err, coder.ErrMalformedInstruction)
}

func TestDecodePayload(t *testing.T) {
	single, err := Encode(NewCreatePair(one, two))
	require.NoError(t, err)

	got, err := DecodePayload(single)
	require.NoError(t, err)
	assert.Equal(t, []Instruction{NewCreatePair(one, two)}, got)

	batch, err := EncodeBatch(NewCreatePair(one, two), controlledPool())
	require.NoError(t, err)

	got, err = DecodePayload(batch)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
