package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
	"github.com/iqbalbaharum/hyper-sdk/internal/instructions"
)

// Ref is an identifier operand in JSON: a number, or "recent".
type Ref struct {
	Recent bool
	Value  uint64
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Recent {
		return []byte(`"recent"`), nil
	}
	return []byte(strconv.FormatUint(r.Value, 10)), nil
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`"recent"`)) {
		*r = Ref{Recent: true}
		return nil
	}

	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("reference must be a number or \"recent\": %s", data)
	}

	*r = Ref{Value: v}
	return nil
}

// InstructionJSON is the flat request and response form of every
// instruction. Only the fields of Op are read.
type InstructionJSON struct {
	Op string `json:"op"`

	UseMax    bool   `json:"useMax,omitempty"`
	Direction string `json:"direction,omitempty"`

	Asset      string `json:"asset,omitempty"`
	Quote      string `json:"quote,omitempty"`
	Controller string `json:"controller,omitempty"`

	Pair  *Ref `json:"pair,omitempty"`
	Curve *Ref `json:"curve,omitempty"`
	Pool  *Ref `json:"pool,omitempty"`

	Strike      uint32 `json:"strike,omitempty"`
	Sigma       uint32 `json:"sigma,omitempty"`
	Maturity    uint16 `json:"maturity,omitempty"`
	Fee         uint16 `json:"fee,omitempty"`
	PriorityFee uint16 `json:"priorityFee,omitempty"`
	Volatility  uint16 `json:"volatility,omitempty"`
	Duration    uint16 `json:"duration,omitempty"`
	JIT         uint8  `json:"jit,omitempty"`
	MaxTick     uint32 `json:"maxTick,omitempty"`

	BasePerLiquidity string `json:"basePerLiquidity,omitempty"`
	DeltaLiquidity   string `json:"deltaLiquidity,omitempty"`
	DeltaBase        string `json:"deltaBase,omitempty"`
	DeltaQuote       string `json:"deltaQuote,omitempty"`
	DeltaIn          string `json:"deltaIn,omitempty"`
	LimitPrice       string `json:"limitPrice,omitempty"`
	Price            string `json:"price,omitempty"`
}

// parser collects the first operand error so conversions read straight.
type parser struct {
	op  instructions.OpCode
	err error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: %w", p.op, err)
	}
}

func (p *parser) address(name, s string) common.Address {
	a, err := coder.ParseAddress(s)
	if err != nil {
		p.fail(fmt.Errorf("%s: %w", name, err))
	}
	return a
}

func (p *parser) amount(name, s string) *uint256.Int {
	if s == "" {
		p.fail(fmt.Errorf("%w: %s is required", coder.ErrFormat, name))
		return new(uint256.Int)
	}

	v, err := uint256.FromDecimal(s)
	if err != nil {
		p.fail(fmt.Errorf("%w: %s %q is not a decimal integer", coder.ErrFormat, name, s))
		return new(uint256.Int)
	}
	return v
}

func (p *parser) ref(name string, r *Ref) *Ref {
	if r == nil {
		p.fail(fmt.Errorf("%w: %s is required", coder.ErrFormat, name))
		return &Ref{Recent: true}
	}
	return r
}

func (p *parser) pair(r *Ref) instructions.PairRef {
	r = p.ref("pair", r)
	if r.Recent {
		return instructions.RecentPair()
	}
	if r.Value > math.MaxUint16 {
		p.fail(fmt.Errorf("%w: pair %d", coder.ErrRange, r.Value))
	}
	return instructions.Pair(uint16(r.Value))
}

func (p *parser) curve(r *Ref) instructions.CurveRef {
	r = p.ref("curve", r)
	if r.Recent {
		return instructions.RecentCurve()
	}
	if r.Value > math.MaxUint32 {
		p.fail(fmt.Errorf("%w: curve %d", coder.ErrRange, r.Value))
	}
	return instructions.Curve(uint32(r.Value))
}

func (p *parser) pool(r *Ref) instructions.PoolRef {
	r = p.ref("pool", r)
	if r.Recent {
		return instructions.RecentPool()
	}
	id, err := instructions.PoolIdFromUint64(r.Value)
	if err != nil {
		p.fail(err)
	}
	return instructions.Pool(id)
}

func (p *parser) direction(s string) instructions.Direction {
	switch s {
	case "", instructions.AssetToQuote.String():
		return instructions.AssetToQuote
	case instructions.QuoteToAsset.String():
		return instructions.QuoteToAsset
	default:
		p.fail(fmt.Errorf("%w: direction %q", coder.ErrFormat, s))
		return instructions.AssetToQuote
	}
}

// ToInstruction converts the JSON form into a typed instruction.
func (j InstructionJSON) ToInstruction() (instructions.Instruction, error) {
	op, ok := instructions.ParseOpCode(j.Op)
	if !ok || op == instructions.OpJump {
		return nil, fmt.Errorf("%w: unknown instruction %q", coder.ErrFormat, j.Op)
	}

	p := &parser{op: op}
	var ix instructions.Instruction

	switch op {
	case instructions.OpCreatePair:
		ix = instructions.NewCreatePair(p.address("asset", j.Asset), p.address("quote", j.Quote))
	case instructions.OpCreateCurve:
		ix = instructions.NewCreateCurve(j.Strike, j.Sigma, j.Maturity, j.Fee)
	case instructions.OpCreatePool:
		ix = instructions.NewCreatePool(p.pair(j.Pair), p.curve(j.Curve),
			p.amount("basePerLiquidity", j.BasePerLiquidity), p.amount("deltaLiquidity", j.DeltaLiquidity))
	case instructions.OpCreateControlledPool:
		pool := &instructions.CreateControlledPool{
			Pair:        p.pair(j.Pair),
			Controller:  p.address("controller", j.Controller),
			PriorityFee: j.PriorityFee,
			Fee:         j.Fee,
			Volatility:  j.Volatility,
			Duration:    j.Duration,
			JIT:         j.JIT,
			MaxTick:     j.MaxTick,
		}
		pool.Price.Set(p.amount("price", j.Price))
		ix = pool
	case instructions.OpAddLiquidity:
		ix = instructions.NewAddLiquidity(j.UseMax, p.pool(j.Pool),
			p.amount("deltaBase", j.DeltaBase), p.amount("deltaQuote", j.DeltaQuote))
	case instructions.OpRemoveLiquidity:
		ix = instructions.NewRemoveLiquidity(j.UseMax, p.pool(j.Pool), p.amount("deltaLiquidity", j.DeltaLiquidity))
	case instructions.OpSwapExactTokens:
		ix = instructions.NewSwapExactTokens(j.UseMax, p.pool(j.Pool),
			p.amount("deltaIn", j.DeltaIn), p.amount("limitPrice", j.LimitPrice), p.direction(j.Direction))
	}

	if p.err != nil {
		return nil, p.err
	}

	return ix, nil
}

func toInstructions(list []InstructionJSON) ([]instructions.Instruction, error) {
	out := make([]instructions.Instruction, len(list))
	for i, j := range list {
		ix, err := j.ToInstruction()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		out[i] = ix
	}
	return out, nil
}

func refOf(recent bool, value uint64) *Ref {
	return &Ref{Recent: recent, Value: value}
}

// FromInstruction renders a decoded instruction in its JSON form.
func FromInstruction(ix instructions.Instruction) InstructionJSON {
	j := InstructionJSON{Op: ix.OpCode().String()}

	switch ix := ix.(type) {
	case *instructions.CreatePair:
		j.Asset = ix.Asset.Hex()
		j.Quote = ix.Quote.Hex()
	case *instructions.CreateCurve:
		j.Strike, j.Sigma, j.Maturity, j.Fee = ix.Strike, ix.Sigma, ix.Maturity, ix.Fee
	case *instructions.CreatePool:
		j.Pair = refOf(ix.Pair.IsRecent(), uint64(ix.Pair.Index()))
		j.Curve = refOf(ix.Curve.IsRecent(), uint64(ix.Curve.Index()))
		j.BasePerLiquidity = ix.BasePerLiquidity.Dec()
		j.DeltaLiquidity = ix.DeltaLiquidity.Dec()
	case *instructions.CreateControlledPool:
		j.Pair = refOf(ix.Pair.IsRecent(), uint64(ix.Pair.Index()))
		j.Controller = ix.Controller.Hex()
		j.PriorityFee, j.Fee, j.Volatility, j.Duration = ix.PriorityFee, ix.Fee, ix.Volatility, ix.Duration
		j.JIT, j.MaxTick = ix.JIT, ix.MaxTick
		j.Price = ix.Price.Dec()
	case *instructions.AddLiquidity:
		j.UseMax = ix.UseMax
		j.Pool = refOf(ix.Pool.IsRecent(), ix.Pool.Id().Uint64())
		j.DeltaBase = ix.DeltaBase.Dec()
		j.DeltaQuote = ix.DeltaQuote.Dec()
	case *instructions.RemoveLiquidity:
		j.UseMax = ix.UseMax
		j.Pool = refOf(ix.Pool.IsRecent(), ix.Pool.Id().Uint64())
		j.DeltaLiquidity = ix.DeltaLiquidity.Dec()
	case *instructions.SwapExactTokens:
		j.UseMax = ix.UseMax
		j.Direction = ix.Direction.String()
		j.Pool = refOf(ix.Pool.IsRecent(), ix.Pool.Id().Uint64())
		j.DeltaIn = ix.DeltaIn.Dec()
		j.LimitPrice = ix.LimitPrice.Dec()
	}

	return j
}
