// Package engine is an in-process stand-in for the remote execution engine.
// It decodes payloads, resolves recent references against the entities it
// has created, and keeps just enough state to do so. It performs no pricing.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iqbalbaharum/hyper-sdk/internal/instructions"
	"go.uber.org/zap"
)

var (
	ErrUnresolved   = errors.New("recent reference with nothing created")
	ErrUnknownPair  = errors.New("pair not found")
	ErrUnknownCurve = errors.New("curve not found")
	ErrUnknownPool  = errors.New("pool not found")
	ErrPoolExists   = errors.New("pool already exists")
	ErrExhausted    = errors.New("identifier space exhausted")
)

type Pair struct {
	Asset common.Address
	Quote common.Address
}

type Curve struct {
	Strike   uint32
	Sigma    uint32
	Maturity uint16
	Fee      uint16
}

type Pool struct {
	Id          instructions.PoolId
	Controller  common.Address
	PriorityFee uint16
	JIT         uint8
	MaxTick     uint32
}

// Effect is what one instruction did once its references were resolved.
type Effect struct {
	OpCode    instructions.OpCode
	Created   instructions.EntityKind
	Pair      uint16
	Curve     uint32
	Pool      instructions.PoolId
	UseMax    bool
	Direction instructions.Direction
}

type state struct {
	pairs    []Pair
	curves   []Curve
	pools    map[instructions.PoolId]Pool
	lastPool instructions.PoolId
	hasPool  bool
}

func (s *state) clone() *state {
	c := &state{
		pairs:    append([]Pair(nil), s.pairs...),
		curves:   append([]Curve(nil), s.curves...),
		pools:    make(map[instructions.PoolId]Pool, len(s.pools)),
		lastPool: s.lastPool,
		hasPool:  s.hasPool,
	}
	for id, p := range s.pools {
		c.pools[id] = p
	}
	return c
}

type Engine struct {
	mu    sync.Mutex
	state *state
	log   *zap.Logger
}

func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		state: &state{pools: make(map[instructions.PoolId]Pool)},
		log:   log,
	}
}

// Execute applies a single instruction or a jump batch. Execution is all or
// nothing: when any instruction fails, no state changes.
func (e *Engine) Execute(payload []byte) ([]Effect, error) {
	batch, err := instructions.DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.clone()
	effects := make([]Effect, 0, len(batch))

	for i, ix := range batch {
		effect, err := next.apply(ix)
		if err != nil {
			e.log.Debug("instruction rejected", zap.Int("index", i), zap.Stringer("op", ix.OpCode()), zap.Error(err))
			return nil, fmt.Errorf("instruction %d (%s): %w", i, ix.OpCode(), err)
		}

		e.log.Debug("instruction applied",
			zap.Int("index", i),
			zap.Stringer("op", ix.OpCode()),
			zap.Stringer("created", effect.Created),
			zap.Stringer("pool", effect.Pool))

		effects = append(effects, effect)
	}

	e.state = next

	return effects, nil
}

func (e *Engine) Pair(index uint16) (Pair, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index == 0 || int(index) > len(e.state.pairs) {
		return Pair{}, false
	}
	return e.state.pairs[index-1], true
}

func (e *Engine) Curve(index uint32) (Curve, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index == 0 || uint64(index) > uint64(len(e.state.curves)) {
		return Curve{}, false
	}
	return e.state.curves[index-1], true
}

func (e *Engine) Pool(id instructions.PoolId) (Pool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.state.pools[id]
	return p, ok
}
