package engine

import (
	"fmt"
	"math"

	"github.com/iqbalbaharum/hyper-sdk/internal/instructions"
)

func (s *state) apply(ix instructions.Instruction) (Effect, error) {
	effect := Effect{OpCode: ix.OpCode()}

	switch ix := ix.(type) {
	case *instructions.CreatePair:
		index, err := s.addPair(Pair{Asset: ix.Asset, Quote: ix.Quote})
		if err != nil {
			return effect, err
		}
		effect.Created = instructions.EntityPair
		effect.Pair = index

	case *instructions.CreateCurve:
		index, err := s.addCurve(Curve{Strike: ix.Strike, Sigma: ix.Sigma, Maturity: ix.Maturity, Fee: ix.Fee})
		if err != nil {
			return effect, err
		}
		effect.Created = instructions.EntityCurve
		effect.Curve = index

	case *instructions.CreatePool:
		pair, err := s.resolvePair(ix.Pair)
		if err != nil {
			return effect, err
		}
		curve, err := s.resolveCurve(ix.Curve)
		if err != nil {
			return effect, err
		}
		id, err := s.addPool(Pool{Id: instructions.PoolId{Pair: pair, Curve: curve}})
		if err != nil {
			return effect, err
		}
		effect.Created = instructions.EntityPool
		effect.Pair, effect.Curve, effect.Pool = pair, curve, id

	case *instructions.CreateControlledPool:
		pair, err := s.resolvePair(ix.Pair)
		if err != nil {
			return effect, err
		}
		curve, err := s.addCurve(Curve{Sigma: uint32(ix.Volatility), Maturity: ix.Duration, Fee: ix.Fee})
		if err != nil {
			return effect, err
		}
		id, err := s.addPool(Pool{
			Id:          instructions.PoolId{Pair: pair, Curve: curve},
			Controller:  ix.Controller,
			PriorityFee: ix.PriorityFee,
			JIT:         ix.JIT,
			MaxTick:     ix.MaxTick,
		})
		if err != nil {
			return effect, err
		}
		effect.Created = instructions.EntityPool
		effect.Pair, effect.Curve, effect.Pool = pair, curve, id

	case *instructions.AddLiquidity:
		id, err := s.resolvePool(ix.Pool)
		if err != nil {
			return effect, err
		}
		effect.Pool, effect.UseMax = id, ix.UseMax

	case *instructions.RemoveLiquidity:
		id, err := s.resolvePool(ix.Pool)
		if err != nil {
			return effect, err
		}
		effect.Pool, effect.UseMax = id, ix.UseMax

	case *instructions.SwapExactTokens:
		id, err := s.resolvePool(ix.Pool)
		if err != nil {
			return effect, err
		}
		effect.Pool, effect.UseMax, effect.Direction = id, ix.UseMax, ix.Direction

	default:
		return effect, fmt.Errorf("no handler for %s", ix.OpCode())
	}

	return effect, nil
}

func (s *state) addPair(p Pair) (uint16, error) {
	if len(s.pairs) >= math.MaxUint16 {
		return 0, fmt.Errorf("%w: pairs", ErrExhausted)
	}
	s.pairs = append(s.pairs, p)
	return uint16(len(s.pairs)), nil
}

func (s *state) addCurve(c Curve) (uint32, error) {
	if uint64(len(s.curves)) >= math.MaxUint32 {
		return 0, fmt.Errorf("%w: curves", ErrExhausted)
	}
	s.curves = append(s.curves, c)
	return uint32(len(s.curves)), nil
}

func (s *state) addPool(p Pool) (instructions.PoolId, error) {
	if _, ok := s.pools[p.Id]; ok {
		return instructions.PoolId{}, fmt.Errorf("%w: %s", ErrPoolExists, p.Id)
	}
	s.pools[p.Id] = p
	s.lastPool, s.hasPool = p.Id, true
	return p.Id, nil
}

func (s *state) resolvePair(r instructions.PairRef) (uint16, error) {
	if r.IsRecent() {
		if len(s.pairs) == 0 {
			return 0, fmt.Errorf("%w: pair", ErrUnresolved)
		}
		return uint16(len(s.pairs)), nil
	}

	if int(r.Index()) > len(s.pairs) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPair, r.Index())
	}
	return r.Index(), nil
}

func (s *state) resolveCurve(r instructions.CurveRef) (uint32, error) {
	if r.IsRecent() {
		if len(s.curves) == 0 {
			return 0, fmt.Errorf("%w: curve", ErrUnresolved)
		}
		return uint32(len(s.curves)), nil
	}

	if uint64(r.Index()) > uint64(len(s.curves)) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCurve, r.Index())
	}
	return r.Index(), nil
}

func (s *state) resolvePool(r instructions.PoolRef) (instructions.PoolId, error) {
	if r.IsRecent() {
		if !s.hasPool {
			return instructions.PoolId{}, fmt.Errorf("%w: pool", ErrUnresolved)
		}
		return s.lastPool, nil
	}

	if _, ok := s.pools[r.Id()]; !ok {
		return instructions.PoolId{}, fmt.Errorf("%w: %s", ErrUnknownPool, r.Id())
	}
	return r.Id(), nil
}
