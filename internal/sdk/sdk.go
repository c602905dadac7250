// Package sdk issues encoded instruction payloads to a deployed Hyper
// protocol through a transport the caller provides. It owns no keys and no
// connections of its own.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/iqbalbaharum/hyper-sdk/internal/instructions"
	"github.com/iqbalbaharum/hyper-sdk/internal/types"
	"go.uber.org/zap"
)

var ErrNotDeployed = errors.New("hyper not deployed, call Attach")

// Transport delivers a transaction on behalf of from and returns its hash.
type Transport interface {
	SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error)
}

// Journal records submissions after the transport accepted them.
type Journal interface {
	Record(ctx context.Context, s *types.Submission) error
}

const forwarderABIJSON = `[{"inputs":[{"internalType":"address","name":"target","type":"address"},{"internalType":"bytes","name":"data","type":"bytes"}],"name":"pass","outputs":[],"stateMutability":"payable","type":"function"}]`

var forwarderABI = mustParseABI(forwarderABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

type Client struct {
	transport Transport
	from      common.Address
	journal   Journal
	log       *zap.Logger
	now       func() time.Time

	mu         sync.RWMutex
	deployment types.Deployment
}

type Option func(*Client)

func WithJournal(j Journal) Option {
	return func(c *Client) { c.journal = j }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(transport Transport, from common.Address, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		from:      from,
		log:       zap.NewNop(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Attach points the client at an existing deployment.
func (c *Client) Attach(d types.Deployment) error {
	if d.Hyper == (common.Address{}) || d.Forwarder == (common.Address{}) {
		return fmt.Errorf("attach: hyper and forwarder addresses are required")
	}

	c.mu.Lock()
	c.deployment = d
	c.mu.Unlock()

	c.log.Info("attached deployment", zap.Stringer("hyper", d.Hyper), zap.Stringer("forwarder", d.Forwarder))

	return nil
}

func (c *Client) Deployment() (types.Deployment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.deployment, !c.deployment.IsZero()
}

// CreatePoolParams describes a pair and a controlled pool created together.
type CreatePoolParams struct {
	Asset       common.Address
	Quote       common.Address
	Controller  common.Address
	PriorityFee uint16
	Fee         uint16
	Volatility  uint16
	Duration    uint16
	JIT         uint8
	MaxTick     uint32
	Price       *uint256.Int
}

// CreatePool creates the pair and a pool on it in one jump. The pool
// references the pair it cannot know yet as the most recent pair.
func (c *Client) CreatePool(ctx context.Context, p CreatePoolParams) (common.Hash, error) {
	pool := &instructions.CreateControlledPool{
		Pair:        instructions.RecentPair(),
		Controller:  p.Controller,
		PriorityFee: p.PriorityFee,
		Fee:         p.Fee,
		Volatility:  p.Volatility,
		Duration:    p.Duration,
		JIT:         p.JIT,
		MaxTick:     p.MaxTick,
	}
	if p.Price != nil {
		pool.Price.Set(p.Price)
	}

	return c.Submit(ctx, instructions.NewCreatePair(p.Asset, p.Quote), pool)
}

// Allocate adds liquidity to a pool.
func (c *Client) Allocate(ctx context.Context, pool instructions.PoolId, deltaBase, deltaQuote *uint256.Int) (common.Hash, error) {
	return c.Submit(ctx, instructions.NewAddLiquidity(false, instructions.Pool(pool), deltaBase, deltaQuote))
}

// Unallocate removes liquidity; useMax removes the caller's entire position.
func (c *Client) Unallocate(ctx context.Context, useMax bool, pool instructions.PoolId, amount *uint256.Int) (common.Hash, error) {
	return c.Submit(ctx, instructions.NewRemoveLiquidity(useMax, instructions.Pool(pool), amount))
}

// SwapAssetToQuote sells asset tokens until the limit price is reached or the
// order is filled.
func (c *Client) SwapAssetToQuote(ctx context.Context, useMax bool, pool instructions.PoolId, amount, limit *uint256.Int) (common.Hash, error) {
	return c.Submit(ctx, instructions.NewSwapExactTokens(useMax, instructions.Pool(pool), amount, limit, instructions.AssetToQuote))
}

// SwapQuoteToAsset sells quote tokens until the limit price is reached or the
// order is filled.
func (c *Client) SwapQuoteToAsset(ctx context.Context, useMax bool, pool instructions.PoolId, amount, limit *uint256.Int) (common.Hash, error) {
	return c.Submit(ctx, instructions.NewSwapExactTokens(useMax, instructions.Pool(pool), amount, limit, instructions.QuoteToAsset))
}

// Submit encodes one instruction bare, or several as a jump, and forwards
// the payload.
func (c *Client) Submit(ctx context.Context, ixs ...instructions.Instruction) (common.Hash, error) {
	payload, err := EncodePayload(ixs...)
	if err != nil {
		return common.Hash{}, err
	}

	return c.forward(ctx, payload, ixs)
}

// EncodePayload encodes one instruction bare, or several as a jump.
func EncodePayload(ixs ...instructions.Instruction) ([]byte, error) {
	if len(ixs) == 1 {
		return instructions.Encode(ixs[0])
	}
	return instructions.EncodeBatch(ixs...)
}

// Send calls the Hyper contract directly with data.
func (c *Client) Send(ctx context.Context, data []byte, value *big.Int) (common.Hash, error) {
	d, ok := c.Deployment()
	if !ok {
		return common.Hash{}, ErrNotDeployed
	}

	if value == nil {
		value = new(big.Int)
	}

	hash, err := c.transport.SendTransaction(ctx, c.from, d.Hyper, value, data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("send: %w", err)
	}

	c.record(ctx, hash, d.Hyper, d.Hyper, data, nil)

	return hash, nil
}

// forward relays the payload through the forwarder's pass(address,bytes).
func (c *Client) forward(ctx context.Context, payload []byte, ixs []instructions.Instruction) (common.Hash, error) {
	d, ok := c.Deployment()
	if !ok {
		return common.Hash{}, ErrNotDeployed
	}

	calldata, err := forwarderABI.Pack("pass", d.Hyper, payload)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack pass: %w", err)
	}

	hash, err := c.transport.SendTransaction(ctx, c.from, d.Forwarder, new(big.Int), calldata)
	if err != nil {
		return common.Hash{}, fmt.Errorf("forward: %w", err)
	}

	c.log.Info("payload forwarded",
		zap.Stringer("hash", hash),
		zap.Int("bytes", len(payload)),
		zap.Int("instructions", len(ixs)))

	c.record(ctx, hash, d.Hyper, d.Forwarder, payload, ixs)

	return hash, nil
}

// record journals a submission. The transaction is already out, so a journal
// failure is logged and not returned.
func (c *Client) record(ctx context.Context, hash common.Hash, target, via common.Address, payload []byte, ixs []instructions.Instruction) {
	if c.journal == nil {
		return
	}

	ops := make([]string, len(ixs))
	for i, ix := range ixs {
		ops[i] = ix.OpCode().String()
	}

	err := c.journal.Record(ctx, &types.Submission{
		Hash:      hash.Hex(),
		Target:    target.Hex(),
		Via:       via.Hex(),
		Payload:   instructions.Hex(payload),
		Ops:       strings.Join(ops, ","),
		Timestamp: c.now().Unix(),
	})
	if err != nil {
		c.log.Warn("failed to journal submission", zap.Stringer("hash", hash), zap.Error(err))
	}
}
