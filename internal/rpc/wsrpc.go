package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iqbalbaharum/hyper-sdk/internal/generators"
	"go.uber.org/zap"
)

var (
	ErrClosed         = errors.New("websocket rpc closed")
	ErrConnectionLost = errors.New("websocket connection lost")
)

// WsRpc speaks JSON-RPC over a websocket, matching responses to requests by
// id so concurrent calls can share the connection.
type WsRpc struct {
	wsClient *generators.WSClient
	log      *zap.Logger
	nextID   atomic.Uint64

	mutex   sync.Mutex
	pending map[uint64]chan *ResponseBody
}

func NewWsRpc(url string, log *zap.Logger) (*WsRpc, error) {
	if log == nil {
		log = zap.NewNop()
	}

	wsClient, err := generators.NewWSClient(url, "", log)
	if err != nil {
		return nil, err
	}

	w := &WsRpc{
		wsClient: wsClient,
		log:      log,
		pending:  make(map[uint64]chan *ResponseBody),
	}

	go w.dispatch()

	return w, nil
}

func (w *WsRpc) dispatch() {
	for {
		select {
		case <-w.wsClient.Done():
			return
		case err := <-w.wsClient.Lost():
			w.failPending(err)
		case message := <-w.wsClient.Messages():
			var response ResponseBody
			if err := json.Unmarshal(message, &response); err != nil {
				w.log.Warn("failed to unmarshal message", zap.Error(err))
				continue
			}

			w.mutex.Lock()
			ch, ok := w.pending[response.ID]
			delete(w.pending, response.ID)
			w.mutex.Unlock()

			if !ok {
				w.log.Debug("dropping unmatched response", zap.Uint64("id", response.ID))
				continue
			}

			ch <- &response
		}
	}
}

// failPending ends every call still waiting on the dropped connection.
func (w *WsRpc) failPending(cause error) {
	w.mutex.Lock()
	pending := w.pending
	w.pending = make(map[uint64]chan *ResponseBody)
	w.mutex.Unlock()

	if len(pending) > 0 {
		w.log.Warn("failing in-flight calls", zap.Int("count", len(pending)), zap.Error(cause))
	}

	for _, ch := range pending {
		ch <- &ResponseBody{lost: true}
	}
}

func (w *WsRpc) forget(id uint64) {
	w.mutex.Lock()
	delete(w.pending, id)
	w.mutex.Unlock()
}

func (w *WsRpc) Call(ctx context.Context, method string, params interface{}) (*ResponseBody, error) {
	id := w.nextID.Add(1)

	requestData, err := json.Marshal(RequestBody{
		Jsonrpc: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan *ResponseBody, 1)
	w.mutex.Lock()
	w.pending[id] = ch
	w.mutex.Unlock()

	if err := w.wsClient.SendMessage(requestData); err != nil {
		w.forget(id)
		return nil, err
	}

	select {
	case response := <-ch:
		if response.lost {
			return nil, ErrConnectionLost
		}
		if response.Error != nil {
			return nil, response.Error
		}
		return response, nil
	case <-ctx.Done():
		w.forget(id)
		return nil, ctx.Err()
	case <-w.wsClient.Done():
		return nil, ErrClosed
	}
}

func (w *WsRpc) SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	return sendTransaction(ctx, w, from, to, value, data)
}

func (w *WsRpc) ChainId(ctx context.Context) (uint64, error) {
	return chainId(ctx, w)
}

func (w *WsRpc) Close() error {
	return w.wsClient.Close()
}
