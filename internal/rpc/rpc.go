package rpc

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrEmptyResult = errors.New("rpc returned an empty result")

type RequestBody struct {
	Jsonrpc string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type ResponseBody struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`

	// set by WsRpc when the connection dropped before an answer arrived
	lost bool
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// TransactionArgs is the eth_sendTransaction parameter object. The node
// signs with the unlocked from account.
type TransactionArgs struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}

func newTransactionArgs(from, to common.Address, value *big.Int, data []byte) TransactionArgs {
	if value == nil {
		value = new(big.Int)
	}
	return TransactionArgs{From: from, To: to, Value: (*hexutil.Big)(value), Data: data}
}

// caller is implemented by the HTTP and websocket clients.
type caller interface {
	Call(ctx context.Context, method string, params interface{}) (*ResponseBody, error)
}

func sendTransaction(ctx context.Context, c caller, from, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	response, err := c.Call(ctx, "eth_sendTransaction", []interface{}{newTransactionArgs(from, to, value, data)})
	if err != nil {
		return common.Hash{}, err
	}

	var hash common.Hash
	if err := unmarshalResult(response, &hash); err != nil {
		return common.Hash{}, err
	}

	return hash, nil
}

func chainId(ctx context.Context, c caller) (uint64, error) {
	response, err := c.Call(ctx, "eth_chainId", []interface{}{})
	if err != nil {
		return 0, err
	}

	var id hexutil.Uint64
	if err := unmarshalResult(response, &id); err != nil {
		return 0, err
	}

	return uint64(id), nil
}

func unmarshalResult(response *ResponseBody, v interface{}) error {
	if len(response.Result) == 0 || string(response.Result) == "null" {
		return ErrEmptyResult
	}

	if err := json.Unmarshal(response.Result, v); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}

	return nil
}

// Client speaks JSON-RPC over HTTP.
type Client struct {
	url    string
	client *http.Client
	nextID atomic.Uint64
}

func NewClient(url string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{url: url, client: client}
}

func (c *Client) Call(ctx context.Context, method string, params interface{}) (*ResponseBody, error) {
	requestBody := RequestBody{
		Jsonrpc: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s", method, resp.Status)
	}

	var reader io.ReadCloser
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer reader.Close()
	default:
		reader = resp.Body
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var responseBody ResponseBody
	if err := json.Unmarshal(body, &responseBody); err != nil {
		return nil, err
	}

	if responseBody.Error != nil {
		return nil, responseBody.Error
	}

	return &responseBody, nil
}

func (c *Client) SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	return sendTransaction(ctx, c, from, to, value, data)
}

func (c *Client) ChainId(ctx context.Context) (uint64, error) {
	return chainId(ctx, c)
}
