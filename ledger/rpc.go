package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// RPCConfig holds the connection parameters for a remote token ledger.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// RPCLedger is a JSON-RPC client for a token ledger service. It speaks the
// token interface methods "balance", "allowance", "transfer_from" and
// "transfer", passing addresses in their Base58Check form.
type RPCLedger struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// Compile-time interface check.
var _ TokenLedger = (*RPCLedger)(nil)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRPCLedger creates a ledger client for the service at cfg.URL.
// HTTP Basic Auth is used when cfg.User is non-empty.
func NewRPCLedger(cfg RPCConfig) *RPCLedger {
	return &RPCLedger{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// BalanceOf calls "balance".
func (c *RPCLedger) BalanceOf(ctx context.Context, addr Address) (int64, error) {
	var bal int64
	if err := c.call(ctx, "balance", []interface{}{addr}, &bal); err != nil {
		return 0, err
	}
	return bal, nil
}

// Allowance calls "allowance".
func (c *RPCLedger) Allowance(ctx context.Context, owner, spender Address) (int64, error) {
	var allowed int64
	if err := c.call(ctx, "allowance", []interface{}{owner, spender}, &allowed); err != nil {
		return 0, err
	}
	return allowed, nil
}

// TransferFrom calls "transfer_from".
func (c *RPCLedger) TransferFrom(ctx context.Context, spender, owner, recipient Address, amount int64) error {
	return c.call(ctx, "transfer_from", []interface{}{spender, owner, recipient, amount}, nil)
}

// Transfer calls "transfer".
func (c *RPCLedger) Transfer(ctx context.Context, from, to Address, amount int64) error {
	return c.call(ctx, "transfer", []interface{}{from, to, amount}, nil)
}

// call invokes a JSON-RPC method and decodes the result into result.
// A nil result discards the response payload.
func (c *RPCLedger) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("ledger: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ledger: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}
	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d",
			ErrInvalidResponse, reqBody.ID, rpcResp.ID)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("ledger: %s: rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}
	return nil
}
