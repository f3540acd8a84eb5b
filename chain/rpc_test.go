package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	json "github.com/goccy/go-json"

	"lending-deploy/connpool"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

// fakeNode answers JSON-RPC calls from a handler per method.
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]func(params []json.RawMessage) (interface{}, error)
	calls    map[string]int
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		handlers: make(map[string]func([]json.RawMessage) (interface{}, error)),
		calls:    make(map[string]int),
	}
}

func (n *fakeNode) handle(method string, h func(params []json.RawMessage) (interface{}, error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

func (n *fakeNode) result(method string, v interface{}) {
	n.handle(method, func([]json.RawMessage) (interface{}, error) { return v, nil })
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	h, ok := n.handlers[req.Method]
	n.calls[req.Method]++
	n.mu.Unlock()

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if !ok {
		resp.Error = &rpcError{Code: -32601, Message: "method not found: " + req.Method}
	} else if res, err := h(req.Params); err != nil {
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	} else {
		resp.Result = res
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *fakeNode) pool(t *testing.T) *connpool.EvmPool {
	t.Helper()

	srv := httptest.NewServer(n)
	t.Cleanup(srv.Close)

	p := connpool.NewEvmPool(context.Background(), srv.URL, 2)
	t.Cleanup(p.Close)

	return p
}

// callData extracts the calldata of an eth_call or eth_estimateGas request.
func callData(params []json.RawMessage) ([]byte, error) {
	if len(params) == 0 {
		return nil, errors.New("missing call argument")
	}

	var arg struct {
		Data  string `json:"data"`
		Input string `json:"input"`
	}
	if err := json.Unmarshal(params[0], &arg); err != nil {
		return nil, err
	}

	raw := arg.Input
	if raw == "" {
		raw = arg.Data
	}

	return hex.DecodeString(strings.TrimPrefix(raw, "0x"))
}

// handleTimelockCalls answers eth_call for the view methods of the timelock ABI.
func (n *fakeNode) handleTimelockCalls(delay, grace int64, queued bool) {
	n.handle("eth_call", func(params []json.RawMessage) (interface{}, error) {
		data, err := callData(params)
		if err != nil {
			return nil, err
		}
		if len(data) < 4 {
			return nil, errors.New("short calldata")
		}
		method, err := timelockAbi.MethodById(data[:4])
		if err != nil {
			return nil, err
		}

		var out []byte
		switch method.Name {
		case methodDelay:
			out, err = method.Outputs.Pack(big.NewInt(delay))
		case methodGracePeriod:
			out, err = method.Outputs.Pack(big.NewInt(grace))
		case methodQueuedTransactions:
			out, err = method.Outputs.Pack(queued)
		default:
			return nil, fmt.Errorf("unexpected call %s", method.Name)
		}
		if err != nil {
			return nil, err
		}

		return hexutil.Encode(out), nil
	})
}
