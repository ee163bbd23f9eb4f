package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/suikit/client-sdk-go/utils"
)

func writePackageManifest(t *testing.T, dir string) {
	t.Helper()
	manifest := filepath.Join(dir, utils.ManifestName)
	if err := os.WriteFile(manifest, []byte("[package]\nname = \"demo\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

// rpcHandler 按方法名应答的 JSON-RPC 测试服务
type rpcHandler struct {
	mu      sync.Mutex
	methods map[string]func(params []interface{}) (interface{}, *jsonRPCError)
	served  []string
}

func newRPCServer(t *testing.T) (*rpcHandler, *httptest.Server) {
	t.Helper()
	h := &rpcHandler{methods: map[string]func([]interface{}) (interface{}, *jsonRPCError){}}
	// 健康检查默认可用
	h.handle("suix_getReferenceGasPrice", func([]interface{}) (interface{}, *jsonRPCError) {
		return "1000", nil
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonRPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		h.mu.Lock()
		h.served = append(h.served, req.Method)
		fn := h.methods[req.Method]
		h.mu.Unlock()

		resp := jsonRPCResponse{JSONRPC: "2.0", ID: req.ID}
		if fn == nil {
			resp.Error = &jsonRPCError{Code: -32601, Message: "Method not found"}
		} else {
			params, _ := req.Params.([]interface{})
			result, rpcErr := fn(params)
			if rpcErr != nil {
				resp.Error = rpcErr
			} else {
				resp.Result = result
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return h, server
}

func (h *rpcHandler) handle(method string, fn func([]interface{}) (interface{}, *jsonRPCError)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.methods[method] = fn
}

func (h *rpcHandler) servedCount(method string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.served {
		if m == method {
			n++
		}
	}
	return n
}

func testClientConfig(server *httptest.Server) *Config {
	return &Config{
		JSONRPCEndpoint: server.URL,
		ActiveAddress:   "0x" + strings.Repeat("aa", 32),
		Protocol:        ProtocolJSONRPC,
		Timeout:         5,
	}
}

func TestNewJSONRPCClient_HealthCheck(t *testing.T) {
	h, server := newRPCServer(t)

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	if h.servedCount("suix_getReferenceGasPrice") == 0 {
		t.Error("construction must run a connectivity probe")
	}
	if c.ActiveAddress() != "0x"+strings.Repeat("aa", 32) {
		t.Errorf("wrong active address: %s", c.ActiveAddress())
	}
}

func TestNewJSONRPCClient_HealthCheckFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node down", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewJSONRPCClient(testClientConfig(server))
	var unavail *TransportUnavailableError
	if !errors.As(err, &unavail) {
		t.Fatalf("expected TransportUnavailableError, got %v", err)
	}
	if unavail.Hint != hintJSONRPC {
		t.Errorf("expected JSON-RPC remediation hint, got %q", unavail.Hint)
	}
}

func TestGetAccountBalance_Aggregate(t *testing.T) {
	h, server := newRPCServer(t)
	h.handle("suix_getAllBalances", func(params []interface{}) (interface{}, *jsonRPCError) {
		return []interface{}{
			map[string]interface{}{
				"coinType":        "0x2::sui::SUI",
				"coinObjectCount": 3,
				"totalBalance":    "2500000000",
			},
		}, nil
	})

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	b := c.GetAccountBalance(context.Background())
	if b.Error != "" || b.Note != "" {
		t.Fatalf("unexpected degradation: error=%q note=%q", b.Error, b.Note)
	}
	if b.TotalBalanceMists != 2_500_000_000 {
		t.Errorf("expected 2500000000 mists, got %d", b.TotalBalanceMists)
	}
	if b.TotalBalanceSui != 2.5 {
		t.Errorf("expected 2.5 SUI, got %v", b.TotalBalanceSui)
	}
	// 汇总原语可用时不碰逐对象原语
	if h.servedCount("suix_getCoins") != 0 {
		t.Error("getCoins should not be called when getAllBalances is available")
	}
}

func TestGetAccountBalance_DegradesOnError(t *testing.T) {
	h, server := newRPCServer(t)
	h.handle("suix_getAllBalances", func([]interface{}) (interface{}, *jsonRPCError) {
		return nil, &jsonRPCError{Code: -32000, Message: "Internal error"}
	})

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	b := c.GetAccountBalance(context.Background())
	// 查询失败不抛错，降级为零值结果
	if b == nil {
		t.Fatal("balance result must never be nil")
	}
	if b.TotalBalanceMists != 0 || b.TotalBalanceSui != 0 {
		t.Error("degraded balance must be zero-valued")
	}
	if b.Error == "" {
		t.Error("expected error description in degraded result")
	}
	if b.ActiveAddress == "" {
		t.Error("degraded result keeps the address")
	}
}

func TestGetObjectInfo(t *testing.T) {
	h, server := newRPCServer(t)
	objectID := "0x" + strings.Repeat("bb", 32)
	h.handle("sui_getObject", func(params []interface{}) (interface{}, *jsonRPCError) {
		if len(params) != 2 || params[0] != objectID {
			return nil, &jsonRPCError{Code: -32602, Message: "Invalid params"}
		}
		return map[string]interface{}{
			"data": map[string]interface{}{"objectId": objectID, "version": "5"},
		}, nil
	})

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	info, err := c.GetObjectInfo(context.Background(), objectID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info["data"] == nil {
		t.Error("node-native payload should pass through")
	}
}

func TestGetObjectInfo_ValidatesBeforeTransport(t *testing.T) {
	h, server := newRPCServer(t)

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.GetObjectInfo(context.Background(), "0x2")
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Code != ErrCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	// 校验失败不发请求
	if h.servedCount("sui_getObject") != 0 {
		t.Error("invalid id must be rejected before any transport call")
	}
}

func TestGetTransactionInfo_ValidatesDigest(t *testing.T) {
	h, server := newRPCServer(t)

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.GetTransactionInfo(context.Background(), "not-base58-0OIl")
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Code != ErrCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.servedCount("sui_getTransactionBlock") != 0 {
		t.Error("invalid digest must be rejected before any transport call")
	}
}

func TestGetTransactionInfo(t *testing.T) {
	h, server := newRPCServer(t)
	digest := "8dYhPkCaut8HBWvvcYzLCZzmKYSUGhaseAn5QPV1ogYj"
	h.handle("sui_getTransactionBlock", func(params []interface{}) (interface{}, *jsonRPCError) {
		return map[string]interface{}{"digest": digest, "checkpoint": "123"}, nil
	})

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	info, err := c.GetTransactionInfo(context.Background(), digest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info["digest"] != digest {
		t.Errorf("wrong digest in result: %v", info["digest"])
	}
}

func TestRPCErrorDetailParsing(t *testing.T) {
	h, server := newRPCServer(t)
	objectID := "0x" + strings.Repeat("cc", 32)
	h.handle("sui_getObject", func([]interface{}) (interface{}, *jsonRPCError) {
		return nil, &jsonRPCError{
			Code:    -32000,
			Message: "Internal error",
			Data: map[string]interface{}{
				"code":        "NODE_NOT_FOUND",
				"userMessage": "对象不存在",
				"traceId":     "trace-7",
			},
		}
	})

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.GetObjectInfo(context.Background(), objectID)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
	if rpcErr.Detail == nil {
		t.Fatal("expected structured node error detail")
	}
	if rpcErr.Detail.Code != "NODE_NOT_FOUND" || rpcErr.Detail.TraceID != "trace-7" {
		t.Errorf("detail not parsed: %+v", rpcErr.Detail)
	}
}

func TestDeployContract_ValidatesBeforeTransport(t *testing.T) {
	h, server := newRPCServer(t)

	cfg := testClientConfig(server)
	cfg.Signer = &fakeSigner{signature: "SIG"}
	c, err := NewJSONRPCClient(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.DeployContract(context.Background(), &DeployRequest{PackagePath: "/does/not/exist"})
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Code != ErrCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.servedCount("unsafe_publish") != 0 {
		t.Error("invalid package path must fail before any build request")
	}
}

func TestDeployContract_RequiresSigner(t *testing.T) {
	_, server := newRPCServer(t)

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	dir := t.TempDir()
	// 路径校验先于签名器检查，给它一个带清单的目录
	writePackageManifest(t, dir)

	_, err = c.DeployContract(context.Background(), &DeployRequest{PackagePath: dir})
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Code != ErrCodeValidation {
		t.Fatalf("expected validation error for missing signer, got %v", err)
	}
}

func TestReferenceGasPrice(t *testing.T) {
	_, server := newRPCServer(t)

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	price, err := c.ReferenceGasPrice(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 1000 {
		t.Errorf("expected gas price 1000, got %d", price)
	}
}

func TestSubscribeEvents_RequiresWSEndpoint(t *testing.T) {
	_, server := newRPCServer(t)

	c, err := NewJSONRPCClient(testClientConfig(server))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.SubscribeEvents(context.Background(), nil)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Code != ErrCodeNotSupported {
		t.Fatalf("expected NOT_SUPPORTED error, got %v", err)
	}
}
