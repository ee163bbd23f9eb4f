package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cast"

	"github.com/suikit/client-sdk-go/types"
	"github.com/suikit/client-sdk-go/utils"
)

// jsonrpcMethods 原语 → JSON-RPC 方法名
var jsonrpcMethods = map[Primitive]string{
	PrimitiveGetAllBalances:    "suix_getAllBalances",
	PrimitiveGetCoins:          "suix_getCoins",
	PrimitiveGetObject:         "sui_getObject",
	PrimitiveGetTransaction:    "sui_getTransactionBlock",
	PrimitiveMultiGetTx:        "sui_multiGetTransactionBlocks",
	PrimitiveReferenceGasPrice: "suix_getReferenceGasPrice",
	PrimitiveDryRun:            "sui_dryRunTransactionBlock",
	PrimitiveBuildPublish:      "unsafe_publish",
	PrimitiveBuildMoveCall:     "unsafe_moveCall",
	PrimitiveExecuteTx:         "sui_executeTransactionBlock",
}

// jsonrpcTransport JSON-RPC over HTTP 传输
type jsonrpcTransport struct {
	endpoint string
	client   *http.Client
	logger   Logger
	debug    bool
	nextID   atomic.Uint64
	caps     capabilitySet
}

func newJSONRPCTransport(cfg *Config) *jsonrpcTransport {
	return &jsonrpcTransport{
		endpoint: cfg.JSONRPCEndpoint,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: cfg.logger(),
		debug:  cfg.Debug,
		caps:   jsonrpcCapabilities(),
	}
}

func (t *jsonrpcTransport) protocol() Protocol {
	return ProtocolJSONRPC
}

func (t *jsonrpcTransport) capabilities() capabilitySet {
	return t.caps
}

// execute 通用原语执行通道（原语映射为 JSON-RPC 方法）
func (t *jsonrpcTransport) execute(ctx context.Context, p Primitive, params []interface{}) (interface{}, error) {
	method, ok := jsonrpcMethods[p]
	if !ok {
		return nil, &CapabilityError{Transport: ProtocolJSONRPC, Operation: string(p), Candidates: []Primitive{p}}
	}
	return t.call(ctx, method, params)
}

// referenceGasPrice 轻量连通性探针
func (t *jsonrpcTransport) referenceGasPrice(ctx context.Context) (uint64, error) {
	raw, err := t.call(ctx, jsonrpcMethods[PrimitiveReferenceGasPrice], nil)
	if err != nil {
		return 0, err
	}
	return cast.ToUint64E(raw)
}

func (t *jsonrpcTransport) close() error {
	t.client.CloseIdleConnections()
	return nil
}

// call 发送一次 JSON-RPC 调用
func (t *jsonrpcTransport) call(ctx context.Context, method string, params []interface{}) (interface{}, error) {
	if params == nil {
		params = []interface{}{}
	}
	// 使用原子计数器生成唯一请求 ID
	req := &jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      t.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	if t.debug {
		t.logger.Debug("JSON-RPC request", "method", method, "body", string(reqBody))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}

	if t.debug {
		t.logger.Debug("JSON-RPC response", "status", resp.StatusCode, "body", string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d, body: %s", resp.StatusCode, string(respBody))
	}

	var jsonResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}

	if jsonResp.Error != nil {
		rpcErr := &RPCError{
			Op:      method,
			Code:    jsonResp.Error.Code,
			Message: jsonResp.Error.Message,
		}
		// 节点可能在 data 字段携带结构化错误详情
		errMap := map[string]interface{}{
			"code":    float64(jsonResp.Error.Code),
			"message": jsonResp.Error.Message,
			"data":    jsonResp.Error.Data,
		}
		if detail, detailErr := types.ParseNodeErrorDetail(errMap); detailErr == nil {
			rpcErr.Detail = types.NewNodeErrorFromDetail(detail)
		}
		return nil, rpcErr
	}

	return jsonResp.Result, nil
}

// jsonRPCRequest JSON-RPC 请求结构
type jsonRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      uint64      `json:"id"`
}

// jsonRPCResponse JSON-RPC 响应结构
type jsonRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *jsonRPCError `json:"error,omitempty"`
	ID      uint64        `json:"id"`
}

// jsonRPCError JSON-RPC 错误结构
type jsonRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSONRPCClient JSON-RPC 协议客户端
type JSONRPCClient struct {
	cfg     *Config
	t       *jsonrpcTransport
	builder *txBuilder
	logger  Logger
	ws      *wsSubscriber
}

var _ SuiClient = (*JSONRPCClient)(nil)

// NewJSONRPCClient 创建 JSON-RPC 客户端
//
// 构造流程：补全配置 → 建传输 → 健康检查。健康检查失败即构造失败。
func NewJSONRPCClient(cfg *Config) (*JSONRPCClient, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	t := newJSONRPCTransport(resolved)
	logger := resolved.logger()
	logger.Info("connecting to Sui node", "protocol", ProtocolJSONRPC, "endpoint", resolved.JSONRPCEndpoint)
	logger.Info("active address", "address", resolved.ActiveAddress)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(resolved.Timeout)*time.Second)
	defer cancel()
	if err := checkConnection(ctx, t, logger); err != nil {
		return nil, err
	}

	return &JSONRPCClient{
		cfg:    resolved,
		t:      t,
		logger: logger,
		builder: &txBuilder{
			build:  t,
			exec:   t,
			sender: resolved.ActiveAddress,
			signer: resolved.Signer,
			logger: logger,
		},
	}, nil
}

// ActiveAddress 返回活跃地址
func (c *JSONRPCClient) ActiveAddress() string {
	return c.cfg.ActiveAddress
}

// ReferenceGasPrice 查询当前参考 gas 价格
func (c *JSONRPCClient) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	return c.t.referenceGasPrice(ctx)
}

// GetAccountBalance 查询活跃地址的 SUI 余额
//
// 永不返回错误：查询失败时返回带 Error 字段的零值结果，
// 无可用原语时返回带 Note 字段的零值结果。
func (c *JSONRPCClient) GetAccountBalance(ctx context.Context) *types.AccountBalance {
	address := c.cfg.ActiveAddress

	// 1. 探测可用的余额原语（汇总优先）
	prim, err := probe(c.t.capabilities(), ProtocolJSONRPC, "get_account_balance", balancePrimitives)
	if err != nil {
		c.logger.Warn("no balance primitive available", "error", err)
		return types.DegradedBalance(address, "", err.Error())
	}

	// 2. 执行并装配
	switch prim {
	case PrimitiveGetAllBalances:
		raw, err := c.t.execute(ctx, prim, []interface{}{address})
		if err != nil {
			c.logger.Error("balance query failed", "primitive", prim, "error", err)
			return types.DegradedBalance(address, err.Error(), "")
		}
		items, ok := raw.([]interface{})
		if !ok {
			return types.DegradedBalance(address, fmt.Sprintf("unexpected %s response shape", prim), "")
		}
		balance := assembleAggregateBalance(address, toStringMapSlice(items), "coinObjectCount", "totalBalance")
		c.logger.Info("account balance", "sui", balance.TotalBalanceSui)
		return balance

	case PrimitiveGetCoins:
		raw, err := c.t.execute(ctx, prim, []interface{}{address, types.SuiCoinType, nil, nil})
		if err != nil {
			c.logger.Error("balance query failed", "primitive", prim, "error", err)
			return types.DegradedBalance(address, err.Error(), "")
		}
		page, err := cast.ToStringMapE(raw)
		if err != nil {
			return types.DegradedBalance(address, fmt.Sprintf("unexpected %s response shape", prim), "")
		}
		balance := assemblePerObjectBalance(address, toStringMapSlice(page["data"]), "coinObjectId")
		c.logger.Info("account balance", "sui", balance.TotalBalanceSui)
		return balance
	}

	return types.DegradedBalance(address, "", "no balance primitive matched")
}

// DeployContract 部署 Move 包
//
// VALIDATE → BUILD → ESTIMATE(尽力) → SUBMIT_AND_NORMALIZE，
// 对调用方原子：要么完整结果，要么错误，不返回部分结果。
func (c *JSONRPCClient) DeployContract(ctx context.Context, req *DeployRequest) (*types.DeploymentResult, error) {
	if req == nil {
		return nil, validationError("nil deploy request", nil)
	}
	c.logger.Info("deploying package", "path", req.PackagePath)

	// 1. VALIDATE：包路径与清单，任何网络交互之前
	if err := utils.ValidatePackagePath(req.PackagePath); err != nil {
		return nil, validationError("invalid package path", err)
	}
	if c.cfg.Signer == nil {
		return nil, validationError("deploy requires a Signer in config", nil)
	}

	// 2. BUILD：调起编译器，节点侧组装发布交易（UpgradeCap 转给发送者）
	pkg, err := utils.BuildPackage(ctx, c.cfg.MoveBinary, req.PackagePath, req.BuildArgs)
	if err != nil {
		return nil, fmt.Errorf("deploy_contract: %w", err)
	}
	txBytes, err := c.builder.publish(ctx, pkg, budgetOrDefault(req.GasBudget))
	if err != nil {
		return nil, fmt.Errorf("deploy_contract: %w", err)
	}

	// 3. ESTIMATE：费用估算只做参考，失败记日志后继续
	c.builder.inspectForCost(ctx, txBytes)

	// 4. SUBMIT_AND_NORMALIZE
	c.logger.Info("submitting publish transaction")
	tagged, err := c.builder.executeSigned(ctx, txBytes)
	if err != nil {
		return nil, fmt.Errorf("deploy_contract: %w", err)
	}
	data, err := normalizeResult(tagged, "deploy_contract")
	if err != nil {
		return nil, err
	}

	result := extractDeployment(data)
	c.logger.Info("package deployed",
		"packageId", result.PackageID,
		"upgradeCapId", result.UpgradeCapID,
		"txHash", result.TransactionHash)
	return result, nil
}

// CallContractFunction 调用合约函数
func (c *JSONRPCClient) CallContractFunction(ctx context.Context, req *CallRequest) (*types.FunctionCallResult, error) {
	if req == nil {
		return nil, validationError("nil call request", nil)
	}
	if c.cfg.Signer == nil {
		return nil, validationError("call requires a Signer in config", nil)
	}
	c.logger.Info("calling contract function",
		"target", fmt.Sprintf("%s::%s::%s", req.PackageID, req.ModuleName, req.FunctionName))

	// 1. BUILD：参数按形状分类编码后交给节点侧构建
	args := marshalCallArgs(req.Arguments)
	txBytes, err := c.builder.moveCall(ctx, req.PackageID, req.ModuleName, req.FunctionName,
		args, req.TypeArguments, budgetOrDefault(req.GasBudget))
	if err != nil {
		return nil, fmt.Errorf("call_contract_function: %w", err)
	}

	// 2. ESTIMATE：尽力而为
	c.builder.inspectForCost(ctx, txBytes)

	// 3. SUBMIT_AND_NORMALIZE
	c.logger.Info("submitting move call transaction")
	tagged, err := c.builder.executeSigned(ctx, txBytes)
	if err != nil {
		return nil, fmt.Errorf("call_contract_function: %w", err)
	}
	data, err := normalizeResult(tagged, "call_contract_function")
	if err != nil {
		return nil, err
	}

	result := extractCall(data)
	c.logger.Info("contract function called", "txHash", result.TransactionHash)
	return result, nil
}

// GetObjectInfo 查询对象信息（保持节点原生字段，不再归一化）
func (c *JSONRPCClient) GetObjectInfo(ctx context.Context, objectID string) (map[string]interface{}, error) {
	if err := utils.ValidateObjectID(objectID); err != nil {
		return nil, validationError("invalid object id", err)
	}

	prim, err := probe(c.t.capabilities(), ProtocolJSONRPC, "get_object_info", objectPrimitives)
	if err != nil {
		return nil, err
	}

	options := map[string]interface{}{"showType": true, "showContent": true, "showOwner": true}
	raw, err := c.t.execute(ctx, prim, []interface{}{objectID, options})
	if err != nil {
		return nil, err
	}
	return normalizePayload(raw, "get_object_info")
}

// GetTransactionInfo 查询交易信息（保持节点原生字段）
func (c *JSONRPCClient) GetTransactionInfo(ctx context.Context, digest string) (map[string]interface{}, error) {
	if err := utils.ValidateTxDigest(digest); err != nil {
		return nil, validationError("invalid transaction digest", err)
	}

	prim, err := probe(c.t.capabilities(), ProtocolJSONRPC, "get_transaction_info", txPrimitives)
	if err != nil {
		return nil, err
	}

	options := map[string]interface{}{
		"showInput":         true,
		"showEffects":       true,
		"showEvents":        true,
		"showObjectChanges": true,
	}

	switch prim {
	case PrimitiveGetTransaction:
		raw, err := c.t.execute(ctx, prim, []interface{}{digest, options})
		if err != nil {
			return nil, err
		}
		return normalizePayload(raw, "get_transaction_info")
	case PrimitiveMultiGetTx:
		raw, err := c.t.execute(ctx, prim, []interface{}{[]string{digest}, options})
		if err != nil {
			return nil, err
		}
		// 批量原语返回数组，取第一条
		if items, ok := raw.([]interface{}); ok && len(items) > 0 {
			return normalizePayload(items[0], "get_transaction_info")
		}
		return nil, &RPCError{Op: "get_transaction_info", Message: "transaction not found: " + digest}
	}

	return nil, &CapabilityError{Transport: ProtocolJSONRPC, Operation: "get_transaction_info", Candidates: txPrimitives}
}

// SubscribeEvents 订阅链上事件（需要配置 WSEndpoint）
func (c *JSONRPCClient) SubscribeEvents(ctx context.Context, filter map[string]interface{}) (<-chan map[string]interface{}, error) {
	if c.cfg.WSEndpoint == "" {
		return nil, &Error{Code: ErrCodeNotSupported, Message: "event subscription requires Config.WSEndpoint"}
	}
	if c.ws == nil {
		ws, err := newWSSubscriber(c.cfg)
		if err != nil {
			return nil, err
		}
		c.ws = ws
	}
	return c.ws.subscribeEvents(ctx, filter)
}

// Close 关闭连接
func (c *JSONRPCClient) Close() error {
	if c.ws != nil {
		c.ws.close()
	}
	return c.t.close()
}

func budgetOrDefault(budget uint64) uint64 {
	if budget > 0 {
		return budget
	}
	return DefaultGasBudget
}
