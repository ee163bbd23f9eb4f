package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/suikit/client-sdk-go/types"
	"github.com/suikit/client-sdk-go/utils"
)

// jsonCodecName gRPC JSON 编解码器名（application/grpc+json）
const jsonCodecName = "json"

// jsonMessage JSON 编码的 gRPC 消息体
type jsonMessage []byte

// jsonCodec 基于 JSON 的 gRPC 编解码器
//
// SDK 不携带生成的 protobuf 桩代码，节点的 gRPC 服务按 JSON 子类型调用，
// 协议细节保持在不透明服务边界之外。
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	if m, ok := v.(*jsonMessage); ok {
		return *m, nil
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if m, ok := v.(*jsonMessage); ok {
		*m = append((*m)[:0], data...)
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// grpcMethods 原语 → gRPC 完整方法名
var grpcMethods = map[Primitive]string{
	PrimitiveGetAllBalances:    "/sui.rpc.v2beta2.LiveDataService/ListBalances",
	PrimitiveGetCoins:          "/sui.rpc.v2beta2.LiveDataService/ListOwnedObjects",
	PrimitiveGetObject:         "/sui.rpc.v2beta2.LedgerService/GetObject",
	PrimitiveGetTransaction:    "/sui.rpc.v2beta2.LedgerService/GetTransaction",
	PrimitiveReferenceGasPrice: "/sui.rpc.v2beta2.LedgerService/GetServiceInfo",
	PrimitiveExecuteTx:         "/sui.rpc.v2beta2.TransactionExecutionService/ExecuteTransaction",
}

// dialStrategy 一种 gRPC 连接构造方式
type dialStrategy struct {
	name  string
	creds func(cfg *Config) (credentials.TransportCredentials, error)
}

// dialStrategies 按顺序返回待尝试的构造方式
//
// 显式 TLS 配置优先；否则先试系统根证书的 TLS（托管节点），
// 再退到明文连接（本地节点）。顺序是字面量列表，不做反射探测。
func dialStrategies(cfg *Config) []dialStrategy {
	if cfg.TLS != nil {
		if cfg.TLS.CAFile != "" {
			return []dialStrategy{{
				name: "tls-ca-file",
				creds: func(cfg *Config) (credentials.TransportCredentials, error) {
					return credentials.NewClientTLSFromFile(cfg.TLS.CAFile, "")
				},
			}}
		}
		if cfg.TLS.Insecure {
			return []dialStrategy{{
				name: "tls-skip-verify",
				creds: func(*Config) (credentials.TransportCredentials, error) {
					return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
				},
			}}
		}
	}
	return []dialStrategy{
		{
			name: "tls-system-roots",
			creds: func(*Config) (credentials.TransportCredentials, error) {
				return credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}), nil
			},
		},
		{
			name: "plaintext",
			creds: func(*Config) (credentials.TransportCredentials, error) {
				return insecure.NewCredentials(), nil
			},
		},
	}
}

// grpcTransport gRPC 传输
type grpcTransport struct {
	conn     *grpc.ClientConn
	endpoint string
	logger   Logger
	debug    bool
	caps     capabilitySet
}

// dialGRPC 按策略顺序建立 gRPC 连接，累积各策略的失败原因
func dialGRPC(ctx context.Context, cfg *Config, endpoint string) (*grpc.ClientConn, error) {
	var failures []string
	for _, strategy := range dialStrategies(cfg) {
		creds, err := strategy.creds(cfg)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", strategy.name, err))
			continue
		}
		conn, err := grpc.DialContext(ctx, endpoint,
			grpc.WithTransportCredentials(creds),
			grpc.WithBlock(),
			grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
		)
		if err == nil {
			cfg.logger().Debug("gRPC connected", "strategy", strategy.name, "endpoint", endpoint)
			return conn, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", strategy.name, err))
	}
	return nil, fmt.Errorf("all dial strategies failed: %s", strings.Join(failures, "; "))
}

func (t *grpcTransport) protocol() Protocol {
	return ProtocolGRPC
}

func (t *grpcTransport) capabilities() capabilitySet {
	return t.caps
}

// execute 通用原语执行通道；params[0] 为请求对象
func (t *grpcTransport) execute(ctx context.Context, p Primitive, params []interface{}) (interface{}, error) {
	method, ok := grpcMethods[p]
	if !ok {
		return nil, &CapabilityError{Transport: ProtocolGRPC, Operation: string(p), Candidates: []Primitive{p}}
	}

	req := map[string]interface{}{}
	if len(params) > 0 {
		if m, err := cast.ToStringMapE(params[0]); err == nil {
			req = m
		}
	}
	return t.invoke(ctx, method, req)
}

// invoke 以 JSON 子类型调用一个 unary 方法
func (t *grpcTransport) invoke(ctx context.Context, fullMethod string, req map[string]interface{}) (interface{}, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}
	if t.debug {
		t.logger.Debug("gRPC request", "method", fullMethod, "body", string(reqBody))
	}

	in := jsonMessage(reqBody)
	var out jsonMessage
	if err := t.conn.Invoke(ctx, fullMethod, &in, &out); err != nil {
		st := status.Convert(err)
		return nil, &RPCError{
			Op:      fullMethod,
			Code:    int(st.Code()),
			Message: st.Message(),
		}
	}

	if t.debug {
		t.logger.Debug("gRPC response", "method", fullMethod, "body", string(out))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	return result, nil
}

// referenceGasPrice 经 GetServiceInfo 读取参考 gas 价格
func (t *grpcTransport) referenceGasPrice(ctx context.Context) (uint64, error) {
	raw, err := t.invoke(ctx, grpcMethods[PrimitiveReferenceGasPrice], map[string]interface{}{})
	if err != nil {
		return 0, err
	}
	info, err := cast.ToStringMapE(raw)
	if err != nil {
		return 0, err
	}
	return cast.ToUint64E(info["referenceGasPrice"])
}

func (t *grpcTransport) close() error {
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

// GRPCClient gRPC 协议客户端
//
// 交易构建走混合路径：配置了 JSON-RPC 端点时，交易字节经 JSON-RPC
// 构建原语生成、经 gRPC 提交；没有 JSON-RPC 端点时部署/调用报
// CapabilityError（gRPC Beta 接口无节点侧构建）。
type GRPCClient struct {
	cfg     *Config
	t       *grpcTransport
	builder *txBuilder
	logger  Logger
}

var _ SuiClient = (*GRPCClient)(nil)

// NewGRPCClient 创建 gRPC 客户端
func NewGRPCClient(cfg *Config) (*GRPCClient, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	if resolved.GRPCEndpoint == "" {
		return nil, &TransportUnavailableError{
			Transport: ProtocolGRPC,
			Hint:      "set Config.GRPCEndpoint or add a grpc url to the sui client.yaml env",
		}
	}
	logger := resolved.logger()

	// 移除 URL 协议前缀，gRPC 端点只要 host:port
	endpoint := resolved.GRPCEndpoint
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	logger.Info("connecting to Sui node", "protocol", ProtocolGRPC, "endpoint", endpoint)
	logger.Info("active address", "address", resolved.ActiveAddress)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(resolved.Timeout)*time.Second)
	defer cancel()

	conn, err := dialGRPC(ctx, resolved, endpoint)
	if err != nil {
		return nil, &TransportUnavailableError{
			Transport: ProtocolGRPC,
			Hint:      hintGRPC,
			Cause:     err,
		}
	}

	hybridBuild := resolved.JSONRPCEndpoint != ""
	t := &grpcTransport{
		conn:     conn,
		endpoint: endpoint,
		logger:   logger,
		debug:    resolved.Debug,
		caps:     grpcCapabilities(hybridBuild),
	}

	if err := checkConnection(ctx, t, logger); err != nil {
		t.close()
		return nil, err
	}

	builder := &txBuilder{
		build:  t,
		exec:   t,
		sender: resolved.ActiveAddress,
		signer: resolved.Signer,
		logger: logger,
	}
	if hybridBuild {
		builder.build = newJSONRPCTransport(resolved)
	}

	return &GRPCClient{
		cfg:     resolved,
		t:       t,
		builder: builder,
		logger:  logger,
	}, nil
}

// ActiveAddress 返回活跃地址
func (c *GRPCClient) ActiveAddress() string {
	return c.cfg.ActiveAddress
}

// ReferenceGasPrice 查询当前参考 gas 价格
func (c *GRPCClient) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	return c.t.referenceGasPrice(ctx)
}

// GetAccountBalance 查询活跃地址的 SUI 余额（gRPC）
//
// 语义与 JSON-RPC 客户端一致：失败降级为零值结果，不抛错。
func (c *GRPCClient) GetAccountBalance(ctx context.Context) *types.AccountBalance {
	address := c.cfg.ActiveAddress

	prim, err := probe(c.t.capabilities(), ProtocolGRPC, "get_account_balance", balancePrimitives)
	if err != nil {
		c.logger.Warn("no balance primitive available", "error", err)
		return types.DegradedBalance(address, "", err.Error())
	}

	switch prim {
	case PrimitiveGetAllBalances:
		raw, err := c.t.execute(ctx, prim, []interface{}{map[string]interface{}{"owner": address}})
		if err != nil {
			c.logger.Error("balance query failed", "primitive", prim, "error", err)
			return types.DegradedBalance(address, err.Error(), "")
		}
		page, err := cast.ToStringMapE(raw)
		if err != nil {
			return types.DegradedBalance(address, fmt.Sprintf("unexpected %s response shape", prim), "")
		}
		balance := assembleAggregateBalance(address, toStringMapSlice(page["balances"]), "coinObjectCount", "balance")
		c.logger.Info("account balance", "sui", balance.TotalBalanceSui)
		return balance

	case PrimitiveGetCoins:
		req := map[string]interface{}{
			"owner":      address,
			"objectType": "0x2::coin::Coin<" + types.SuiCoinType + ">",
		}
		raw, err := c.t.execute(ctx, prim, []interface{}{req})
		if err != nil {
			c.logger.Error("balance query failed", "primitive", prim, "error", err)
			return types.DegradedBalance(address, err.Error(), "")
		}
		page, err := cast.ToStringMapE(raw)
		if err != nil {
			return types.DegradedBalance(address, fmt.Sprintf("unexpected %s response shape", prim), "")
		}
		balance := assemblePerObjectBalance(address, toStringMapSlice(page["objects"]), "objectId")
		c.logger.Info("account balance", "sui", balance.TotalBalanceSui)
		return balance
	}

	return types.DegradedBalance(address, "", "no balance primitive matched")
}

// DeployContract 部署 Move 包（gRPC 提交）
func (c *GRPCClient) DeployContract(ctx context.Context, req *DeployRequest) (*types.DeploymentResult, error) {
	if req == nil {
		return nil, validationError("nil deploy request", nil)
	}
	c.logger.Info("deploying package", "path", req.PackagePath)

	// 1. VALIDATE
	if err := utils.ValidatePackagePath(req.PackagePath); err != nil {
		return nil, validationError("invalid package path", err)
	}
	if c.cfg.Signer == nil {
		return nil, validationError("deploy requires a Signer in config", nil)
	}

	// 2. BUILD（混合路径：字节经 JSON-RPC 构建）
	pkg, err := utils.BuildPackage(ctx, c.cfg.MoveBinary, req.PackagePath, req.BuildArgs)
	if err != nil {
		return nil, fmt.Errorf("deploy_contract: %w", err)
	}
	txBytes, err := c.builder.publish(ctx, pkg, budgetOrDefault(req.GasBudget))
	if err != nil {
		return nil, fmt.Errorf("deploy_contract: %w", err)
	}

	// 3. ESTIMATE（尽力）
	c.builder.inspectForCost(ctx, txBytes)

	// 4. SUBMIT_AND_NORMALIZE（gRPC 提交）
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

// CallContractFunction 调用合约函数（gRPC 提交）
func (c *GRPCClient) CallContractFunction(ctx context.Context, req *CallRequest) (*types.FunctionCallResult, error) {
	if req == nil {
		return nil, validationError("nil call request", nil)
	}
	if c.cfg.Signer == nil {
		return nil, validationError("call requires a Signer in config", nil)
	}
	c.logger.Info("calling contract function",
		"target", fmt.Sprintf("%s::%s::%s", req.PackageID, req.ModuleName, req.FunctionName))

	args := marshalCallArgs(req.Arguments)
	txBytes, err := c.builder.moveCall(ctx, req.PackageID, req.ModuleName, req.FunctionName,
		args, req.TypeArguments, budgetOrDefault(req.GasBudget))
	if err != nil {
		return nil, fmt.Errorf("call_contract_function: %w", err)
	}

	c.builder.inspectForCost(ctx, txBytes)

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

// GetObjectInfo 查询对象信息（gRPC，保持节点原生字段）
func (c *GRPCClient) GetObjectInfo(ctx context.Context, objectID string) (map[string]interface{}, error) {
	if err := utils.ValidateObjectID(objectID); err != nil {
		return nil, validationError("invalid object id", err)
	}

	prim, err := probe(c.t.capabilities(), ProtocolGRPC, "get_object_info", objectPrimitives)
	if err != nil {
		return nil, err
	}

	req := map[string]interface{}{
		"objectId": objectID,
		"readMask": map[string]interface{}{
			"paths": []string{"object_id", "version", "digest", "owner", "object_type", "contents"},
		},
	}
	raw, err := c.t.execute(ctx, prim, []interface{}{req})
	if err != nil {
		return nil, err
	}
	return normalizePayload(raw, "get_object_info")
}

// GetTransactionInfo 查询交易信息（gRPC，保持节点原生字段）
func (c *GRPCClient) GetTransactionInfo(ctx context.Context, digest string) (map[string]interface{}, error) {
	if err := utils.ValidateTxDigest(digest); err != nil {
		return nil, validationError("invalid transaction digest", err)
	}

	prim, err := probe(c.t.capabilities(), ProtocolGRPC, "get_transaction_info", txPrimitives)
	if err != nil {
		return nil, err
	}

	req := map[string]interface{}{
		"digest": digest,
		"readMask": map[string]interface{}{
			"paths": []string{"digest", "transaction", "effects", "events"},
		},
	}
	raw, err := c.t.execute(ctx, prim, []interface{}{req})
	if err != nil {
		return nil, err
	}
	return normalizePayload(raw, "get_transaction_info")
}

// Close 关闭连接
func (c *GRPCClient) Close() error {
	if c.builder != nil && c.builder.build != c.builder.exec {
		c.builder.build.close()
	}
	return c.t.close()
}
