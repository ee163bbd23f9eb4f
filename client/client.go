package client

import (
	"context"
	"fmt"

	"github.com/suikit/client-sdk-go/types"
)

// SuiClient Sui 节点客户端统一接口
//
// JSON-RPC 与 gRPC 两种实现行为等价：同一操作、同一输入在两种
// 协议下产生字段级等价的结果（节点原生字段名除外）。
type SuiClient interface {
	// ActiveAddress 返回签名和查询使用的活跃地址
	ActiveAddress() string

	// GetAccountBalance 查询活跃地址的 SUI 余额；永不返回错误，
	// 查询失败时降级为零值结果并在 Error/Note 字段说明原因
	GetAccountBalance(ctx context.Context) *types.AccountBalance

	// DeployContract 构建并部署本地 Move 包
	DeployContract(ctx context.Context, req *DeployRequest) (*types.DeploymentResult, error)

	// CallContractFunction 调用链上合约函数
	CallContractFunction(ctx context.Context, req *CallRequest) (*types.FunctionCallResult, error)

	// GetObjectInfo 查询对象元数据与内容
	GetObjectInfo(ctx context.Context, objectID string) (map[string]interface{}, error)

	// GetTransactionInfo 查询交易详情
	GetTransactionInfo(ctx context.Context, digest string) (map[string]interface{}, error)

	// ReferenceGasPrice 查询当前纪元的参考 gas 价格
	ReferenceGasPrice(ctx context.Context) (uint64, error)

	// Close 释放连接资源
	Close() error
}

// DeployRequest 合约部署请求
type DeployRequest struct {
	// PackagePath 包含 Move.toml 的 Move 包目录
	PackagePath string
	// GasBudget gas 预算（mists），0 用默认值
	GasBudget uint64
	// BuildArgs 传给 sui move build 的附加参数
	BuildArgs []string
}

// CallRequest 合约函数调用请求
type CallRequest struct {
	PackageID    string
	ModuleName   string
	FunctionName string
	// Arguments 原生 Go 值，按启发式规则映射为链上参数
	Arguments []interface{}
	// TypeArguments Move 类型参数
	TypeArguments []string
	// GasBudget gas 预算（mists），0 用默认值
	GasBudget uint64
}

// NewClient 按配置的协议创建客户端
//
// Protocol 为 auto 时先尝试 gRPC，失败则记录警告并回退 JSON-RPC；
// 两者都失败才返回错误。显式指定协议时不回退。
func NewClient(cfg *Config) (SuiClient, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Protocol {
	case ProtocolJSONRPC:
		return NewJSONRPCClient(cfg)
	case ProtocolGRPC:
		return NewGRPCClient(cfg)
	case ProtocolAuto, "":
		grpcClient, grpcErr := NewGRPCClient(cfg)
		if grpcErr == nil {
			return grpcClient, nil
		}
		cfg.logger().Warn("gRPC unavailable, falling back to JSON-RPC", "error", grpcErr)
		jsonClient, jsonErr := NewJSONRPCClient(cfg)
		if jsonErr != nil {
			return nil, &Error{
				Code:    ErrCodeConnection,
				Message: fmt.Sprintf("both protocols unavailable (grpc: %v)", grpcErr),
				Err:     jsonErr,
			}
		}
		return jsonClient, nil
	default:
		return nil, validationError(fmt.Sprintf("unsupported protocol %q", cfg.Protocol), nil)
	}
}
