package client

import "context"

// transport 底层协议通道
//
// JSON-RPC 与 gRPC 各实现一份；能力探测、健康检查与各逻辑操作
// 都只通过这层访问网络。
type transport interface {
	protocol() Protocol

	// capabilities 该传输实际暴露的原语表（按传输类型静态确定）
	capabilities() capabilitySet

	// execute 通用的原语执行通道
	execute(ctx context.Context, p Primitive, params []interface{}) (interface{}, error)

	// referenceGasPrice 直接读取参考 gas 价格（健康检查的轻量探针）
	referenceGasPrice(ctx context.Context) (uint64, error)

	close() error
}
