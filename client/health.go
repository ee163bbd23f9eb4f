package client

import (
	"context"
	"fmt"

	"github.com/spf13/cast"
)

// 健康检查失败时的修复提示（按传输区分）
const (
	hintJSONRPC = "check that the node endpoint is reachable and serves JSON-RPC"
	hintGRPC    = "check network/certificates and that the full node has gRPC indexing enabled (fullnode.yaml: rpc.enable-indexing: true)"
)

// checkConnection 构造期连通性检查
//
// 在构造函数返回前执行一次：
// (a) 先走传输的轻量参考值读取；
// (b) 不可用时，若 getReferenceGasPrice 原语存在，则通过通用执行通道发一个只读探针。
// 两者都失败时返回 TransportUnavailableError（致命，不重试）。
func checkConnection(ctx context.Context, t transport, logger Logger) error {
	// 方案1：传输直接暴露的参考值
	gasPrice, err := t.referenceGasPrice(ctx)
	if err == nil {
		logger.Info("connection check passed", "transport", t.protocol(), "referenceGasPrice", gasPrice)
		return nil
	}
	lastErr := err

	// 方案2：通用执行通道上的只读探针
	if t.capabilities().Supports(PrimitiveReferenceGasPrice) {
		raw, err := t.execute(ctx, PrimitiveReferenceGasPrice, nil)
		if err == nil {
			if price, castErr := cast.ToUint64E(raw); castErr == nil {
				logger.Info("connection check passed", "transport", t.protocol(), "referenceGasPrice", price)
				return nil
			}
			logger.Info("connection check passed", "transport", t.protocol())
			return nil
		}
		lastErr = err
	}

	return &TransportUnavailableError{
		Transport: t.protocol(),
		Hint:      hintFor(t.protocol()),
		Cause:     fmt.Errorf("connection check failed: %w", lastErr),
	}
}

func hintFor(p Protocol) string {
	if p == ProtocolGRPC {
		return hintGRPC
	}
	return hintJSONRPC
}
