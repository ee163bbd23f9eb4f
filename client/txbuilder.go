package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/spf13/cast"
)

// DefaultGasBudget 未显式指定时的 gas 预算（mists）
const DefaultGasBudget uint64 = 50_000_000

// txBuilder 交易组装与提交
//
// 构建（节点侧生成交易字节）走 JSON-RPC 的 unsafe_ 构建原语；
// 提交走 exec 传输——JSON-RPC 路径构建与提交同通道，gRPC 路径
// 构建仍经 JSON-RPC、提交经 gRPC（混合构建）。
type txBuilder struct {
	build  transport
	exec   transport
	sender string
	signer Signer
	logger Logger
}

// publish 组装发布交易，返回 base64 交易字节
//
// 节点侧构建的发布交易会把 UpgradeCap 转移给发送者，
// 部署者始终持有升级权。
func (b *txBuilder) publish(ctx context.Context, pkg publishPayload, gasBudget uint64) (string, error) {
	if _, err := probe(b.build.capabilities(), b.build.protocol(), "publish", publishPrimitives); err != nil {
		return "", err
	}

	params := []interface{}{
		b.sender,
		pkg.CompiledModules(),
		pkg.DependencyIDs(),
		nil, // gas 对象由节点挑选
		strconv.FormatUint(gasBudget, 10),
	}
	raw, err := b.build.execute(ctx, PrimitiveBuildPublish, params)
	if err != nil {
		return "", fmt.Errorf("build publish transaction failed: %w", err)
	}
	return txBytesFrom(raw)
}

// moveCall 组装合约调用交易，返回 base64 交易字节
func (b *txBuilder) moveCall(ctx context.Context, packageID, module, function string,
	args []interface{}, typeArgs []string, gasBudget uint64) (string, error) {
	if _, err := probe(b.build.capabilities(), b.build.protocol(), "move_call", moveCallPrimitives); err != nil {
		return "", err
	}
	if typeArgs == nil {
		typeArgs = []string{}
	}

	params := []interface{}{
		b.sender,
		packageID,
		module,
		function,
		typeArgs,
		args,
		nil, // gas 对象由节点挑选
		strconv.FormatUint(gasBudget, 10),
	}
	raw, err := b.build.execute(ctx, PrimitiveBuildMoveCall, params)
	if err != nil {
		return "", fmt.Errorf("build move call transaction failed: %w", err)
	}
	return txBytesFrom(raw)
}

// inspectForCost 费用估算，只做参考
//
// 估算失败记日志后吞掉，交易继续使用既定预算——估算是建议性的，
// 不是提交的前置条件。
func (b *txBuilder) inspectForCost(ctx context.Context, txBytes string) {
	if !b.build.capabilities().Supports(PrimitiveDryRun) {
		return
	}
	raw, err := b.build.execute(ctx, PrimitiveDryRun, []interface{}{txBytes})
	if err != nil {
		b.logger.Warn("gas estimation failed, proceeding with configured budget", "error", err)
		return
	}

	data, err := cast.ToStringMapE(raw)
	if err != nil {
		b.logger.Info("gas estimation done, using configured budget")
		return
	}
	gasUsed := effectsField(data, "gasUsed")
	if gasUsed == nil {
		b.logger.Info("gas estimation done, using configured budget")
		return
	}
	estimate := cast.ToUint64(gasUsed["computationCost"]) + cast.ToUint64(gasUsed["storageCost"])
	b.logger.Info("gas estimate", "mists", estimate)
}

// executeSigned 签名并提交交易，返回带 ok/error 标记的执行结果
func (b *txBuilder) executeSigned(ctx context.Context, txBytes string) (TaggedResult, error) {
	if b.signer == nil {
		return nil, validationError("no signer configured", nil)
	}

	decoded, err := base64.StdEncoding.DecodeString(txBytes)
	if err != nil {
		return nil, fmt.Errorf("decode transaction bytes failed: %w", err)
	}
	signature, err := b.signer.SignTransactionBlock(decoded)
	if err != nil {
		return nil, fmt.Errorf("sign transaction failed: %w", err)
	}

	var params []interface{}
	if b.exec.protocol() == ProtocolGRPC {
		params = []interface{}{map[string]interface{}{
			"transactionBcs": txBytes,
			"signatures":     []string{signature},
		}}
	} else {
		options := map[string]interface{}{
			"showEffects":       true,
			"showEvents":        true,
			"showObjectChanges": true,
		}
		params = []interface{}{txBytes, []string{signature}, options, "WaitForLocalExecution"}
	}

	raw, err := b.exec.execute(ctx, PrimitiveExecuteTx, params)
	if err != nil {
		return nil, err
	}

	data, err := cast.ToStringMapE(raw)
	if err != nil {
		return nil, fmt.Errorf("unexpected execution response shape: %w", err)
	}
	// gRPC 执行结果嵌套在 transaction 字段下
	if inner, innerErr := cast.ToStringMapE(data["transaction"]); innerErr == nil && data["digest"] == nil {
		data = inner
	}
	return &execResult{data: data}, nil
}

// execResult 交易执行结果的标记包装
//
// RPC 层成功但 Move 执行失败时（effects.status.status != success），
// 归一化阶段按失败处理并带出节点的错误串。
type execResult struct {
	data map[string]interface{}
}

func (r *execResult) IsOK() bool {
	status := effectsField(r.data, "status")
	if status == nil {
		// 没有 effects 的响应按成功载荷处理，交给归一化兜底
		return true
	}
	return cast.ToString(status["status"]) == "success"
}

func (r *execResult) ResultString() string {
	status := effectsField(r.data, "status")
	if status == nil {
		return ""
	}
	if errMsg := cast.ToString(status["error"]); errMsg != "" {
		return errMsg
	}
	return "transaction execution failed"
}

func (r *execResult) ResultData() interface{} {
	return r.data
}

// publishPayload 发布交易的编译产物来源
type publishPayload interface {
	CompiledModules() []string
	DependencyIDs() []string
}

// txBytesFrom 从构建响应取出 base64 交易字节
func txBytesFrom(raw interface{}) (string, error) {
	data, err := cast.ToStringMapE(raw)
	if err != nil {
		return "", fmt.Errorf("unexpected build response shape: %w", err)
	}
	txBytes := cast.ToString(data["txBytes"])
	if txBytes == "" {
		return "", fmt.Errorf("build response has no txBytes")
	}
	return txBytes, nil
}
