package client

import (
	"strings"
	"testing"
)

func TestProbe_Order(t *testing.T) {
	full := jsonrpcCapabilities()

	// 汇总原语优先
	prim, err := probe(full, ProtocolJSONRPC, "get_account_balance", balancePrimitives)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prim != PrimitiveGetAllBalances {
		t.Errorf("expected getAllBalances first, got %s", prim)
	}

	// 第一候选缺失时落到第二候选
	partial := capabilitySet{PrimitiveGetCoins: true}
	prim, err = probe(partial, ProtocolJSONRPC, "get_account_balance", balancePrimitives)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prim != PrimitiveGetCoins {
		t.Errorf("expected getCoins fallback, got %s", prim)
	}
}

func TestProbe_AllMissing(t *testing.T) {
	_, err := probe(capabilitySet{}, ProtocolGRPC, "get_account_balance", balancePrimitives)
	if err == nil {
		t.Fatal("expected CapabilityError")
	}

	capErr, ok := IsCapabilityError(err)
	if !ok {
		t.Fatalf("expected CapabilityError, got %T", err)
	}
	if capErr.Transport != ProtocolGRPC {
		t.Errorf("expected grpc transport in error, got %s", capErr.Transport)
	}
	if capErr.Operation != "get_account_balance" {
		t.Errorf("expected operation name, got %s", capErr.Operation)
	}
	// 错误信息列出全部候选原语
	msg := capErr.Error()
	if !strings.Contains(msg, "getAllBalances") || !strings.Contains(msg, "getCoins") {
		t.Errorf("error should name tried primitives: %s", msg)
	}
}

func TestJSONRPCCapabilities_Complete(t *testing.T) {
	caps := jsonrpcCapabilities()
	all := []Primitive{
		PrimitiveGetAllBalances, PrimitiveGetCoins,
		PrimitiveGetObject, PrimitiveGetTransaction, PrimitiveMultiGetTx,
		PrimitiveReferenceGasPrice, PrimitiveDryRun,
		PrimitiveBuildPublish, PrimitiveBuildMoveCall, PrimitiveExecuteTx,
	}
	for _, p := range all {
		if !caps.Supports(p) {
			t.Errorf("JSON-RPC transport should support %s", p)
		}
	}
}

func TestGRPCCapabilities_HybridBuild(t *testing.T) {
	// 无混合构建：查询和提交可用，构建不可用
	caps := grpcCapabilities(false)
	if !caps.Supports(PrimitiveGetAllBalances) || !caps.Supports(PrimitiveExecuteTx) {
		t.Error("query/execute primitives should be available on grpc")
	}
	for _, p := range []Primitive{PrimitiveBuildPublish, PrimitiveBuildMoveCall, PrimitiveDryRun, PrimitiveMultiGetTx} {
		if caps.Supports(p) {
			t.Errorf("%s should be unavailable without hybrid build", p)
		}
	}

	// 开启混合构建后补齐构建原语
	hybrid := grpcCapabilities(true)
	for _, p := range []Primitive{PrimitiveBuildPublish, PrimitiveBuildMoveCall, PrimitiveDryRun} {
		if !hybrid.Supports(p) {
			t.Errorf("%s should be available with hybrid build", p)
		}
	}
	if hybrid.Supports(PrimitiveMultiGetTx) {
		t.Error("multiGetTransactionBlocks has no grpc mapping")
	}
}
