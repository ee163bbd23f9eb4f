package client

// Primitive 传输层的一个命名查询/交易构建原语
//
// 同一逻辑操作在不同协议/节点版本下由不同原语服务；
// 调用前先探测存在性（不发网络请求），再调用第一个可用原语。
type Primitive string

const (
	// 余额查询
	PrimitiveGetAllBalances Primitive = "getAllBalances" // 按币种汇总
	PrimitiveGetCoins       Primitive = "getCoins"       // 逐币对象

	// 点查
	PrimitiveGetObject      Primitive = "getObject"
	PrimitiveGetTransaction Primitive = "getTransactionBlock"
	PrimitiveMultiGetTx     Primitive = "multiGetTransactionBlocks"

	// 参考值 / 费用
	PrimitiveReferenceGasPrice Primitive = "getReferenceGasPrice"
	PrimitiveDryRun            Primitive = "dryRunTransactionBlock"

	// 交易构建与提交
	PrimitiveBuildPublish  Primitive = "buildPublish"
	PrimitiveBuildMoveCall Primitive = "buildMoveCall"
	PrimitiveExecuteTx     Primitive = "executeTransactionBlock"
)

// 探测顺序表。顺序有意义：靠前的原语优先。
//
// 余额查询先试汇总原语（不需要对象身份时更便宜），再退到逐对象原语。
var (
	balancePrimitives  = []Primitive{PrimitiveGetAllBalances, PrimitiveGetCoins}
	objectPrimitives   = []Primitive{PrimitiveGetObject}
	txPrimitives       = []Primitive{PrimitiveGetTransaction, PrimitiveMultiGetTx}
	gasPricePrimitives = []Primitive{PrimitiveReferenceGasPrice}
	publishPrimitives  = []Primitive{PrimitiveBuildPublish}
	moveCallPrimitives = []Primitive{PrimitiveBuildMoveCall}
)

// capabilitySet 一个传输实现实际暴露的原语集合
//
// 按传输类型静态确定（字面量表，不做运行时反射），
// 不同版本的节点/库可在构造传输时裁剪该表。
type capabilitySet map[Primitive]bool

// Supports 原语是否存在（仅存在性，不保证调用成功）
func (s capabilitySet) Supports(p Primitive) bool {
	return s[p]
}

// probe 按声明顺序探测候选原语，返回第一个存在的
//
// 每次调用重新探测（只是 map 查找，无网络开销）。
// 全部缺失时返回 CapabilityError，由调用方决定降级还是上抛。
func probe(caps capabilitySet, transport Protocol, operation string, candidates []Primitive) (Primitive, error) {
	for _, p := range candidates {
		if caps.Supports(p) {
			return p, nil
		}
	}
	return "", &CapabilityError{
		Transport:  transport,
		Operation:  operation,
		Candidates: candidates,
	}
}

// jsonrpcCapabilities JSON-RPC 传输的完整原语表
func jsonrpcCapabilities() capabilitySet {
	return capabilitySet{
		PrimitiveGetAllBalances:    true,
		PrimitiveGetCoins:          true,
		PrimitiveGetObject:         true,
		PrimitiveGetTransaction:    true,
		PrimitiveMultiGetTx:        true,
		PrimitiveReferenceGasPrice: true,
		PrimitiveDryRun:            true,
		PrimitiveBuildPublish:      true,
		PrimitiveBuildMoveCall:     true,
		PrimitiveExecuteTx:         true,
	}
}

// grpcCapabilities gRPC 传输的原语表
//
// gRPC 接口（Beta）不提供节点侧交易构建；只有配置了 JSON-RPC 端点做
// 混合构建时，buildPublish / buildMoveCall / dryRun 才可用。
func grpcCapabilities(hybridBuild bool) capabilitySet {
	caps := capabilitySet{
		PrimitiveGetAllBalances:    true,
		PrimitiveGetCoins:          true,
		PrimitiveGetObject:         true,
		PrimitiveGetTransaction:    true,
		PrimitiveReferenceGasPrice: true,
		PrimitiveExecuteTx:         true,
	}
	if hybridBuild {
		caps[PrimitiveBuildPublish] = true
		caps[PrimitiveBuildMoveCall] = true
		caps[PrimitiveDryRun] = true
	}
	return caps
}
