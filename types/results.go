package types

// MistsPerSui 1 SUI = 10^9 mists
const MistsPerSui = 1_000_000_000

// SuiCoinType SUI 原生币的完整类型标签
const SuiCoinType = "0x2::sui::SUI"

// UpgradeCapTypeTag UpgradeCap 对象类型标签（用于部署结果提取）
const UpgradeCapTypeTag = "::package::UpgradeCap"

// CoinRecord 单条币记录
//
// 两种形态（由哪个查询原语应答决定）：
// - 汇总形态：仅 CoinType / CoinCount / TotalBalance 有值（getAllBalances 路径）
// - 逐对象形态：ObjectID / Balance / Version / Digest / CoinType 有值（getCoins 路径）
//
// 消费方通过 ObjectID 是否为空区分形态；同一次调用只会出现一种形态。
type CoinRecord struct {
	// 汇总形态字段
	CoinCount    uint32 `json:"coin_count,omitempty"`
	TotalBalance uint64 `json:"total_balance,omitempty"`

	// 逐对象形态字段
	ObjectID string `json:"object_id,omitempty"`
	Balance  uint64 `json:"balance,omitempty"`
	Version  string `json:"version,omitempty"`
	Digest   string `json:"digest,omitempty"`

	// 两种形态都有
	CoinType string `json:"coin_type"`
}

// IsAggregate 是否为汇总形态记录
func (r *CoinRecord) IsAggregate() bool {
	return r.ObjectID == ""
}

// AccountBalance 账户余额查询的规范化结果
//
// 不变量：
// - TotalBalanceSui 恒等于 TotalBalanceMists / 1e9
// - Error 非空时 TotalBalanceMists == 0 且 SuiObjects 为空（查询失败降级，不抛错）
type AccountBalance struct {
	TotalBalanceMists uint64       `json:"total_balance_mists"`
	TotalBalanceSui   float64      `json:"total_balance_sui"`
	SuiObjects        []CoinRecord `json:"sui_objects"`
	ActiveAddress     string       `json:"active_address"`
	Error             string       `json:"error,omitempty"`
	Note              string       `json:"note,omitempty"`
}

// NewAccountBalance 按 mists 数额构造余额结果（保证 SUI 数额换算一致）
func NewAccountBalance(address string, mists uint64, objects []CoinRecord) *AccountBalance {
	if objects == nil {
		objects = []CoinRecord{}
	}
	return &AccountBalance{
		TotalBalanceMists: mists,
		TotalBalanceSui:   float64(mists) / MistsPerSui,
		SuiObjects:        objects,
		ActiveAddress:     address,
	}
}

// DegradedBalance 查询失败时的降级余额结果（零值 + 错误说明）
func DegradedBalance(address, errMsg, note string) *AccountBalance {
	return &AccountBalance{
		TotalBalanceMists: 0,
		TotalBalanceSui:   0,
		SuiObjects:        []CoinRecord{},
		ActiveAddress:     address,
		Error:             errMsg,
		Note:              note,
	}
}

// DeploymentResult 包部署的规范化结果
//
// PackageID 仅在效果日志包含 published 变更时非空；
// UpgradeCapID 仅在某条 created 变更的对象类型包含 UpgradeCap 标签时非空。
type DeploymentResult struct {
	PackageID       string                 `json:"package_id"`
	UpgradeCapID    string                 `json:"upgrade_cap_id"`
	TransactionHash string                 `json:"transaction_hash"`
	GasUsed         map[string]interface{} `json:"gas_used"`
	Status          map[string]interface{} `json:"status"`
	FullResult      map[string]interface{} `json:"full_result"`
}

// FunctionCallResult 合约函数调用的规范化结果
type FunctionCallResult struct {
	TransactionHash string                   `json:"transaction_hash"`
	GasUsed         map[string]interface{}   `json:"gas_used"`
	Status          map[string]interface{}   `json:"status"`
	Events          []map[string]interface{} `json:"events"`
	ObjectChanges   []map[string]interface{} `json:"object_changes"`
	FullResult      map[string]interface{}   `json:"full_result"`
}
