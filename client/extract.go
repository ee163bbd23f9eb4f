package client

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/suikit/client-sdk-go/types"
)

// extractDeployment 从归一化的执行结果提取部署关键信息
//
// 扫描 objectChanges：type == "published" 的变更给出包 ID，
// type == "created" 且对象类型含 UpgradeCap 标签的变更给出 UpgradeCap ID。
func extractDeployment(data map[string]interface{}) *types.DeploymentResult {
	result := &types.DeploymentResult{
		TransactionHash: cast.ToString(data["digest"]),
		GasUsed:         effectsField(data, "gasUsed"),
		Status:          effectsField(data, "status"),
		FullResult:      data,
	}

	for _, change := range toStringMapSlice(data["objectChanges"]) {
		switch cast.ToString(change["type"]) {
		case "published":
			result.PackageID = cast.ToString(change["packageId"])
		case "created":
			if strings.Contains(cast.ToString(change["objectType"]), types.UpgradeCapTypeTag) {
				result.UpgradeCapID = cast.ToString(change["objectId"])
			}
		}
	}

	return result
}

// extractCall 从归一化的执行结果提取函数调用关键信息
func extractCall(data map[string]interface{}) *types.FunctionCallResult {
	events := toStringMapSlice(data["events"])
	if events == nil {
		events = []map[string]interface{}{}
	}
	changes := toStringMapSlice(data["objectChanges"])
	if changes == nil {
		changes = []map[string]interface{}{}
	}

	return &types.FunctionCallResult{
		TransactionHash: cast.ToString(data["digest"]),
		GasUsed:         effectsField(data, "gasUsed"),
		Status:          effectsField(data, "status"),
		Events:          events,
		ObjectChanges:   changes,
		FullResult:      data,
	}
}

// effectsField 取 effects 下的一个子对象（effects 缺失时返回 nil）
func effectsField(data map[string]interface{}, field string) map[string]interface{} {
	effects, err := cast.ToStringMapE(data["effects"])
	if err != nil {
		return nil
	}
	sub, err := cast.ToStringMapE(effects[field])
	if err != nil {
		return nil
	}
	return sub
}
