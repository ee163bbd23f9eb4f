package utils

import "github.com/suikit/client-sdk-go/types"

// MistToSui 将 mists 换算为 SUI（1 SUI = 10^9 mists）
func MistToSui(mists uint64) float64 {
	return float64(mists) / types.MistsPerSui
}

// SuiToMist 将整数 SUI 换算为 mists
func SuiToMist(sui uint64) uint64 {
	return sui * types.MistsPerSui
}
