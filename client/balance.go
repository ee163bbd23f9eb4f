package client

import (
	"github.com/spf13/cast"

	"github.com/suikit/client-sdk-go/types"
)

// 余额载荷装配。两种协议对同一逻辑查询返回的字段名不同
// （JSON-RPC: coinObjectCount/coinObjectId；gRPC: coinObjectCount 缺省、objectId），
// 由调用方传入键名，装配逻辑共享。

// assembleAggregateBalance 汇总形态装配（getAllBalances 路径）
//
// 只取 SUI 原生币的那一条汇总记录，与逐对象路径不同，未匹配到时总额为 0。
func assembleAggregateBalance(address string, items []map[string]interface{}, countKey, balanceKey string) *types.AccountBalance {
	var total uint64
	records := []types.CoinRecord{}

	for _, item := range items {
		if cast.ToString(item["coinType"]) != types.SuiCoinType {
			continue
		}
		total = cast.ToUint64(item[balanceKey])
		records = append(records, types.CoinRecord{
			CoinCount:    cast.ToUint32(item[countKey]),
			TotalBalance: total,
			CoinType:     types.SuiCoinType,
		})
		break
	}

	return types.NewAccountBalance(address, total, records)
}

// assemblePerObjectBalance 逐对象形态装配（getCoins 路径）
//
// 累加所有返回的币对象余额，保留每个对象的身份字段。
func assemblePerObjectBalance(address string, coins []map[string]interface{}, idKey string) *types.AccountBalance {
	var total uint64
	records := []types.CoinRecord{}

	for _, coin := range coins {
		balance := cast.ToUint64(coin["balance"])
		total += balance

		coinType := cast.ToString(coin["coinType"])
		if coinType == "" {
			coinType = types.SuiCoinType
		}
		records = append(records, types.CoinRecord{
			ObjectID: cast.ToString(coin[idKey]),
			Balance:  balance,
			Version:  cast.ToString(coin["version"]),
			Digest:   cast.ToString(coin["digest"]),
			CoinType: coinType,
		})
	}

	return types.NewAccountBalance(address, total, records)
}
