package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"github.com/suikit/client-sdk-go/types"
)

// TaggedResult 带 ok/error 标记的响应包装
//
// JSON-RPC 路径的执行结果走这种形态：先看标记，错误立即上抛，
// 成功才解出载荷继续归一化。
type TaggedResult interface {
	IsOK() bool
	// ResultString 失败时的传输层错误串
	ResultString() string
	// ResultData 成功时的载荷；失败时可能携带结构化错误详情
	ResultData() interface{}
}

// JSONSerializable 自带规范序列化方法的响应对象
//
// gRPC 路径的模型对象多为这种形态，字段比 JSON-RPC 的字符串表示更丰富，
// 归一化时保持其自身的序列化结果，不做有损的字符串化。
type JSONSerializable interface {
	ToJSON() ([]byte, error)
}

// normalizeResult 把任一形态的原始响应归一化为 map
//
// 三级回退，顺序固定：
// 1. TaggedResult：检查 ok/error 标记，错误带上操作名与传输层错误串上抛；
// 2. JSONSerializable：使用对象自身的序列化方法；
// 3. 已是 map 的直接透传；
// 4. 兜底：对不透明对象做一次通用的结构化展平（json 往返）。
func normalizeResult(resp interface{}, op string) (map[string]interface{}, error) {
	// 1. 标记结果：先判 ok/error
	if tagged, ok := resp.(TaggedResult); ok {
		if !tagged.IsOK() {
			rpcErr := &RPCError{Op: op, Message: tagged.ResultString()}
			// 失败载荷可能是节点的结构化错误详情
			if detail, err := types.ParseNodeErrorDetail(tagged.ResultData()); err == nil {
				rpcErr.Detail = types.NewNodeErrorFromDetail(detail)
			}
			return nil, rpcErr
		}
		return normalizePayload(tagged.ResultData(), op)
	}

	return normalizePayload(resp, op)
}

// normalizePayload 归一化已解除标记的载荷
func normalizePayload(payload interface{}, op string) (map[string]interface{}, error) {
	if payload == nil {
		return nil, normalizeFailure(op, fmt.Errorf("nil payload"))
	}

	// 2. 规范序列化方法
	if serializable, ok := payload.(JSONSerializable); ok {
		data, err := serializable.ToJSON()
		if err != nil {
			return nil, normalizeFailure(op, err)
		}
		var result map[string]interface{}
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, normalizeFailure(op, err)
		}
		return result, nil
	}

	// 3. 已是普通映射
	switch v := payload.(type) {
	case map[string]interface{}:
		return v, nil
	case json.RawMessage:
		var result map[string]interface{}
		if err := json.Unmarshal(v, &result); err != nil {
			return nil, normalizeFailure(op, err)
		}
		return result, nil
	case map[interface{}]interface{}:
		result, err := cast.ToStringMapE(v)
		if err != nil {
			return nil, normalizeFailure(op, err)
		}
		return result, nil
	}

	// 4. 兜底：通用结构化展平
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, normalizeFailure(op, err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, normalizeFailure(op, err)
	}
	return result, nil
}

// toStringMapSlice 把 any 形态的数组元素逐个转成 map（跳过非 map 元素）
func toStringMapSlice(v interface{}) []map[string]interface{} {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	result := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, err := cast.ToStringMapE(item); err == nil {
			result = append(result, m)
		}
	}
	return result
}
