package client

import (
	"strconv"

	"github.com/suikit/client-sdk-go/utils"
)

// argKind 调用参数的分类结果
type argKind int

const (
	argObjectRef argKind = iota // 0x 前缀的 66 字符十六进制 → 对象引用
	argText                     // 其他字符串 → UTF-8 文本
	argBytes                    // 字节序列 → 小整数列表（vector<u8>）
	argU64                      // 整数 → u64 标量
	argBool                     // 布尔，原样透传
	argOpaque                   // 其余类型原样透传，由交易构建端拒绝不支持的值
)

// classifyArg 按运行时形状对单个逻辑参数分类
//
// 这是启发式而非声明式 schema：一个恰好 66 字符的十六进制串
// 即便不是真实对象也会被当作对象引用，这是已知限制。
func classifyArg(v interface{}) argKind {
	switch arg := v.(type) {
	case string:
		if utils.IsObjectID(arg) {
			return argObjectRef
		}
		return argText
	case []byte:
		return argBytes
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return argU64
	case bool:
		return argBool
	default:
		return argOpaque
	}
}

// marshalArg 把单个逻辑参数编码为交易构建端接受的 JSON 值
//
// u64 标量编码为十进制字符串（节点侧的 u64 表示）；
// 字节序列展开为小整数列表。
func marshalArg(v interface{}) interface{} {
	switch classifyArg(v) {
	case argObjectRef, argText, argBool, argOpaque:
		return v
	case argBytes:
		raw := v.([]byte)
		encoded := make([]interface{}, len(raw))
		for i, b := range raw {
			encoded[i] = int(b)
		}
		return encoded
	case argU64:
		return strconv.FormatUint(toUint64(v), 10)
	}
	return v
}

// marshalCallArgs 编码整个参数列表
func marshalCallArgs(args []interface{}) []interface{} {
	if len(args) == 0 {
		return []interface{}{}
	}
	encoded := make([]interface{}, len(args))
	for i, arg := range args {
		encoded[i] = marshalArg(arg)
	}
	return encoded
}

func toUint64(v interface{}) uint64 {
	switch n := v.(type) {
	case int:
		return uint64(n)
	case int8:
		return uint64(n)
	case int16:
		return uint64(n)
	case int32:
		return uint64(n)
	case int64:
		return uint64(n)
	case uint:
		return uint64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	}
	return 0
}
