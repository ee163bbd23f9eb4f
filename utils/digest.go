package utils

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ObjectIDLength 对象 ID 的字符串长度（0x + 64 位十六进制）
const ObjectIDLength = 66

// txDigestBytes 交易摘要解码后的字节长度
const txDigestBytes = 32

// IsObjectID 判断字符串是否为对象 ID（0x 前缀的 66 字符十六进制）
//
// 这是一个形状判断而非语义判断：一个恰好 66 字符的十六进制串
// 也可能不是真实存在的对象。
func IsObjectID(s string) bool {
	if len(s) != ObjectIDLength {
		return false
	}
	if _, err := hexutil.Decode(s); err != nil {
		return false
	}
	return true
}

// ValidateObjectID 校验对象 ID 格式
func ValidateObjectID(s string) error {
	if len(s) != ObjectIDLength {
		return fmt.Errorf("invalid object id length: expected %d characters, got %d", ObjectIDLength, len(s))
	}
	if _, err := hexutil.Decode(s); err != nil {
		return fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return nil
}

// ValidateTxDigest 校验交易摘要格式
//
// Sui 的交易摘要为 32 字节的 Base58 编码。
func ValidateTxDigest(digest string) error {
	if digest == "" {
		return fmt.Errorf("empty transaction digest")
	}
	decoded := base58.Decode(digest)
	if len(decoded) != txDigestBytes {
		return fmt.Errorf("invalid transaction digest %q: expected %d bytes after Base58 decode, got %d",
			digest, txDigestBytes, len(decoded))
	}
	return nil
}
