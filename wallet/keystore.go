package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeystoreName Sui CLI 密钥库文件名
const KeystoreName = "sui.keystore"

// DefaultKeystorePath 默认密钥库位置：~/.sui/sui_config/sui.keystore
func DefaultKeystorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sui", "sui_config", KeystoreName)
}

// LoadKeystore 加载 Sui CLI 密钥库
//
// 文件格式为 base64 字符串的 JSON 数组，每条解码为 flag || 32字节种子。
// 非 ed25519 方案的条目跳过；没有任何可用条目时返回错误。
func LoadKeystore(path string) ([]*Ed25519Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore failed: %w", err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse keystore %s failed: %w", path, err)
	}

	signers := make([]*Ed25519Signer, 0, len(entries))
	for i, entry := range entries {
		signer, err := NewSignerFromBase64(entry)
		if err != nil {
			// secp256k1/secp256r1 条目不支持，跳过
			if strings.Contains(err.Error(), "unsupported signature scheme") {
				continue
			}
			return nil, fmt.Errorf("keystore entry %d: %w", i, err)
		}
		signers = append(signers, signer)
	}

	if len(signers) == 0 {
		return nil, fmt.Errorf("keystore %s has no usable ed25519 keys", path)
	}
	return signers, nil
}

// FindSigner 按地址查找签名器
func FindSigner(signers []*Ed25519Signer, address string) (*Ed25519Signer, bool) {
	for _, s := range signers {
		if strings.EqualFold(s.Address(), address) {
			return s, true
		}
	}
	return nil, false
}
