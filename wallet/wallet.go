package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// SchemeED25519 ed25519 签名方案的 flag 字节
const SchemeED25519 byte = 0x00

// intentTransactionData 交易数据的 intent 前缀（scope/version/app 各一字节）
var intentTransactionData = []byte{0, 0, 0}

// Ed25519Signer ed25519 交易签名器（用于测试和开发）
//
// 签名流程：blake2b-256(intent || 交易字节) 上做 ed25519 签名，
// 序列化为 base64(flag || 签名64字节 || 公钥32字节)。
type Ed25519Signer struct {
	privateKey ed25519.PrivateKey
	address    string
}

// NewSigner 生成随机密钥的签名器
func NewSigner() (*Ed25519Signer, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return newSignerFromKey(privateKey), nil
}

// NewSignerFromSeed 从 32 字节种子创建签名器
func NewSignerFromSeed(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length: expected %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return newSignerFromKey(ed25519.NewKeyFromSeed(seed)), nil
}

// NewSignerFromBase64 从 base64(flag || 种子) 创建签名器（sui.keystore 的条目格式）
func NewSignerFromBase64(encoded string) (*Ed25519Signer, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != ed25519.SeedSize+1 {
		return nil, fmt.Errorf("invalid key length: expected %d bytes, got %d", ed25519.SeedSize+1, len(raw))
	}
	if raw[0] != SchemeED25519 {
		return nil, fmt.Errorf("unsupported signature scheme flag 0x%02x", raw[0])
	}
	return NewSignerFromSeed(raw[1:])
}

func newSignerFromKey(privateKey ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{
		privateKey: privateKey,
		address:    deriveAddress(privateKey.Public().(ed25519.PublicKey)),
	}
}

// Address 获取签名器地址（0x 前缀十六进制）
func (s *Ed25519Signer) Address() string {
	return s.address
}

// SignTransactionBlock 签名交易字节，返回 base64 序列化签名
func (s *Ed25519Signer) SignTransactionBlock(txBytes []byte) (string, error) {
	// 1. 计算 intent 签名摘要
	message := make([]byte, 0, len(intentTransactionData)+len(txBytes))
	message = append(message, intentTransactionData...)
	message = append(message, txBytes...)
	digest := blake2b.Sum256(message)

	// 2. 签名摘要
	signature := ed25519.Sign(s.privateKey, digest[:])

	// 3. 序列化: flag || signature || pubkey
	publicKey := s.privateKey.Public().(ed25519.PublicKey)
	serialized := make([]byte, 0, 1+len(signature)+len(publicKey))
	serialized = append(serialized, SchemeED25519)
	serialized = append(serialized, signature...)
	serialized = append(serialized, publicKey...)

	return base64.StdEncoding.EncodeToString(serialized), nil
}

// PublicKey 获取公钥
func (s *Ed25519Signer) PublicKey() ed25519.PublicKey {
	return s.privateKey.Public().(ed25519.PublicKey)
}

// deriveAddress 从公钥派生地址
// 地址为 blake2b-256(flag || 公钥) 的 32 字节摘要，0x 前缀十六进制
func deriveAddress(publicKey ed25519.PublicKey) string {
	payload := make([]byte, 0, 1+len(publicKey))
	payload = append(payload, SchemeED25519)
	payload = append(payload, publicKey...)
	digest := blake2b.Sum256(payload)
	return "0x" + hex.EncodeToString(digest[:])
}
