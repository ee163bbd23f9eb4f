package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testClientYAML = `---
keystore:
  File: /home/dev/.sui/sui_config/sui.keystore
envs:
  - alias: localnet
    rpc: "http://127.0.0.1:9000"
    ws: "ws://127.0.0.1:9000"
    grpc: "127.0.0.1:9001"
  - alias: testnet
    rpc: "https://fullnode.testnet.sui.io:443"
active_env: localnet
active_address: "0x37e4d1f6a0b9c8e2d3f4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
`

func writeClientYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSuiConfig(t *testing.T) {
	path := writeClientYAML(t, testClientYAML)

	cfg, err := loadSuiConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(cfg.ActiveAddress, "0x37e4") {
		t.Errorf("wrong active address: %s", cfg.ActiveAddress)
	}

	env, ok := cfg.activeEnv()
	if !ok {
		t.Fatal("active env not found")
	}
	if env.Alias != "localnet" {
		t.Errorf("wrong env: %s", env.Alias)
	}
	if env.RPC != "http://127.0.0.1:9000" || env.GRPC != "127.0.0.1:9001" {
		t.Errorf("endpoints not parsed: %+v", env)
	}
}

func TestLoadSuiConfig_NoActiveAddress(t *testing.T) {
	path := writeClientYAML(t, "envs: []\nactive_env: localnet\n")
	if _, err := loadSuiConfig(path); err == nil {
		t.Error("expected error for config without active_address")
	}
}

func TestResolveConfig_FileFillsGaps(t *testing.T) {
	path := writeClientYAML(t, testClientYAML)

	resolved, err := resolveConfig(&Config{ConfigPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.JSONRPCEndpoint != "http://127.0.0.1:9000" {
		t.Errorf("rpc endpoint not filled: %s", resolved.JSONRPCEndpoint)
	}
	if resolved.GRPCEndpoint != "127.0.0.1:9001" {
		t.Errorf("grpc endpoint not filled: %s", resolved.GRPCEndpoint)
	}
	if resolved.WSEndpoint != "ws://127.0.0.1:9000" {
		t.Errorf("ws endpoint not filled: %s", resolved.WSEndpoint)
	}
	if resolved.ActiveAddress == "" {
		t.Error("address not filled from file")
	}
	if resolved.Timeout != 30 {
		t.Errorf("timeout default not applied: %d", resolved.Timeout)
	}
}

func TestResolveConfig_ExplicitWins(t *testing.T) {
	path := writeClientYAML(t, testClientYAML)

	explicit := &Config{
		ConfigPath:      path,
		JSONRPCEndpoint: "http://10.0.0.1:9000",
		ActiveAddress:   "0xexplicit",
	}
	resolved, err := resolveConfig(explicit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 显式字段优先于文件值
	if resolved.JSONRPCEndpoint != "http://10.0.0.1:9000" {
		t.Errorf("explicit endpoint overridden: %s", resolved.JSONRPCEndpoint)
	}
	if resolved.ActiveAddress != "0xexplicit" {
		t.Errorf("explicit address overridden: %s", resolved.ActiveAddress)
	}
	// 文件仍补全缺失的 gRPC 端点
	if resolved.GRPCEndpoint != "127.0.0.1:9001" {
		t.Errorf("grpc endpoint not filled: %s", resolved.GRPCEndpoint)
	}
	// 调用方的 Config 不被修改
	if explicit.GRPCEndpoint != "" {
		t.Error("caller config must not be mutated")
	}
}

func TestResolveConfig_ExplicitPathMissing(t *testing.T) {
	cfg := &Config{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}
	if _, err := resolveConfig(cfg); err == nil {
		t.Error("explicitly configured file that cannot be read is fatal")
	}
}

func TestResolveConfig_NoAddress(t *testing.T) {
	// 端点齐全但没有地址，也没有可读的配置文件
	cfg := &Config{
		JSONRPCEndpoint: "http://127.0.0.1:9000",
		GRPCEndpoint:    "127.0.0.1:9001",
	}
	if _, err := resolveConfig(cfg); err == nil {
		t.Error("expected error when no active address is available")
	}
}
