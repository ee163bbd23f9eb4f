package client

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// suiEnv Sui CLI 配置中的一个网络环境
type suiEnv struct {
	Alias string `yaml:"alias"`
	RPC   string `yaml:"rpc"`
	WS    string `yaml:"ws"`
	GRPC  string `yaml:"grpc"`
}

// suiCLIConfig Sui CLI 的 client.yaml 结构（只取 SDK 关心的字段）
type suiCLIConfig struct {
	ActiveEnv     string   `yaml:"active_env"`
	ActiveAddress string   `yaml:"active_address"`
	Envs          []suiEnv `yaml:"envs"`
}

// defaultSuiConfigPath 默认配置文件位置：~/.sui/sui_config/client.yaml
func defaultSuiConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sui", "sui_config", "client.yaml")
}

// loadSuiConfig 解析 Sui CLI 配置文件
func loadSuiConfig(path string) (*suiCLIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sui config failed: %w", err)
	}

	var cfg suiCLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse sui config %s failed: %w", path, err)
	}
	if cfg.ActiveAddress == "" {
		return nil, fmt.Errorf("sui config %s has no active_address", path)
	}

	return &cfg, nil
}

// activeEnv 返回 active_env 指向的环境
func (c *suiCLIConfig) activeEnv() (*suiEnv, bool) {
	for i := range c.Envs {
		if c.Envs[i].Alias == c.ActiveEnv {
			return &c.Envs[i], true
		}
	}
	return nil, false
}

// resolveConfig 补全配置
//
// 合并顺序：显式字段 > Sui CLI 配置文件 > 内置默认值。
// 活跃地址是必需项：显式字段和配置文件都没有时构造失败。
func resolveConfig(cfg *Config) (*Config, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	// 复制一份，调用方的 Config 不被修改
	resolved := *cfg

	if resolved.Timeout <= 0 {
		resolved.Timeout = 30
	}

	// 缺地址或缺端点时才读配置文件
	needsFile := resolved.ActiveAddress == "" || resolved.JSONRPCEndpoint == "" || resolved.GRPCEndpoint == ""
	if needsFile {
		path := resolved.ConfigPath
		if path == "" {
			path = defaultSuiConfigPath()
		}
		if path != "" {
			if fileCfg, err := loadSuiConfig(path); err == nil {
				if resolved.ActiveAddress == "" {
					resolved.ActiveAddress = fileCfg.ActiveAddress
				}
				if env, ok := fileCfg.activeEnv(); ok {
					if resolved.JSONRPCEndpoint == "" {
						resolved.JSONRPCEndpoint = env.RPC
					}
					if resolved.GRPCEndpoint == "" {
						resolved.GRPCEndpoint = env.GRPC
					}
					if resolved.WSEndpoint == "" {
						resolved.WSEndpoint = env.WS
					}
				}
			} else if resolved.ConfigPath != "" {
				// 显式指定的配置文件读不到是构造错误；默认位置读不到可以容忍
				return nil, err
			}
		}
	}

	if resolved.JSONRPCEndpoint == "" {
		resolved.JSONRPCEndpoint = DefaultConfig().JSONRPCEndpoint
	}

	if resolved.ActiveAddress == "" {
		return nil, fmt.Errorf("no active address: set Config.ActiveAddress or provide a sui client.yaml")
	}

	return &resolved, nil
}
