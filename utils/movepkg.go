package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ManifestName Move 包清单文件名
const ManifestName = "Move.toml"

// DefaultMoveBinary 默认的 Move 编译器命令（sui CLI）
const DefaultMoveBinary = "sui"

// CompiledPackage Move 包编译产物
//
// 对应 `sui move build --dump-bytecode-as-base64` 的 JSON 输出，
// modules 为 base64 字节码，dependencies 为依赖包 ID 列表。
type CompiledPackage struct {
	Modules      []string `json:"modules"`
	Dependencies []string `json:"dependencies"`
	Digest       []int    `json:"digest,omitempty"`
}

// CompiledModules 返回 base64 模块字节码列表
func (p *CompiledPackage) CompiledModules() []string {
	return p.Modules
}

// DependencyIDs 返回依赖包 ID 列表
func (p *CompiledPackage) DependencyIDs() []string {
	return p.Dependencies
}

// ValidatePackagePath 校验 Move 包路径
//
// 只检查目录存在且包含 Move.toml，不解析清单内容。
// 校验失败返回包装了 os.ErrNotExist 的错误，调用方可用 errors.Is 判断。
func ValidatePackagePath(packagePath string) error {
	info, err := os.Stat(packagePath)
	if err != nil {
		return fmt.Errorf("package path not found: %s: %w", packagePath, os.ErrNotExist)
	}
	if !info.IsDir() {
		return fmt.Errorf("package path is not a directory: %s: %w", packagePath, os.ErrNotExist)
	}

	manifest := filepath.Join(packagePath, ManifestName)
	if _, err := os.Stat(manifest); err != nil {
		return fmt.Errorf("%s not found in %s: %w", ManifestName, packagePath, os.ErrNotExist)
	}

	return nil
}

// BuildPackage 调用外部编译器编译 Move 包
//
// 编译本身不是 SDK 的职责，这里只负责调起 `<bin> move build
// --dump-bytecode-as-base64` 并解析其 JSON 输出。
func BuildPackage(ctx context.Context, bin, packagePath string, buildArgs []string) (*CompiledPackage, error) {
	if bin == "" {
		bin = DefaultMoveBinary
	}
	if err := ValidatePackagePath(packagePath); err != nil {
		return nil, err
	}

	args := []string{"move", "build", "--dump-bytecode-as-base64", "--path", packagePath}
	args = append(args, buildArgs...)

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("move build failed: %w: %s", err, stderr.String())
	}

	var pkg CompiledPackage
	if err := json.Unmarshal(stdout.Bytes(), &pkg); err != nil {
		return nil, fmt.Errorf("parse move build output failed: %w", err)
	}
	if len(pkg.Modules) == 0 {
		return nil, fmt.Errorf("move build produced no modules for %s", packagePath)
	}

	return &pkg, nil
}
