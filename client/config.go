package client

// Protocol 协议类型
type Protocol string

const (
	ProtocolJSONRPC Protocol = "jsonrpc"
	ProtocolGRPC    Protocol = "grpc"
	// ProtocolAuto 优先尝试 gRPC，构造或健康检查失败时回退 JSON-RPC
	ProtocolAuto Protocol = "auto"
)

// Config 客户端配置
type Config struct {
	// ConfigPath Sui CLI 配置文件路径（client.yaml）；为空时使用默认位置。
	// 显式填写的端点和地址优先于配置文件中的值。
	ConfigPath string

	// JSONRPCEndpoint JSON-RPC 节点端点
	JSONRPCEndpoint string

	// GRPCEndpoint gRPC 节点端点
	GRPCEndpoint string

	// WSEndpoint WebSocket 端点（事件订阅用，可选）
	WSEndpoint string

	// ActiveAddress 活跃地址（0x 前缀十六进制）
	ActiveAddress string

	// Protocol 协议类型，默认 auto
	Protocol Protocol

	// Timeout 单次请求超时（秒）
	Timeout int

	// TLS 配置（gRPC 用）
	TLS *TLSConfig

	// Signer 交易签名器（部署/调用需要；查询类操作不需要）
	Signer Signer

	// MoveBinary Move 编译器命令，默认 "sui"
	MoveBinary string

	// 调试模式
	Debug bool

	// 日志器（可选，不设置时丢弃日志）
	Logger Logger
}

// TLSConfig TLS 配置
type TLSConfig struct {
	CertFile string
	KeyFile  string
	CAFile   string
	Insecure bool // 跳过 TLS 验证（仅用于开发）
}

// Logger 日志接口
//
// 核心不持有任何进程级日志状态，所有诊断输出都经由实例上注入的 Logger。
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Signer 交易签名器接口
//
// 签名与密钥管理不属于本 SDK，由调用方注入实现。
// 入参为 BCS 编码的交易字节，返回 base64 序列化签名。
type Signer interface {
	SignTransactionBlock(txBytes []byte) (string, error)
}

// nopLogger 丢弃所有日志
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// DefaultConfig 返回默认配置（本地开发节点）
func DefaultConfig() *Config {
	return &Config{
		JSONRPCEndpoint: "http://localhost:9000",
		GRPCEndpoint:    "localhost:9000",
		Protocol:        ProtocolAuto,
		Timeout:         30,
	}
}

// logger 返回配置的日志器，未设置时返回 nopLogger
func (c *Config) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return nopLogger{}
}
