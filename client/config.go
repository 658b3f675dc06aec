package client

// Config 客户端配置
type Config struct {
	// Endpoint 节点端点地址
	// toncenter: JSON-RPC URL；liteserver: 全局配置文件 URL
	Endpoint string

	// Protocol 协议类型
	Protocol Protocol

	// APIKey toncenter API Key（可选）
	APIKey string

	// Timeout 超时时间（秒）
	Timeout int

	// Retry 只读请求的重试配置（nil 使用默认配置）
	Retry *RetryConfig

	// 调试模式
	Debug bool

	// 日志器（可选）
	Logger Logger
}

// Protocol 协议类型
type Protocol string

const (
	ProtocolToncenter  Protocol = "toncenter"
	ProtocolLiteserver Protocol = "liteserver"
)

// Logger 日志接口
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// DefaultConfig 返回默认配置（testnet toncenter）
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "https://testnet.toncenter.com/api/v2/jsonRPC",
		Protocol: ProtocolToncenter,
		Timeout:  30,
		Debug:    false,
	}
}
