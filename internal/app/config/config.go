package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Lmstfy    LmstfyConfig    `mapstructure:"lmstfy"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Security  SecurityConfig  `mapstructure:"security"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	// BaseURL 对外可访问地址，用于拼接回调地址
	BaseURL string `mapstructure:"base_url"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
	Queue     string `mapstructure:"queue"`
}

// GatewayConfig 支付网关配置（对应原商户后台设置项）
type GatewayConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`

	Sandbox          bool   `mapstructure:"sandbox"`
	PublicKey        string `mapstructure:"public_key"`
	SecretKey        string `mapstructure:"secret_key"`
	SandboxPublicKey string `mapstructure:"sandbox_public_key"`
	SandboxSecretKey string `mapstructure:"sandbox_secret_key"`

	// OrderStatus 支付成功后订单流转到的状态，可选 processing/completed
	OrderStatus string `mapstructure:"order_status"`

	ShowConsentCheckbox bool `mapstructure:"show_consent_checkbox"`
}

// ActivePublicKey 按沙箱开关返回当前生效的公钥
func (g *GatewayConfig) ActivePublicKey() string {
	if g.Sandbox {
		return g.SandboxPublicKey
	}
	return g.PublicKey
}

// ActiveSecretKey 按沙箱开关返回当前生效的私钥
func (g *GatewayConfig) ActiveSecretKey() string {
	if g.Sandbox {
		return g.SandboxSecretKey
	}
	return g.SecretKey
}

// ResolvedOrderStatus 支付成功后的目标状态，未配置时默认 processing
func (g *GatewayConfig) ResolvedOrderStatus() string {
	if g.OrderStatus == "" {
		return "processing"
	}
	return g.OrderStatus
}

// ProcessorConfig 上游支付处理方配置
type ProcessorConfig struct {
	Protocol string        `mapstructure:"protocol"`
	Host     string        `mapstructure:"host"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// BaseURL 上游接口基础地址
func (p *ProcessorConfig) BaseURL() string {
	return p.Protocol + p.Host
}

type SecurityConfig struct {
	NonceSecret string `mapstructure:"nonce_secret"`
}

// FieldError 配置校验错误详情
type FieldError struct {
	Field string
	Info  string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Info)
}

// Load 从配置文件加载配置
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// LoadDefault 加载默认配置文件路径
func LoadDefault() (*Config, error) {
	return Load("config/config.yaml")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Processor.Protocol == "" {
		cfg.Processor.Protocol = "https://"
	}
	if cfg.Processor.Host == "" {
		cfg.Processor.Host = "www.simpleso.io"
	}
	if cfg.Processor.Timeout <= 0 {
		cfg.Processor.Timeout = 30 * time.Second
	}
	if cfg.Gateway.Title == "" {
		cfg.Gateway.Title = "Credit/Debit Card"
	}
}

// Validate 验证配置完整性，逐项收集错误而不是遇错即停
func (c *Config) Validate() []FieldError {
	var errs []FieldError

	if c.MySQL.DSN == "" {
		errs = append(errs, FieldError{Field: "mysql.dsn", Info: "mysql dsn is required"})
	}
	if c.Redis.Addr == "" {
		errs = append(errs, FieldError{Field: "redis.addr", Info: "redis addr is required"})
	}
	if c.Security.NonceSecret == "" {
		errs = append(errs, FieldError{Field: "security.nonce_secret", Info: "nonce secret is required"})
	}

	errs = append(errs, c.Gateway.Validate()...)

	return errs
}

// Validate 网关设置校验，对应原商户后台保存设置时的检查
func (g *GatewayConfig) Validate() []FieldError {
	var errs []FieldError

	if g.Title == "" {
		errs = append(errs, FieldError{Field: "gateway.title", Info: "title is required"})
	}
	if g.ActivePublicKey() == "" {
		errs = append(errs, FieldError{Field: "gateway.public_key", Info: "public key is required for the active mode"})
	}
	if g.ActiveSecretKey() == "" {
		errs = append(errs, FieldError{Field: "gateway.secret_key", Info: "secret key is required for the active mode"})
	}

	switch g.ResolvedOrderStatus() {
	case "processing", "completed":
	default:
		errs = append(errs, FieldError{Field: "gateway.order_status", Info: "order status must be processing or completed"})
	}

	return errs
}
