package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Session    SessionConfig    `mapstructure:"session"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	App        AppConfig        `mapstructure:"app"`
}

type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RefreshPath    string        `mapstructure:"refresh_path"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"` // 每秒请求数，0 表示不限流
	Burst          int           `mapstructure:"burst"`
}

type CloudinaryConfig struct {
	UploadURL   string `mapstructure:"upload_url"` // 含 %s 占位符，替换为 cloud_name
	MaxFileSize int64  `mapstructure:"max_file_size"`
	Concurrency int    `mapstructure:"concurrency"`
}

// 会话 Cookie 的持久化方式
const (
	SessionStoreMemory = "memory"
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
)

type SessionConfig struct {
	Store   string `mapstructure:"store"`
	Path    string `mapstructure:"path"`
	Profile string `mapstructure:"profile"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.refresh_path", "user/token/refresh/")
	v.SetDefault("api.refresh_timeout", 10*time.Second)
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.burst", 10)
	v.SetDefault("cloudinary.upload_url", "https://api.cloudinary.com/v1_1/%s/image/upload")
	v.SetDefault("cloudinary.max_file_size", 2*1024*1024)
	v.SetDefault("cloudinary.concurrency", 5)
	v.SetDefault("session.store", SessionStoreFile)
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("session.profile", "default")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("app.env", "dev")
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".postify-session.json"
	}
	return dir + "/postify/session.json"
}

// Default 返回只包含默认值的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.RefreshPath == "" {
		return errors.New("api.refresh_path is required")
	}
	if c.API.RateLimit < 0 {
		return errors.New("api.rate_limit cannot be negative")
	}
	if c.API.RateLimit > 0 && c.API.Burst <= 0 {
		return errors.New("api.burst must be positive when rate limiting is enabled")
	}
	if !strings.Contains(c.Cloudinary.UploadURL, "%s") {
		return errors.New("cloudinary.upload_url must contain a %s placeholder for the cloud name")
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreFile:
		if c.Session.Path == "" {
			return errors.New("session.path is required for the file store")
		}
	case SessionStoreRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis address is required")
		}
	default:
		return fmt.Errorf("unknown session.store %q", c.Session.Store)
	}

	return nil
}

// LoadConfig 加载配置
// path 为空时按 APP_ENV 在 ./configs 和当前目录下查找 config[.env].yaml
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		env := os.Getenv("APP_ENV")
		configName := "config"
		if env != "" && env != "dev" {
			configName = "config." + env
		}
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// 未找到配置文件时使用默认值和环境变量；显式指定的文件必须存在
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// 绑定环境变量 POSTIFY_API_BASE_URL 等
	v.SetEnvPrefix("POSTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 与前端共用的环境变量
	if base := os.Getenv("API_BASE_URL"); base != "" {
		cfg.API.BaseURL = base
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.App.Env = env
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}
