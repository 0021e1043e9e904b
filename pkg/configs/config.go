// Package configs 管理应用程序配置，包括数据库、存储、队列以及下载配额等业务配置.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing DB config:
//
//	dsn := configs.GetConfig().DB.GetDSN()
//
// Example accessing quota config:
//
//	quota := configs.GetConfig().Quota
//	fmt.Println(quota.WeeklyLimit, quota.GetWindow())
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yeisme/notesphere/pkg/rule"
)

// AppVersion 应用版本号.
const AppVersion = "1.0.0"

// EnvPrefix 环境变量前缀，例如 NOTESPHERE_SERVER_PORT.
const EnvPrefix = "NOTESPHERE"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器配置，端口、调试模式等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		Storage        StorageConfig        `mapstructure:"storage"`         // StorageConfig 笔记文件存储配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 键值存储配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 领域事件开关
		Auth           AuthConfig           `mapstructure:"auth"`            // AuthConfig 身份认证配置
		Quota          QuotaConfig          `mapstructure:"quota"`           // QuotaConfig 下载配额配置
		Summary        SummaryConfig        `mapstructure:"summary"`         // SummaryConfig 摘要生成配置
		Cache          CacheConfig          `mapstructure:"cache"`           // CacheConfig 响应缓存配置
		Scheduler      SchedulerConfig      `mapstructure:"scheduler"`       // SchedulerConfig 定时任务配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断配置
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 若 path 下存在 .env 文件，会先通过 godotenv 加载到进程环境变量中.
func InitConfig(path string) error {
	loadDotEnv(path)

	appViper = viper.New()
	// 设置默认值
	SetDefaults(appViper)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(path + "/configs")

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	// 读取配置，没有配置文件时使用默认值与环境变量
	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 解析到全局配置
	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&globalConfig); err != nil {
		return err
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// loadDotEnv 加载 .env 文件，不存在时静默跳过.
func loadDotEnv(path string) {
	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
	}

	envFile := filepath.Join(dir, ".env")
	if _, err := os.Stat(envFile); err != nil {
		return
	}

	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("failed to load %s: %v\n", envFile, err)
	}
}

// SetDefaults 设置所有配置的默认值.
func SetDefaults(v *viper.Viper) {
	var (
		serverConfig  ServerConfig
		logConfig     LogConfig
		dbConfig      DBConfig
		s3Config      S3Config
		storageConfig StorageConfig
		kvConfig      KVConfig
		mqConfig      MQConfig
		eventsConfig  EventsConfig
		authConfig    AuthConfig
		quotaConfig   QuotaConfig
		summaryConfig SummaryConfig
		cacheConfig   CacheConfig
		schedConfig   SchedulerConfig
		metricsConfig MetricsConfig
		tracingConfig TracingConfig
		rateLimitCfg  RateLimitConfig
		cbConfig      CircuitBreakerConfig
	)

	serverConfig.setDefaults(v)
	logConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	s3Config.setDefaults(v)
	storageConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	authConfig.setDefaults(v)
	quotaConfig.setDefaults(v)
	summaryConfig.setDefaults(v)
	cacheConfig.setDefaults(v)
	schedConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimitCfg.setDefaults(v)
	cbConfig.setDefaults(v)
}

// Validate 按 rule 标签校验配置.
func Validate(c *AppConfig) error {
	if err := rule.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}

// Default 构造一份只包含默认值的配置，便于测试与命令行工具使用.
func Default() AppConfig {
	v := viper.New()
	SetDefaults(v)

	var c AppConfig
	_ = v.Unmarshal(&c)

	return c
}
