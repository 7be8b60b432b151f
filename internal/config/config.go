package config

import (
	"log"
	"strings"

	"github.com/spf13/viper" // 导入 Viper
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	AliyunOSS AliyunOSSConfig `mapstructure:"aliyun_oss"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Token     TokenConfig     `mapstructure:"token"`
	Storage   StorageConfig   `mapstructure:"storageconfig"`
	Share     ShareConfig     `mapstructure:"share"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"` // 对外的访问地址，用于拼接分享链接 <base_url>?code=<CODE>
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// RabbitMQConfig RabbitMQ配置
type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

// TokenConfig 下载令牌配置
// 访问分享成功后签发的短期令牌，后续的文件下载请求凭此令牌放行
type TokenConfig struct {
	SecretKey        string `mapstructure:"secret_key"`
	ExpiresInMinutes int    `mapstructure:"expires_in_minutes"`
	Issuer           string `mapstructure:"issuer"`
}

type StorageConfig struct {
	Type               string `mapstructure:"type"`                 // minio 或 aliyun_oss
	PresignedURLExpiry int    `mapstructure:"presigned_url_expiry"` // 预签名URL有效期（分钟）
}

// ShareConfig 分享相关配置
type ShareConfig struct {
	DefaultExpiry string `mapstructure:"default_expiry"` // 默认有效期符号，例如 "1h"
	SweepCron     string `mapstructure:"sweep_cron"`     // 过期分享清理任务的 cron 表达式
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// BucketName 返回当前存储后端对应的桶名
func (c *Config) BucketName() string {
	if c.Storage.Type == "aliyun_oss" {
		return c.AliyunOSS.BucketName
	}
	return c.MinIO.BucketName
}

var AppConfig *Config // 全局应用配置实例

// LoadConfig 加载配置
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")            // 配置文件名 (不带扩展名)
	viper.SetConfigType("yaml")              // 配置文件类型
	viper.AddConfigPath(".")                 // 在当前目录查找配置文件
	viper.AddConfigPath("./configs")         // 也可以添加其他路径，例如 ./configs/
	viper.AddConfigPath("/etc/go-shareflow/") // 生产环境常见路径

	// 读取环境变量，环境变量名将自动转换为大写，并用下划线替换点
	// 例如：SERVER.PORT 对应环境变量 GO_SHAREFLOW_SERVER_PORT
	viper.SetEnvPrefix("GO_SHAREFLOW")
	viper.AutomaticEnv()

	// 确保Viper能正确映射如 MYSQL_DSN 到 mysql.dsn
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	// 默认值：配置文件和环境变量中都没有时生效
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("storageconfig.type", "minio")
	viper.SetDefault("storageconfig.presigned_url_expiry", 15)
	viper.SetDefault("token.expires_in_minutes", 30)
	viper.SetDefault("token.issuer", "go-shareflow")
	viper.SetDefault("share.default_expiry", "1h")
	viper.SetDefault("share.sweep_cron", "@every 10m")

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到，但这不是致命错误，因为我们可以依赖环境变量或默认值
			log.Println("Warning: config file not found, using environment variables or default values.")
		} else {
			// 其他读取错误，例如配置文件格式错误
			log.Fatalf("Fatal error reading config file: %s \n", err)
			return nil, err
		}
	}

	// 将读取到的配置绑定到结构体
	AppConfig = &Config{}
	if err := viper.Unmarshal(AppConfig); err != nil {
		log.Fatalf("Fatal error unmarshaling config: %s \n", err)
		return nil, err
	}

	log.Println("Configuration loaded successfully with Viper.")
	return AppConfig, nil
}
