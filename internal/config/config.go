package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Branding BrandingConfig `mapstructure:"branding"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN 返回 postgres 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	Channel  string `mapstructure:"channel"`
}

// Enabled redis 未配置主机时走进程内事件
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// JWTConfig 邀请链接签名
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	Issuer            string        `mapstructure:"issuer"`
	InviteTokenExpire time.Duration `mapstructure:"invite_token_expire"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PDFConfig 外部 PDF 渲染进程
type PDFConfig struct {
	Python          string        `mapstructure:"python"`
	Script          string        `mapstructure:"script"`
	WorkDir         string        `mapstructure:"work_dir"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DefaultLanguage string        `mapstructure:"default_language"`
}

type BrandingConfig struct {
	MaxSize   int64  `mapstructure:"max_size"`
	UploadDir string `mapstructure:"upload_dir"`
}

// SeedConfig 启动时的默认 GP 团队
type SeedConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	TeamName        string `mapstructure:"team_name"`
	AdminName       string `mapstructure:"admin_name"`
	AdminEmail      string `mapstructure:"admin_email"`
	Timezone        string `mapstructure:"timezone"`
	DefaultLanguage string `mapstructure:"default_language"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// 配置文件不存在，使用默认值和环境变量
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "kyc")
	v.SetDefault("database.dbname", "kyc")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 10*time.Minute)

	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.channel", "kyc:approval-events")

	v.SetDefault("minio.bucket", "kyc")

	v.SetDefault("jwt.secret", "change-me-kyc-invite-secret")
	v.SetDefault("jwt.issuer", "fundy-kyc")
	v.SetDefault("jwt.invite_token_expire", 14*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("pdf.python", "python3")
	v.SetDefault("pdf.script", "scripts/render_kyc_pdf.py")
	v.SetDefault("pdf.work_dir", os.TempDir())
	v.SetDefault("pdf.timeout", 30*time.Second)
	v.SetDefault("pdf.default_language", "ar")

	v.SetDefault("branding.max_size", 5*1024*1024)
	v.SetDefault("branding.upload_dir", "./uploads/branding")

	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.team_name", "GP Team")
	v.SetDefault("seed.admin_name", "GP Admin")
	v.SetDefault("seed.admin_email", "gp@example.com")
	v.SetDefault("seed.timezone", "Asia/Riyadh")
	v.SetDefault("seed.default_language", "ar")
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// MinIO
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// PDF
	v.BindEnv("pdf.python", "PDF_PYTHON")
	v.BindEnv("pdf.script", "PDF_SCRIPT")

	// Seed
	v.BindEnv("seed.enabled", "SEED_ENABLED")
	v.BindEnv("seed.admin_email", "SEED_ADMIN_EMAIL")
}

// GetEnvOrDefault 获取环境变量，如果不存在则返回默认值
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
