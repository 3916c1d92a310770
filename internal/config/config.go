package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Judge0    Judge0Config
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig `mapstructure:"rabbitmq"`
	AI        AIConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scoring   ScoringPolicy   `mapstructure:"scoring_policy"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool   `mapstructure:"-"`
	MigrateOnly  bool   `mapstructure:"-"`
	ConfigFile   string `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// AIConfig 主观题评估与简历解析使用的大模型
type AIConfig struct {
	Provider       string `mapstructure:"provider"` // openai | vertex
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	VertexProject  string `mapstructure:"vertex_project"`
	VertexLocation string `mapstructure:"vertex_location"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string // mysql | sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	Path      string // sqlite file path
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

// Judge0Config 代码执行服务
type Judge0Config struct {
	APIKey string `mapstructure:"api_key"`
	URL    string
	Host   string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Queue   string `mapstructure:"queue"`
}

// ScoringPolicy 评分相关的全部数值常量，均可在配置中调整并热加载
type ScoringPolicy struct {
	TabSwitchPenalty         float64            `mapstructure:"tab_switch_penalty"`
	CopyPastePenalty         float64            `mapstructure:"copy_paste_penalty"`
	SeverityPenalties        map[string]float64 `mapstructure:"severity_penalties"`
	TabSwitchReviewThreshold int                `mapstructure:"tab_switch_review_threshold"`
	CopyPasteReviewThreshold int                `mapstructure:"copy_paste_review_threshold"`
	GapLowThreshold          float64            `mapstructure:"gap_low_threshold"`
	GapPassThreshold         float64            `mapstructure:"gap_pass_threshold"`
	ReportUnclaimedStrengths bool               `mapstructure:"report_unclaimed_strengths"`
	StrongHireScore          float64            `mapstructure:"strong_hire_score"`
	IntegrityFloor           float64            `mapstructure:"integrity_floor"`
	EvaluatorTimeout         time.Duration      `mapstructure:"evaluator_timeout"`
	ExecutorTimeout          time.Duration      `mapstructure:"executor_timeout"`
}

// DefaultScoringPolicy 产品尚未最终确认的默认值
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		TabSwitchPenalty: 2,
		CopyPastePenalty: 5,
		SeverityPenalties: map[string]float64{
			"low":    5,
			"medium": 10,
			"high":   20,
		},
		TabSwitchReviewThreshold: 5,
		CopyPasteReviewThreshold: 3,
		GapLowThreshold:          40,
		GapPassThreshold:         60,
		ReportUnclaimedStrengths: true,
		StrongHireScore:          85,
		IntegrityFloor:           70,
		EvaluatorTimeout:         20 * time.Second,
		ExecutorTimeout:          30 * time.Second,
	}
}

func setDefaults(v *viper.Viper) {
	def := DefaultScoringPolicy()
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./uploads")
	v.SetDefault("rabbitmq.queue", "reevaluation_queue")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("scoring_policy.tab_switch_penalty", def.TabSwitchPenalty)
	v.SetDefault("scoring_policy.copy_paste_penalty", def.CopyPastePenalty)
	v.SetDefault("scoring_policy.severity_penalties", def.SeverityPenalties)
	v.SetDefault("scoring_policy.tab_switch_review_threshold", def.TabSwitchReviewThreshold)
	v.SetDefault("scoring_policy.copy_paste_review_threshold", def.CopyPasteReviewThreshold)
	v.SetDefault("scoring_policy.gap_low_threshold", def.GapLowThreshold)
	v.SetDefault("scoring_policy.gap_pass_threshold", def.GapPassThreshold)
	v.SetDefault("scoring_policy.report_unclaimed_strengths", def.ReportUnclaimedStrengths)
	v.SetDefault("scoring_policy.strong_hire_score", def.StrongHireScore)
	v.SetDefault("scoring_policy.integrity_floor", def.IntegrityFloor)
	v.SetDefault("scoring_policy.evaluator_timeout", def.EvaluatorTimeout)
	v.SetDefault("scoring_policy.executor_timeout", def.ExecutorTimeout)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("RECRUIT")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// RabbitMQ
	v.BindEnv("rabbitmq.url", "RABBITMQ_URL")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// AI
	v.BindEnv("ai.provider", "AI_PROVIDER")
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")
	v.BindEnv("ai.vertex_project", "GOOGLE_CLOUD_PROJECT")
	v.BindEnv("ai.vertex_location", "GOOGLE_CLOUD_LOCATION")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Judge0
	v.BindEnv("judge0.api_key", "JUDGE0_API_KEY")
	v.BindEnv("judge0.url", "JUDGE0_URL")
	v.BindEnv("judge0.host", "JUDGE0_HOST")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring_policy: %w", err)
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (p ScoringPolicy) Validate() error {
	if p.TabSwitchPenalty < 0 || p.CopyPastePenalty < 0 {
		return fmt.Errorf("penalties must not be negative")
	}
	for sev, v := range p.SeverityPenalties {
		if v < 0 {
			return fmt.Errorf("severity penalty %q must not be negative", sev)
		}
	}
	if p.GapLowThreshold > p.GapPassThreshold {
		return fmt.Errorf("gap_low_threshold (%.0f) above gap_pass_threshold (%.0f)", p.GapLowThreshold, p.GapPassThreshold)
	}
	if p.IntegrityFloor < 0 || p.IntegrityFloor > 100 {
		return fmt.Errorf("integrity_floor must be within 0-100")
	}
	return nil
}
