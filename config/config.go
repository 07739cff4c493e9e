package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/basketrec/model"
	"github.com/rushteam/basketrec/pkg/logging"
	"github.com/rushteam/basketrec/store"
)

// EnvPrefix 是环境变量前缀：BASKETREC_RECOMMEND_TOP_K -> recommend.top_k
const EnvPrefix = "BASKETREC_"

// PathEnvVar 指定配置文件路径。
const PathEnvVar = EnvPrefix + "CONFIG"

// 事实数据来源
const (
	FactSourceDatabase = "database"
	FactSourceCSV      = "csv"
)

// Config 是服务配置。优先级：环境变量 > 配置文件 > 默认值。
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       logging.Config  `koanf:"log"`
	Facts     FactsConfig     `koanf:"facts"`
	Model     ModelConfig     `koanf:"model"`
	Recommend RecommendConfig `koanf:"recommend"`
	Cache     CacheConfig     `koanf:"cache"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// FactsConfig 描述订单事实从哪里读取。
type FactsConfig struct {
	Source    string `koanf:"source"`     // database / csv
	Driver    string `koanf:"driver"`     // postgres / sqlite
	DSN       string `koanf:"dsn"`
	CSVDir    string `koanf:"csv_dir"`
	PriorOnly bool   `koanf:"prior_only"` // 只用 prior 订单的关联记录

	// RefreshInterval 是重新读取事实数据、检查版本的间隔
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

type ModelConfig struct {
	Kind     string        `koanf:"kind"` // gbdt / lr / rpc
	Path     string        `koanf:"path"`
	Endpoint string        `koanf:"endpoint"`
	Timeout  time.Duration `koanf:"timeout"`
}

// Options 转换为 model.Load 的参数。
func (c ModelConfig) Options() model.Options {
	return model.Options{Kind: c.Kind, Path: c.Path, Endpoint: c.Endpoint, Timeout: c.Timeout}
}

// RecommendConfig 是推荐链路参数。
type RecommendConfig struct {
	CandidateTopN int     `koanf:"candidate_top_n"`
	TopK          int     `koanf:"top_k"`
	Shards        int     `koanf:"shards"` // 0 表示按 CPU 数
	FilterExpr    string  `koanf:"filter_expr"`
	Blacklist     []int64 `koanf:"blacklist"`
	BlacklistKey  string  `koanf:"blacklist_key"`
	PipelineFile  string  `koanf:"pipeline_file"` // 可选，YAML 描述的 Pipeline
}

// CacheConfig 是推荐结果缓存配置。
type CacheConfig struct {
	Backend   string        `koanf:"backend"` // none / memory / redis
	TTL       time.Duration `koanf:"ttl"`
	RedisAddr string        `koanf:"redis_addr"`
	RedisDB   int           `koanf:"redis_db"`
}

// StoreOptions 转换为 store.Open 的参数。
func (c CacheConfig) StoreOptions() store.Options {
	return store.Options{Backend: c.Backend, RedisAddr: c.RedisAddr, RedisDB: c.RedisDB, Timeout: 5 * time.Second}
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: logging.Config{Level: "info", Format: "json"},
		Facts: FactsConfig{
			Source:    FactSourceCSV,
			Driver:    "postgres",
			CSVDir:    "data",
			PriorOnly: true,

			RefreshInterval: time.Minute,
		},
		Model: ModelConfig{
			Kind:    model.KindGBDT,
			Path:    "models/lgbm_model.txt",
			Timeout: 5 * time.Second,
		},
		Recommend: RecommendConfig{
			CandidateTopN: 1000,
			TopK:          10,
			BlacklistKey:  "basketrec:blacklist",
		},
		Cache: CacheConfig{
			Backend:   store.BackendMemory,
			TTL:       5 * time.Minute,
			RedisAddr: "127.0.0.1:6379",
		},
	}
}

// Load 依次加载默认值、配置文件（path 为空时读 BASKETREC_CONFIG，仍为空则跳过）与环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKey 把 BASKETREC_FACTS_CSV_DIR 转换为 facts.csv_dir：第一个下划线分隔一级配置段。
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + rest
}

// Validate 校验配置取值。
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Facts.Source {
	case FactSourceDatabase:
		if c.Facts.DSN == "" {
			return fmt.Errorf("facts.dsn is required for source %q", c.Facts.Source)
		}
	case FactSourceCSV:
		if c.Facts.CSVDir == "" {
			return fmt.Errorf("facts.csv_dir is required for source %q", c.Facts.Source)
		}
	default:
		return fmt.Errorf("facts.source must be %q or %q, got %q", FactSourceDatabase, FactSourceCSV, c.Facts.Source)
	}
	switch c.Model.Kind {
	case model.KindGBDT, model.KindLR, model.KindRPC:
	default:
		return fmt.Errorf("model.kind %q is not supported", c.Model.Kind)
	}
	if c.Recommend.CandidateTopN <= 0 {
		return fmt.Errorf("recommend.candidate_top_n must be positive")
	}
	if c.Recommend.TopK <= 0 {
		return fmt.Errorf("recommend.top_k must be positive")
	}
	switch c.Cache.Backend {
	case "", store.BackendNone, store.BackendMemory, store.BackendRedis:
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	return nil
}
