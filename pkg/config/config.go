package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	FFmpegPath             string        `json:"ffmpeg_path"`              // FFmpeg 可执行文件路径
	Encoder                string        `json:"encoder"`                  // ffmpeg 或 native（仅 wav）
	NativeTags             bool          `json:"native_tags"`              // 编码后用 id3v2/flacvorbis 重写标签
	Naming                 string        `json:"naming"`                   // numbered 或 plain
	MaxConcurrentFiles     int           `json:"max_concurrent_files"`     // 同时处理的镜像文件数
	ConvertT2S             bool          `json:"convert_t2s"`              // 标签繁体转简体
	SkipProcessed          bool          `json:"skip_processed"`           // 批量模式跳过已处理的 CUE
	DataDir                string        `json:"data_dir"`                 // SQLite数据库文件存放目录
	DBFileName             string        `json:"db_file_name"`             // SQLite数据库文件名
	DBPath                 string        `json:"-"`                        // 完整的数据库文件路径
	StabilityCheckInterval time.Duration `json:"stability_check_interval"` // 每次检查的间隔
	StabilityQuietDuration time.Duration `json:"stability_quiet_duration"` // 文件在多长时间内没有变化才算稳定
	StabilityMaxWait       time.Duration `json:"stability_max_wait"`       // 最长等待文件稳定的时间
}

const (
	dataDir    = "./data"
	dbFileName = "cuesplit.db"
	ffmpeg     = "ffmpeg"
	encoder    = "ffmpeg"
	naming     = "numbered"

	maxConcurrentFiles = 1

	// 文件稳定性检查相关参数
	stabilityCheckInterval = 5 * time.Second
	stabilityQuietDuration = 30 * time.Second
	stabilityMaxWait       = 6 * time.Hour
)

// LoadConfig 从环境变量或默认值加载配置
func LoadConfig() (*Config, error) {
	// 尝试加载 .env 文件
	_ = godotenv.Load()

	cfg := &Config{
		FFmpegPath:             os.Getenv("FFMPEG_PATH"),
		Encoder:                strings.ToLower(os.Getenv("ENCODER")),
		NativeTags:             parseBoolOrDefault(os.Getenv("NATIVE_TAGS"), true),
		Naming:                 strings.ToLower(os.Getenv("NAMING")),
		MaxConcurrentFiles:     parseIntOrDefault(os.Getenv("MAX_CONCURRENT_FILES"), maxConcurrentFiles),
		ConvertT2S:             parseBoolOrDefault(os.Getenv("CONVERT_T2S"), false),
		SkipProcessed:          parseBoolOrDefault(os.Getenv("SKIP_PROCESSED"), false),
		DataDir:                os.Getenv("DATA_DIR"),
		DBFileName:             os.Getenv("DB_FILE_NAME"),
		StabilityCheckInterval: parseDurationOrDefault(os.Getenv("STABILITY_CHECK_INTERVAL"), stabilityCheckInterval),
		StabilityQuietDuration: parseDurationOrDefault(os.Getenv("STABILITY_QUIET_DURATION"), stabilityQuietDuration),
		StabilityMaxWait:       parseDurationOrDefault(os.Getenv("STABILITY_MAX_WAIT"), stabilityMaxWait),
	}

	// 设置默认值
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = ffmpeg
	}
	if cfg.Encoder == "" {
		cfg.Encoder = encoder
	}
	if cfg.Naming == "" {
		cfg.Naming = naming
	}
	if cfg.MaxConcurrentFiles < 1 {
		log.Printf("Warning: MAX_CONCURRENT_FILES must be at least 1, using %d", maxConcurrentFiles)
		cfg.MaxConcurrentFiles = maxConcurrentFiles
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if cfg.DBFileName == "" {
		cfg.DBFileName = dbFileName
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, cfg.DBFileName)
	return cfg, nil
}

// EnsureDataDir 创建数据库目录，只有需要 SQLite 时才调用
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", c.DataDir, err)
	}
	return nil
}

// NeedsStore 批量跳过或监听模式需要记录已处理的 CUE
func (c *Config) NeedsStore(watch bool) bool {
	return c.SkipProcessed || watch
}

func parseDurationOrDefault(s string, defaultValue time.Duration) time.Duration {
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Warning: Could not parse duration '%s', using default '%v'. Error: %v", s, defaultValue, err)
		return defaultValue
	}
	return d
}

func parseBoolOrDefault(s string, defaultValue bool) bool {
	if s == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Printf("Warning: Could not parse bool '%s', using default '%v'. Error: %v", s, defaultValue, err)
		return defaultValue
	}
	return b
}

func parseIntOrDefault(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Warning: Could not parse integer '%s', using default '%d'. Error: %v", s, defaultValue, err)
		return defaultValue
	}
	return n
}
