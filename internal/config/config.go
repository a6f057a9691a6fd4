package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iabetor/duotts/internal/logger"
	"github.com/iabetor/duotts/internal/voice"
)

// Config 是 duotts 的顶层配置结构。
type Config struct {
	Log     logger.Config `yaml:"log"`
	TTS     TTSConfig     `yaml:"tts"`
	Speed   SpeedConfig   `yaml:"speed"`
	Voice   VoiceConfig   `yaml:"voice"`
	Output  OutputConfig  `yaml:"output"`
	History HistoryConfig `yaml:"history"`
}

// TTSConfig 语音合成配置。
type TTSConfig struct {
	// Engine 可选 gtts、edge、tencent、piper、sherpa、stub。
	Engine string `yaml:"engine"`
	// TimeoutSec 单次引擎调用的超时（秒）。
	TimeoutSec int `yaml:"timeout_sec"`
	// Concurrency 同时进行的引擎调用数，1 表示顺序调用。
	Concurrency int `yaml:"concurrency"`

	GTTS    GTTSConfig    `yaml:"gtts"`
	Edge    EdgeConfig    `yaml:"edge"`
	Tencent TencentConfig `yaml:"tencent"`
	Piper   PiperConfig   `yaml:"piper"`
	Sherpa  SherpaConfig  `yaml:"sherpa"`
}

// GTTSConfig Google 翻译 TTS 配置。
type GTTSConfig struct {
	// URLTemplate 含一个 %s，替换为地区顶级域名。
	URLTemplate       string `yaml:"url_template"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// EdgeConfig Edge TTS 配置。键为 "语言|地区"，如 "en|co.uk"。
type EdgeConfig struct {
	Voices map[string]string `yaml:"voices"`
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string           `yaml:"secret_id"`
	SecretKey string           `yaml:"secret_key"`
	Region    string           `yaml:"region"`
	Voices    map[string]int64 `yaml:"voices"`
}

// PiperConfig Piper TTS 配置。
type PiperConfig struct {
	Binary          string            `yaml:"binary"`
	Models          map[string]string `yaml:"models"`
	SlowLengthScale float64           `yaml:"slow_length_scale"`
}

// SherpaConfig sherpa-onnx VITS 配置。
type SherpaConfig struct {
	Model      string         `yaml:"model"`
	Lexicon    string         `yaml:"lexicon"`
	Tokens     string         `yaml:"tokens"`
	DataDir    string         `yaml:"data_dir"`
	NumThreads int            `yaml:"num_threads"`
	Speakers   map[string]int `yaml:"speakers"`
}

// SpeedConfig 语速表配置。
type SpeedConfig struct {
	// Table 为 legacy3 或 current5。
	Table string `yaml:"table"`
}

// VoiceConfig 音色配置。
type VoiceConfig struct {
	// Default 未指定音色时使用的提示词。
	Default string `yaml:"default"`
	// Overrides 覆盖内置表，形如 han: {male: {language: zh-TW, region: com}}。
	Overrides map[string]map[string]voice.Params `yaml:"overrides"`
}

// OutputConfig 输出配置。
type OutputConfig struct {
	Dir string `yaml:"dir"`
	// Format 为 mp3 或 wav，决定拼接和变速后的编码格式。
	Format string `yaml:"format"`
	// PinyinFilenames 为 true 时文件名中的汉字转为拼音。
	PinyinFilenames bool `yaml:"pinyin_filenames"`
	// WorkDir 每个任务临时目录的父目录，空则使用系统临时目录。
	WorkDir string `yaml:"work_dir"`
}

// HistoryConfig 合成记录配置。
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 内容并填充默认值。
func Parse(data []byte) (*Config, error) {
	// 展开环境变量，如 ${TENCENT_SECRET_KEY}
	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回只含默认值的配置。
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Validate 检查取值范围。
func (c *Config) Validate() error {
	if _, err := voice.LookupTable(c.Speed.Table); err != nil {
		return fmt.Errorf("speed.table: %w", err)
	}
	switch c.Output.Format {
	case "mp3", "wav":
	default:
		return fmt.Errorf("output.format 必须是 mp3 或 wav: %q", c.Output.Format)
	}
	if c.TTS.Concurrency < 1 {
		return fmt.Errorf("tts.concurrency 必须 >= 1: %d", c.TTS.Concurrency)
	}
	return nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.TTS.Engine == "" {
		cfg.TTS.Engine = "gtts"
	}
	if cfg.TTS.TimeoutSec == 0 {
		cfg.TTS.TimeoutSec = 30
	}
	if cfg.TTS.Concurrency == 0 {
		cfg.TTS.Concurrency = 1
	}
	if cfg.TTS.GTTS.RequestsPerMinute == 0 {
		cfg.TTS.GTTS.RequestsPerMinute = 60
	}
	if cfg.TTS.Tencent.Region == "" {
		cfg.TTS.Tencent.Region = "ap-guangzhou"
	}
	if cfg.Speed.Table == "" {
		cfg.Speed.Table = voice.Current5.Name
	}
	if cfg.Voice.Default == "" {
		cfg.Voice.Default = string(voice.HintAuto)
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "mp3"
	}
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.History.DBPath == "" {
		cfg.History.DBPath = dataDir() + "/history.db"
	}

	// Go 不会自动展开 ~，需要手动替换为用户主目录
	cfg.Output.Dir = expandHome(cfg.Output.Dir)
	cfg.Output.WorkDir = expandHome(cfg.Output.WorkDir)
	cfg.History.DBPath = expandHome(cfg.History.DBPath)
	cfg.Log.File = expandHome(cfg.Log.File)
	for k, v := range cfg.TTS.Piper.Models {
		cfg.TTS.Piper.Models[k] = expandHome(v)
	}
	cfg.TTS.Sherpa.Model = expandHome(cfg.TTS.Sherpa.Model)
	cfg.TTS.Sherpa.Lexicon = expandHome(cfg.TTS.Sherpa.Lexicon)
	cfg.TTS.Sherpa.Tokens = expandHome(cfg.TTS.Sherpa.Tokens)
	cfg.TTS.Sherpa.DataDir = expandHome(cfg.TTS.Sherpa.DataDir)

	// 去除密钥两端可能的空白（环境变量展开后常见）
	cfg.TTS.Tencent.SecretID = strings.TrimSpace(cfg.TTS.Tencent.SecretID)
	cfg.TTS.Tencent.SecretKey = strings.TrimSpace(cfg.TTS.Tencent.SecretKey)
}

func dataDir() string {
	home, _ := os.UserHomeDir()
	if home != "" {
		return home + "/.duotts"
	}
	return "./.duotts-data"
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return path
	}
	return home + path[1:]
}
