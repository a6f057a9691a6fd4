package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iabetor/duotts/internal/config"
	"github.com/iabetor/duotts/internal/logger"
)

const defaultConfigPath = "configs/duotts.yaml"

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:           "duotts",
		Short:         "中英文混合文本转语音",
		Long:          "duotts 把中英文混合文本按文字体系切分，分别合成后拼接为一个音频文件，并按档位调整语速。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", fmt.Sprintf("配置文件路径 (默认 %s，不存在时使用内置默认值)", defaultConfigPath))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "覆盖配置中的日志级别 (debug/info/warn/error)")
	rootCmd.AddCommand(sayCmd, voicesCmd, historyCmd)
}

// loadConfig 读取配置并初始化日志。
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case configPath != "":
		cfg, err = config.Load(configPath)
	case fileExists(defaultConfigPath):
		cfg, err = config.Load(defaultConfigPath)
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	logger.Sync()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
