package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iabetor/duotts/internal/audio"
	"github.com/iabetor/duotts/internal/logger"
	"github.com/iabetor/duotts/internal/pipeline"
	"github.com/iabetor/duotts/internal/voice"
)

var sayOpts struct {
	speed  int
	voice  string
	engine string
	format string
	outDir string
	play   bool
}

var sayCmd = &cobra.Command{
	Use:   "say [文本]",
	Short: "合成一段文本并写入输出目录",
	Long: `合成一段文本。文本可以作为参数给出，省略或为 "-" 时从标准输入读取。

语速档位取决于 speed.table：
  current5: 0=最慢 1=慢速 2=正常 3=快速 4=最快
  legacy3:  0=慢速 1=正常 2=快速`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSay,
}

func init() {
	f := sayCmd.Flags()
	f.IntVarP(&sayOpts.speed, "speed", "s", -1, "语速档位 (默认为当前语速表的正常档)")
	f.StringVarP(&sayOpts.voice, "voice", "v", "", "音色: auto/female/male/host")
	f.StringVarP(&sayOpts.engine, "engine", "e", "", "覆盖配置中的合成引擎 (gtts/edge/tencent/piper/sherpa/stub)")
	f.StringVarP(&sayOpts.format, "format", "f", "", "覆盖输出格式 (mp3/wav)")
	f.StringVarP(&sayOpts.outDir, "output", "o", "", "覆盖输出目录")
	f.BoolVarP(&sayOpts.play, "play", "p", false, "合成后通过扬声器播放")
}

func runSay(cmd *cobra.Command, args []string) error {
	text, err := readText(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if sayOpts.engine != "" {
		cfg.TTS.Engine = sayOpts.engine
	}
	if sayOpts.format != "" {
		cfg.Output.Format = strings.ToLower(sayOpts.format)
	}
	if sayOpts.outDir != "" {
		cfg.Output.Dir = sayOpts.outDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	orch, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer orch.Close()

	level := orch.SpeedTable().Normal()
	if cmd.Flags().Changed("speed") {
		level = voice.Level(sayOpts.speed)
	}

	res, err := orch.Run(cmd.Context(), pipeline.Request{Text: text, Speed: level, Voice: sayOpts.voice})
	if err != nil {
		return err
	}

	table := orch.SpeedTable()
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", res.Path)
	fmt.Fprintf(cmd.ErrOrStderr(), "任务 %s: %s, %d 个片段, 语速 %s (x%.1f), 时长 %s\n",
		res.JobID, res.Class, res.Runs, table.Label(res.Speed), res.Factor, res.Duration.Round(time.Millisecond))

	if sayOpts.play {
		return playFile(cmd, res)
	}
	return nil
}

func readText(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("读取标准输入失败: %w", err)
	}
	return string(data), nil
}

func playFile(cmd *cobra.Command, res *pipeline.Result) error {
	data, err := os.ReadFile(res.Path)
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", res.Path, err)
	}
	player, err := audio.NewPlayer()
	if err != nil {
		return err
	}
	defer player.Close()

	logger.Debugf("[main] 播放 %s", res.Path)
	return player.PlayClip(cmd.Context(), audio.Clip{Data: data, Format: res.Format})
}
