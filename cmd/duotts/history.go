package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iabetor/duotts/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查看最近的合成记录",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.History.Enabled {
			return fmt.Errorf("未启用历史记录，请在配置文件中设置 history.enabled: true")
		}
		db, err := history.Open(cfg.History.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := history.NewStore(db).Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "暂无记录")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "时间\t类型\t语速\t音色\t引擎\t时长\t文件")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s/%d\t%s\t%s\t%s\t%s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Class, r.SpeedTable, r.SpeedLevel,
				r.Voice, r.Engine, r.Duration.Round(10*time.Millisecond), r.Path)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "显示条数")
}
