package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iabetor/duotts/internal/voice"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "列出支持的音色和语速档位",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		resolver, err := voice.NewResolver(cfg.Voice.Overrides)
		if err != nil {
			return err
		}
		table, err := voice.LookupTable(cfg.Speed.Table)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "文字\t音色\t语言\t地区")
		for _, e := range resolver.Entries() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Script, e.Hint, e.Language, e.Region)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "语速表 %s:\n", table.Name)
		fmt.Fprintln(w, "档位\t名称\t倍速\t引擎慢速")
		for i := 0; i < table.Levels(); i++ {
			l := voice.Level(i)
			mark := ""
			if l == table.Normal() {
				mark = " (默认)"
			}
			fmt.Fprintf(w, "%d\t%s%s\t%.1f\t%v\n", i, table.Label(l), mark, table.Factor(l), table.Slow(l))
		}
		return w.Flush()
	},
}
