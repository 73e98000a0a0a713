package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "riic",
		Short: "明日方舟基建排班生成器",
		Long: `根据效率表和 MAA 导出的干员数据，为贸易站、制造站和发电站生成三班排班，
并对比练满后的排班给出练度提升建议。`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSolveCmd(), newRosterCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
