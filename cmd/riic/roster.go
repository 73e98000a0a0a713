package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/roster"
)

func newRosterCmd() *cobra.Command {
	var efficiencyFile string
	var operatorsFile string

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "按拼音顺序列出干员，并标出不在效率表中的干员",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(efficiencyFile)
			if err != nil {
				return err
			}
			workers, err := roster.LoadFile(operatorsFile)
			if err != nil {
				return err
			}
			roster.SortByName(workers)

			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"ID", "名字", "星级", "精英化", "等级", "可精英化", "效率表"}),
			)
			unknown := 0
			for _, w := range workers {
				known := "✓"
				if !cat.Has(w.ID) {
					known = "✗"
					unknown++
				}
				_ = table.Append([]string{
					w.ID,
					w.Name,
					fmt.Sprintf("%d★", w.Rarity),
					fmt.Sprintf("%d/%d", w.Tier, w.MaxTier),
					fmt.Sprintf("%d/%d", w.Level, domain.MaxLevel(w.Rarity, w.Tier)),
					yesNo(w.CanPromote()),
					known,
				})
			}
			_ = table.Render()

			if unknown > 0 {
				color.Yellow("%d 名干员不在效率表中，不参与排班", unknown)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&efficiencyFile, "efficiency", "e", "", "效率表文件，为空时使用内置效率表")
	cmd.Flags().StringVarP(&operatorsFile, "operators", "o", "", "MAA 导出的干员数据文件")
	_ = cmd.MarkFlagRequired("operators")

	return cmd
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
