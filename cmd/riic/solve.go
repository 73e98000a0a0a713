package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/data"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/report"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/roster"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/utils"
)

type solveOptions struct {
	efficiencyFile string
	operatorsFile  string
	configFile     string
	outDir         string
	timeout        time.Duration
	beamWidth      int
	nodeBudget     int64
	rotation       bool
	quiet          bool
	verbose        bool
}

func newSolveCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "计算当前练度和练满后的排班，并给出练度提升建议",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), opts)
		},
	}

	defaults := scheduler.DefaultParameters()
	cmd.Flags().StringVarP(&opts.efficiencyFile, "efficiency", "e", "", "效率表文件，为空时使用内置效率表")
	cmd.Flags().StringVarP(&opts.operatorsFile, "operators", "o", "", "MAA 导出的干员数据文件")
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "排班配置文件，为空时使用默认配置")
	cmd.Flags().StringVar(&opts.outDir, "out", ".", "结果输出目录")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "计算超时时间")
	cmd.Flags().IntVar(&opts.beamWidth, "beam", defaults.BeamWidth, "每个设施保留的候选组合数量")
	cmd.Flags().Int64Var(&opts.nodeBudget, "budget", defaults.NodeBudget, "每一班的搜索节点上限，0 表示不限制")
	cmd.Flags().BoolVar(&opts.rotation, "rotation", false, "上一班上岗的干员在下一班休息")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "只输出文件，不打印表格")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "打印求解日志")
	_ = cmd.MarkFlagRequired("operators")

	return cmd
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Load(data.Efficiency)
	}
	return catalog.LoadFile(path)
}

func runSolve(ctx context.Context, opts *solveOptions) error {
	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cat, err := loadCatalog(opts.efficiencyFile)
	if err != nil {
		return err
	}
	workers, err := roster.LoadFile(opts.operatorsFile)
	if err != nil {
		return err
	}

	cfg := domain.DefaultConfiguration()
	if opts.configFile != "" {
		cfg, err = utils.LoadConfigurationFile(opts.configFile)
		if err != nil {
			return err
		}
	}
	if opts.rotation {
		cfg.Rotation = true
	}

	parameters := scheduler.DefaultParameters()
	parameters.BeamWidth = opts.beamWidth
	parameters.NodeBudget = opts.nodeBudget

	if !opts.quiet {
		titleColor.Println("\n╭───────────────────────────╮")
		titleColor.Println("│  明日方舟基建排班生成器   │")
		titleColor.Println("╰───────────────────────────╯")
		infoColor.Printf("📦 效率表 %d 条（版本 %s），干员 %d 名\n\n", cat.Size(), cat.Version(), len(workers))
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	outcome, err := scheduler.NewOptimizer(cat, parameters, logger).Run(ctx, workers, cfg)
	if err != nil {
		return err
	}
	generatedAt := time.Now()

	if err := writeOutputs(opts.outDir, outcome, generatedAt); err != nil {
		return err
	}

	if opts.quiet {
		return nil
	}

	titleColor.Println("当前练度排班")
	printShifts(outcome.Current)
	titleColor.Println("练满后排班")
	printShifts(outcome.Potential)
	titleColor.Println("练度提升建议")
	printUpgrades(outcome.Upgrades)

	for _, w := range outcome.Warnings {
		color.Yellow("⚠️  %s", w)
	}
	color.New(color.FgGreen, color.Bold).Printf("\n✅ %s\n", report.Summary(outcome.Current, outcome.Potential))
	infoColor.Printf("结果已写入 %s\n", opts.outDir)

	return nil
}

// writeOutputs 写出 current_assignments.json、potential_assignments.json 和 upgrade_suggestions.txt
func writeOutputs(dir string, outcome *scheduler.Outcome, generatedAt time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for name, result := range map[string]*domain.SolveResult{
		"current_assignments.json":   outcome.Current,
		"potential_assignments.json": outcome.Potential,
	} {
		data, err := report.MarshalResult(result)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
	}

	text := report.UpgradeText(outcome.Upgrades, generatedAt)
	return os.WriteFile(filepath.Join(dir, "upgrade_suggestions.txt"), []byte(text), 0o644)
}

func printShifts(result *domain.SolveResult) {
	for _, shift := range result.Shifts {
		fmt.Printf("第 %d 班", shift.Shift)
		if shift.DroneTarget != "" {
			fmt.Printf("（无人机: %s）", shift.DroneTarget)
		}
		fmt.Println()

		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"设施", "干员", "效率", "倍率", "得分"}),
		)
		for _, fa := range shift.Facilities {
			names := make([]string, len(fa.Workers))
			for i, w := range fa.Workers {
				names[i] = fmt.Sprintf("%s(精%d)", w.Name, w.Tier)
			}
			multiplier := fmt.Sprintf("×%.2f", fa.Weight*fa.Multiplier)
			if fa.DroneBoosted {
				multiplier += " 🚁"
			}
			row := []string{
				fa.Facility.Name(),
				strings.Join(names, "、"),
				fmt.Sprintf("%.1f", fa.RawScore),
				multiplier,
				fmt.Sprintf("%.1f", fa.Score),
			}
			_ = table.Append(row)
		}
		_ = table.Render()

		fmt.Printf("本班总效率: %.1f", shift.TotalEfficiency)
		if shift.RechargeTarget != nil {
			fmt.Printf("，菲亚梅塔充能: %s（%s）", shift.RechargeTarget.Name, shift.RechargeTarget.Facility)
		}
		if shift.Suboptimal {
			color.New(color.FgYellow).Print("，结果可能不是最优")
		}
		fmt.Print("\n\n")
	}
	color.New(color.FgGreen).Printf("三班合计: %.1f\n\n", result.TotalEfficiency)
}

func printUpgrades(upgrades []domain.UpgradeItem) {
	if len(upgrades) == 0 {
		color.Green("无需提升练度。\n")
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "类型", "干员", "精英化", "收益", "三班合计"}),
	)
	for i, item := range upgrades {
		kind := "单人"
		if item.Kind == domain.UpgradeBundle {
			kind = "组合"
		}
		steps := make([]string, len(item.Workers))
		for j, step := range item.Workers {
			steps[j] = fmt.Sprintf("精%d→精%d", step.CurrentTier, step.TargetTier)
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			kind,
			strings.Join(item.Names(), "+"),
			strings.Join(steps, " / "),
			report.FormatGain(item.Gain),
			fmt.Sprintf("+%.1f", item.AbsoluteGain),
		}
		_ = table.Append(row)
	}
	_ = table.Render()
}
