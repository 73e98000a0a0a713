package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatGain 把相对收益格式化为百分比，Gain 总是比例（0.05 表示 5%）
func FormatGain(gain float64) string {
	return fmt.Sprintf("%.1f%%", gain*100)
}

// Lines 返回每条建议的文字描述，邮件和命令行共用
func Lines(upgrades []domain.UpgradeItem) []string {
	lines := make([]string, 0, len(upgrades))
	for _, item := range upgrades {
		switch item.Kind {
		case domain.UpgradeBundle:
			lines = append(lines, fmt.Sprintf("[组合] %s | 收益: %s", strings.Join(item.Names(), "+"), FormatGain(item.Gain)))
		default:
			lines = append(lines, fmt.Sprintf("[单人] %s | 收益: %s", strings.Join(item.Names(), "+"), FormatGain(item.Gain)))
		}
	}
	return lines
}

// UpgradeText 生成练度提升建议报告（upgrade_suggestions.txt）
func UpgradeText(upgrades []domain.UpgradeItem, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("=== 练度提升建议报告 ===\n\n")
	fmt.Fprintf(&b, "生成时间: %s\n", generatedAt.Format(timeLayout))
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	if len(upgrades) == 0 {
		b.WriteString("无需提升练度。\n")
		return b.String()
	}

	lines := Lines(upgrades)
	for i, item := range upgrades {
		b.WriteString(lines[i] + "\n")
		for _, step := range item.Workers {
			if item.Kind == domain.UpgradeBundle {
				fmt.Fprintf(&b, "  - %s: 精%d -> 精%d\n", step.Name, step.CurrentTier, step.TargetTier)
			} else {
				fmt.Fprintf(&b, "  - 精%d -> 精%d\n", step.CurrentTier, step.TargetTier)
			}
		}
		fmt.Fprintf(&b, "  三班合计效率 +%.1f\n", item.AbsoluteGain)
		b.WriteString(strings.Repeat("-", 30) + "\n")
	}

	return b.String()
}

// Summary 是一次计算的简要说明
func Summary(current, potential *domain.SolveResult) string {
	first := 0.0
	if len(current.Shifts) > 0 {
		first = current.Shifts[0].TotalEfficiency
	}
	s := fmt.Sprintf("当前方案首班效率参考: %.2f，三班合计 %.2f；练满后三班合计 %.2f", first, current.TotalEfficiency, potential.TotalEfficiency)
	if current.Suboptimal() || potential.Suboptimal() {
		s += "（搜索预算耗尽，结果可能不是最优）"
	}
	return s
}

// MarshalResult 输出求解结果的 JSON（current_assignments.json / potential_assignments.json）
func MarshalResult(result *domain.SolveResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// MailData 构造练度建议邮件的模板数据
func MailData(runID string, generatedAt time.Time, current, potential *domain.SolveResult, upgrades []domain.UpgradeItem) domain.UpgradeReportMailData {
	return domain.UpgradeReportMailData{
		RunID:            runID,
		GeneratedAt:      generatedAt.Format(timeLayout),
		CurrentTotal:     current.TotalEfficiency,
		PotentialTotal:   potential.TotalEfficiency,
		Lines:            Lines(upgrades),
		SuboptimalResult: current.Suboptimal() || potential.Suboptimal(),
	}
}
