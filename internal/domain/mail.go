package domain

const (
	MailTypeCreateUser    = "create_user"
	MailTypeUpgradeReport = "upgrade_report"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpgradeReportMailData struct {
	RunID            string   `json:"runID"`
	GeneratedAt      string   `json:"generatedAt"`
	CurrentTotal     float64  `json:"currentTotal"`
	PotentialTotal   float64  `json:"potentialTotal"`
	Lines            []string `json:"lines"`
	SuboptimalResult bool     `json:"suboptimalResult"`
}
