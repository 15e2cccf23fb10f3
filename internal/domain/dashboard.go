package domain

import "time"

// ============================================================
// Dashboard & Reports API Responses
// ============================================================

// Dashboard is returned by GET /v1/dashboard.
type Dashboard struct {
	TotalCooperados  int          `json:"total_cooperados"`
	OpenPipeline     float64      `json:"open_pipeline_value"`
	WonValue         float64      `json:"won_value"`
	WinRate          float64      `json:"win_rate"` // won / (won + lost) * 100
	OpenTasks        int          `json:"open_tasks"`
	OverdueTasks     int          `json:"overdue_tasks"`
	PipelineByStage  []StageTotal `json:"pipeline_by_stage"`
	RecentCooperados []Cooperado  `json:"recent_cooperados"`
	ChurnAlerts      int          `json:"churn_alerts"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// StageTotal aggregates the opportunities of one pipeline stage.
type StageTotal struct {
	Stage Stage   `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// BoardColumn is one Kanban column of GET /v1/oportunidades/board.
type BoardColumn struct {
	Stage Stage          `json:"stage"`
	Count int            `json:"count"`
	Total float64        `json:"total"`
	Cards []Oportunidade `json:"cards"`
}

// TierSlice is one entry of GET /v1/reports/tiers.
type TierSlice struct {
	Tier    Tier    `json:"tier"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// GrowthPoint is one month of GET /v1/reports/growth.
type GrowthPoint struct {
	Month string `json:"month"` // YYYY-MM
	Label string `json:"label"` // Jan, Fev, ...
	Count int    `json:"count"`
}

// ============================================================
// Insights
// ============================================================

// ChurnRisk is a member without recent contact.
type ChurnRisk struct {
	CooperadoID   int64   `json:"cooperado_id"`
	Name          string  `json:"name"`
	Tier          Tier    `json:"tier,omitempty"`
	Value         float64 `json:"value"`
	DaysSinceLast *int    `json:"days_since_last_contact"` // nil = never contacted
}

// CrossSell is a high-tier member without an open opportunity.
type CrossSell struct {
	CooperadoID int64   `json:"cooperado_id"`
	Name        string  `json:"name"`
	Tier        Tier    `json:"tier"`
	Value       float64 `json:"value"`
}

// StalledDeal is an open opportunity past its expected close date.
type StalledDeal struct {
	OportunidadeID    int64   `json:"oportunidade_id"`
	Title             string  `json:"title"`
	CooperadoName     string  `json:"cooperado_name,omitempty"`
	Stage             Stage   `json:"stage"`
	Value             float64 `json:"value"`
	ExpectedCloseDate string  `json:"expected_close_date"`
	DaysOverdue       int     `json:"days_overdue"`
}

// Insights is returned by GET /v1/insights.
type Insights struct {
	ChurnWindowDays int           `json:"churn_window_days"`
	ChurnRisks      []ChurnRisk   `json:"churn_risks"`
	CrossSell       []CrossSell   `json:"cross_sell"`
	StalledDeals    []StalledDeal `json:"stalled_deals"`
}
