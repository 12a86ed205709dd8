package models

import (
	"time"
)

// Data Quality Tracking Structures
type FieldQuality struct {
	IsValid       bool        `json:"is_valid"`
	Description   string      `json:"description"`
	OriginalValue interface{} `json:"original_value,omitempty"`
}

type RecordQuality struct {
	RecordID    string                  `json:"record_id"`
	IsValid     bool                    `json:"is_valid"`
	FieldErrors map[string]FieldQuality `json:"field_errors"`
	ErrorCount  int                     `json:"error_count"`
}

// Invalid returns only the failed field checks.
func (q RecordQuality) Invalid() map[string]FieldQuality {
	out := make(map[string]FieldQuality)
	for field, fq := range q.FieldErrors {
		if !fq.IsValid {
			out[field] = fq
		}
	}
	return out
}

type ProspectStatus string

const (
	StatusNew           ProspectStatus = "new"
	StatusContacted     ProspectStatus = "contacted"
	StatusCallScheduled ProspectStatus = "call_scheduled"
	StatusCallCompleted ProspectStatus = "call_completed"
	StatusProposalSent  ProspectStatus = "proposal_sent"
	StatusWon           ProspectStatus = "won"
	StatusLost          ProspectStatus = "lost"
)

var statusLabels = map[ProspectStatus]string{
	StatusNew:           "New",
	StatusContacted:     "Contacted",
	StatusCallScheduled: "Call Scheduled",
	StatusCallCompleted: "Call Done",
	StatusProposalSent:  "Proposal Sent",
	StatusWon:           "Won",
	StatusLost:          "Lost",
}

func (s ProspectStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s ProspectStatus) Label() string {
	return statusLabels[s]
}

// Prospect is a sales lead together with its marketing-funnel inputs.
//
// Funnel numbers are pointers: nil means "not entered yet", which the
// calculator treats differently from an entered zero where it matters
// (projection fallbacks).
type Prospect struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Name         string         `json:"name"`
	BusinessName string         `json:"business_name"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Website      string         `json:"website,omitempty"`
	Status       ProspectStatus `json:"status"`
	FunnelType   string         `json:"funnel_type,omitempty"`

	Stage1Name   string   `json:"stage1_name,omitempty"`
	Stage1Price  *float64 `json:"stage1_price,omitempty"`
	Stage1IsPaid *bool    `json:"stage1_is_paid,omitempty"`
	Stage2Name   string   `json:"stage2_name,omitempty"`
	Stage2Price  *float64 `json:"stage2_price,omitempty"`
	Stage2IsPaid *bool    `json:"stage2_is_paid,omitempty"`
	Stage3Name   string   `json:"stage3_name,omitempty"`
	Stage3Price  *float64 `json:"stage3_price,omitempty"`
	Stage3IsPaid *bool    `json:"stage3_is_paid,omitempty"`
	Stage4Name   string   `json:"stage4_name,omitempty"`
	Stage4Price  *float64 `json:"stage4_price,omitempty"`
	Stage4IsPaid *bool    `json:"stage4_is_paid,omitempty"`

	Stage3Enabled *bool `json:"stage3_enabled,omitempty"`
	Stage4Enabled *bool `json:"stage4_enabled,omitempty"`

	CurrentDailySpend     *float64 `json:"current_daily_spend,omitempty"`
	CurrentCPAStage1      *float64 `json:"current_cpa_stage1,omitempty"`
	CurrentStage2Rate     *float64 `json:"current_stage2_rate,omitempty"`
	CurrentStage3Rate     *float64 `json:"current_stage3_rate,omitempty"`
	CurrentStage4Rate     *float64 `json:"current_stage4_rate,omitempty"`
	CurrentConversionRate *float64 `json:"current_conversion_rate,omitempty"`
	HighTicketPrice       *float64 `json:"high_ticket_price,omitempty"`

	ProjectionInputs

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectionInputs are the hypothetical values a projection is evaluated
// with. The same shape is used for the values saved on a prospect and for
// ad-hoc overrides sent with a projection request.
type ProjectionInputs struct {
	ProjectedDailySpend      *float64 `json:"projected_daily_spend,omitempty"`
	ProjectedCPAStage1       *float64 `json:"projected_cpa_stage1,omitempty"`
	ProjectedStage2Rate      *float64 `json:"projected_stage2_rate,omitempty"`
	ProjectedStage3Rate      *float64 `json:"projected_stage3_rate,omitempty"`
	ProjectedStage4Rate      *float64 `json:"projected_stage4_rate,omitempty"`
	ProjectedConversionRate  *float64 `json:"projected_conversion_rate,omitempty"`
	ProjectedHighTicketPrice *float64 `json:"projected_high_ticket_price,omitempty"`
	ScalingIncrementPercent  *float64 `json:"scaling_increment_percent,omitempty"`
	ScalingFrequencyDays     *int     `json:"scaling_frequency_days,omitempty"`
}

// Merge returns in with every field set in over replacing its value.
func (in ProjectionInputs) Merge(over ProjectionInputs) ProjectionInputs {
	pick := func(dst **float64, src *float64) {
		if src != nil {
			*dst = Ptr(*src)
		}
	}
	pick(&in.ProjectedDailySpend, over.ProjectedDailySpend)
	pick(&in.ProjectedCPAStage1, over.ProjectedCPAStage1)
	pick(&in.ProjectedStage2Rate, over.ProjectedStage2Rate)
	pick(&in.ProjectedStage3Rate, over.ProjectedStage3Rate)
	pick(&in.ProjectedStage4Rate, over.ProjectedStage4Rate)
	pick(&in.ProjectedConversionRate, over.ProjectedConversionRate)
	pick(&in.ProjectedHighTicketPrice, over.ProjectedHighTicketPrice)
	pick(&in.ScalingIncrementPercent, over.ScalingIncrementPercent)
	if over.ScalingFrequencyDays != nil {
		in.ScalingFrequencyDays = Ptr(*over.ScalingFrequencyDays)
	}
	return in
}

// StageName returns the custom name of stage n (1..4).
func (p Prospect) StageName(n int) string {
	switch n {
	case 1:
		return p.Stage1Name
	case 2:
		return p.Stage2Name
	case 3:
		return p.Stage3Name
	case 4:
		return p.Stage4Name
	}
	return ""
}

// StagePrice returns the price entered for stage n (1..4), 0 when absent.
func (p Prospect) StagePrice(n int) float64 {
	switch n {
	case 1:
		return Float(p.Stage1Price)
	case 2:
		return Float(p.Stage2Price)
	case 3:
		return Float(p.Stage3Price)
	case 4:
		return Float(p.Stage4Price)
	}
	return 0
}

// StageMarkedUnpaid reports whether stage n was explicitly flagged as free.
// An absent flag does not exclude the stage price from revenue.
func (p Prospect) StageMarkedUnpaid(n int) bool {
	var flag *bool
	switch n {
	case 1:
		flag = p.Stage1IsPaid
	case 2:
		flag = p.Stage2IsPaid
	case 3:
		flag = p.Stage3IsPaid
	case 4:
		flag = p.Stage4IsPaid
	}
	return flag != nil && !*flag
}

func (p Prospect) Stage3On() bool { return Bool(p.Stage3Enabled) }
func (p Prospect) Stage4On() bool { return Bool(p.Stage4Enabled) }

// Float dereferences an optional number, treating nil as 0.
func Float(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func Bool(v *bool) bool {
	return v != nil && *v
}

func Ptr[T any](v T) *T { return &v }

// Business metrics

type ROIStatus string

const (
	ROIHealthy   ROIStatus = "healthy"
	ROIBreakEven ROIStatus = "break_even"
	ROILosing    ROIStatus = "losing"
)

type MetricsReport struct {
	MonthlySpend          float64    `json:"monthly_spend"`
	Volumes               []float64  `json:"volumes"`
	CPAs                  []float64  `json:"cpas"`
	Rates                 []*float64 `json:"rates"` // rates[0] is always null
	Prices                []float64  `json:"prices"`
	StageNames            []string   `json:"stage_names"`
	Sales                 float64    `json:"sales"`
	CPACustomer           float64    `json:"cpa_customer"`
	Revenue               float64    `json:"revenue"`
	Profit                float64    `json:"profit"`
	ROI                   float64    `json:"roi"`
	OverallConversionRate float64    `json:"overall_conversion_rate"`
	IsProfitable          bool       `json:"is_profitable"`
	ROIStatus             ROIStatus  `json:"roi_status"`
}

type ProjectionReport struct {
	MetricsReport
	DailySpend      float64 `json:"daily_spend"`
	SalesIncrease   float64 `json:"sales_increase"`
	RevenueIncrease float64 `json:"revenue_increase"`
	ROIChange       float64 `json:"roi_change"`
}

type ScalingStep struct {
	Step     int     `json:"step"`
	Day      int     `json:"day"`
	Budget   float64 `json:"budget"`
	IsTarget bool    `json:"is_target,omitempty"`
}

type ScalingTimeline struct {
	Steps      []ScalingStep `json:"steps"`
	TotalSteps int           `json:"total_steps"`
	TotalDays  int           `json:"total_days"`
	TotalWeeks int           `json:"total_weeks"`
}

// API response structures

type ListResponse struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Page    int         `json:"page,omitempty"`
	Limit   int         `json:"limit,omitempty"`
	HasMore bool        `json:"has_more"`
}

type MetricsResponse struct {
	ProspectID string         `json:"prospect_id"`
	Available  bool           `json:"available"`
	Metrics    *MetricsReport `json:"metrics,omitempty"`
	Message    string         `json:"message,omitempty"`
}

type ProjectionResponse struct {
	ProspectID string            `json:"prospect_id"`
	Available  bool              `json:"available"`
	Projection *ProjectionReport `json:"projection,omitempty"`
	Timeline   ScalingTimeline   `json:"scaling_timeline"`
	Saved      bool              `json:"saved"`
	Message    string            `json:"message,omitempty"`
}

type TimelineRequest struct {
	CurrentSpend     float64 `json:"current_spend"`
	TargetSpend      float64 `json:"target_spend"`
	IncrementPercent float64 `json:"increment_percent"`
	FrequencyDays    int     `json:"frequency_days"`
}

// ProspectReport is the snapshot pushed to the export sink.
type ProspectReport struct {
	ProspectID   string            `json:"prospect_id"`
	UserID       string            `json:"user_id"`
	Name         string            `json:"name"`
	BusinessName string            `json:"business_name"`
	Status       ProspectStatus    `json:"status"`
	FunnelType   string            `json:"funnel_type"`
	Current      *MetricsReport    `json:"current_metrics"`
	Projection   *ProjectionReport `json:"projection"`
	Timeline     ScalingTimeline   `json:"scaling_timeline"`
	GeneratedAt  string            `json:"generated_at"`
}
