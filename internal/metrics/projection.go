package metrics

import (
	"funnel-tracker/internal/models"
)

const (
	DefaultScalingIncrement = 20.0
	DefaultScalingFrequency = 3
)

// ResolvedInputs is a projection input set with every fallback applied.
type ResolvedInputs struct {
	DailySpend              float64 `json:"daily_spend"`
	CPAStage1               float64 `json:"cpa_stage1"`
	Stage2Rate              float64 `json:"stage2_rate"`
	Stage3Rate              float64 `json:"stage3_rate"`
	Stage4Rate              float64 `json:"stage4_rate"`
	ConversionRate          float64 `json:"conversion_rate"`
	HighTicketPrice         float64 `json:"high_ticket_price"`
	ScalingIncrementPercent float64 `json:"scaling_increment_percent"`
	ScalingFrequencyDays    int     `json:"scaling_frequency_days"`
}

// ResolveProjection layers overrides on top of the projection values saved on
// the prospect, and those on top of the prospect's current values.
//
// Spend, CPA and ticket price only take a positive value: an override of 0
// or below falls through to the saved value, then to the current one, so a
// negative spend override still projects at the current spend. The resolved
// value is 0 only when no layer is positive. Rates take any value that is
// present, so an explicit 0 rate switches a stage off in the projection.
func (c *Calculator) ResolveProjection(p models.Prospect, overrides models.ProjectionInputs) ResolvedInputs {
	saved := p.ProjectionInputs
	return ResolvedInputs{
		DailySpend:              firstPositive(overrides.ProjectedDailySpend, saved.ProjectedDailySpend, p.CurrentDailySpend),
		CPAStage1:               firstPositive(overrides.ProjectedCPAStage1, saved.ProjectedCPAStage1, p.CurrentCPAStage1),
		Stage2Rate:              firstSet(overrides.ProjectedStage2Rate, saved.ProjectedStage2Rate, p.CurrentStage2Rate),
		Stage3Rate:              firstSet(overrides.ProjectedStage3Rate, saved.ProjectedStage3Rate, p.CurrentStage3Rate),
		Stage4Rate:              firstSet(overrides.ProjectedStage4Rate, saved.ProjectedStage4Rate, p.CurrentStage4Rate),
		ConversionRate:          firstSet(overrides.ProjectedConversionRate, saved.ProjectedConversionRate, p.CurrentConversionRate),
		HighTicketPrice:         firstPositive(overrides.ProjectedHighTicketPrice, saved.ProjectedHighTicketPrice, p.HighTicketPrice),
		ScalingIncrementPercent: firstPositive(overrides.ScalingIncrementPercent, saved.ScalingIncrementPercent, models.Ptr(c.scalingIncrement)),
		ScalingFrequencyDays:    firstPositiveInt(overrides.ScalingFrequencyDays, saved.ScalingFrequencyDays, c.scalingFrequency),
	}
}

// Projection evaluates the funnel with the resolved projection inputs and
// compares it with the prospect's current metrics.
// It returns nil when the resolved spend or stage-1 CPA is not positive.
func (c *Calculator) Projection(p models.Prospect, overrides models.ProjectionInputs) *models.ProjectionReport {
	in := c.ResolveProjection(p, overrides)
	if in.DailySpend <= 0 || in.CPAStage1 <= 0 {
		return nil
	}

	report, raw := c.evaluate(p, funnelInputs{
		dailySpend:     in.DailySpend,
		cpaStage1:      in.CPAStage1,
		stageRates:     [3]float64{in.Stage2Rate, in.Stage3Rate, in.Stage4Rate},
		conversionRate: in.ConversionRate,
		ticketPrice:    in.HighTicketPrice,
	})

	projection := &models.ProjectionReport{
		MetricsReport: *report,
		DailySpend:    in.DailySpend,
	}

	current := c.CurrentMetrics(p)
	if current == nil {
		return projection
	}
	if current.Sales > 0 {
		projection.SalesIncrease = round((raw.sales/current.Sales-1)*100, 0)
	}
	if current.Revenue > 0 {
		projection.RevenueIncrease = round((raw.revenue/current.Revenue-1)*100, 0)
	}
	projection.ROIChange = round(raw.roi-current.ROI, 2)

	return projection
}

func firstPositive(values ...*float64) float64 {
	for _, v := range values {
		if f, ok := positive(v); ok {
			return f
		}
	}
	return 0
}

func firstSet(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstPositiveInt(override, saved *int, def int) int {
	for _, v := range []*int{override, saved} {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return def
}
