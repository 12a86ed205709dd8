package metrics

import (
	"math"

	"funnel-tracker/internal/models"
)

const daysPerMonth = 30

var fallbackStageNames = [4]string{"Registration", "Attendance", "Call Booking", "Call Attendance"}

// funnelInputs are the resolved numbers a funnel is evaluated with.
// stageRates holds the stage 2, 3 and 4 rates in percent.
type funnelInputs struct {
	dailySpend     float64
	cpaStage1      float64
	stageRates     [3]float64
	conversionRate float64
	ticketPrice    float64
}

// rawTotals keeps the unrounded figures projection deltas are computed from.
type rawTotals struct {
	sales   float64
	revenue float64
	roi     float64
}

type Calculator struct {
	scalingIncrement float64
	scalingFrequency int
}

func NewCalculator() *Calculator {
	return &Calculator{
		scalingIncrement: DefaultScalingIncrement,
		scalingFrequency: DefaultScalingFrequency,
	}
}

// WithScalingDefaults sets the scaling increment and frequency used when
// neither the request nor the prospect carries one.
func (c *Calculator) WithScalingDefaults(incrementPercent float64, frequencyDays int) *Calculator {
	if incrementPercent > 0 {
		c.scalingIncrement = incrementPercent
	}
	if frequencyDays > 0 {
		c.scalingFrequency = frequencyDays
	}
	return c
}

// CurrentMetrics sizes the prospect's funnel from its current_* values.
// It returns nil when daily spend or stage-1 CPA is missing or not positive.
func (c *Calculator) CurrentMetrics(p models.Prospect) *models.MetricsReport {
	spend, ok := positive(p.CurrentDailySpend)
	if !ok {
		return nil
	}
	cpa, ok := positive(p.CurrentCPAStage1)
	if !ok {
		return nil
	}

	report, _ := c.evaluate(p, funnelInputs{
		dailySpend: spend,
		cpaStage1:  cpa,
		stageRates: [3]float64{
			models.Float(p.CurrentStage2Rate),
			models.Float(p.CurrentStage3Rate),
			models.Float(p.CurrentStage4Rate),
		},
		conversionRate: models.Float(p.CurrentConversionRate),
		ticketPrice:    models.Float(p.HighTicketPrice),
	})
	return report
}

// evaluate walks the funnel stage by stage. A stage without a positive rate
// ends the walk: deeper stages are not measured yet and are left out of the
// report instead of being reported with zero volume.
func (c *Calculator) evaluate(p models.Prospect, in funnelInputs) (*models.MetricsReport, rawTotals) {
	monthlySpend := in.dailySpend * daysPerMonth
	stage1Volume := monthlySpend / in.cpaStage1

	stages := []int{1}
	volumes := []float64{stage1Volume}
	cpas := []float64{in.cpaStage1}
	rates := []*float64{nil}

	for i, rate := range in.stageRates {
		n := i + 2
		if (n == 3 && !p.Stage3On()) || (n == 4 && !p.Stage4On()) {
			break
		}
		if rate <= 0 {
			break
		}
		prevVolume := volumes[len(volumes)-1]
		prevCPA := cpas[len(cpas)-1]
		stages = append(stages, n)
		volumes = append(volumes, prevVolume*(rate/100))
		cpas = append(cpas, prevCPA/(rate/100))
		rates = append(rates, models.Ptr(rate))
	}

	lastVolume := volumes[len(volumes)-1]
	lastCPA := cpas[len(cpas)-1]
	var sales, cpaCustomer float64
	if in.conversionRate > 0 {
		sales = lastVolume * (in.conversionRate / 100)
		cpaCustomer = lastCPA / (in.conversionRate / 100)
	}

	revenue := sales * in.ticketPrice
	for i, n := range stages {
		// only stages 1-3 can be sold
		if n > 3 {
			continue
		}
		price := p.StagePrice(n)
		// a priced stage counts unless flagged unpaid; is_paid and CanBePaid are never required
		if price > 0 && !p.StageMarkedUnpaid(n) {
			revenue += volumes[i] * price
		}
	}

	roi := 0.0
	if monthlySpend > 0 {
		roi = revenue / monthlySpend
	}
	profit := revenue - monthlySpend

	overall := 0.0
	if stage1Volume > 0 {
		overall = (sales / stage1Volume) * 100
	}

	report := &models.MetricsReport{
		MonthlySpend:          monthlySpend,
		Volumes:               make([]float64, len(volumes)),
		CPAs:                  make([]float64, len(cpas)),
		Rates:                 rates,
		Prices:                make([]float64, len(stages)),
		StageNames:            make([]string, len(stages)),
		Sales:                 round(sales, 1),
		CPACustomer:           round(cpaCustomer, 0),
		Revenue:               round(revenue, 0),
		Profit:                round(profit, 0),
		ROI:                   round(roi, 2),
		OverallConversionRate: round(overall, 2),
		IsProfitable:          profit > 0,
		ROIStatus:             roiStatus(roi),
	}
	for i, n := range stages {
		report.Volumes[i] = round(volumes[i], 1)
		report.CPAs[i] = round(cpas[i], 0)
		if n <= 3 {
			report.Prices[i] = p.StagePrice(n)
		}
		report.StageNames[i] = p.StageName(n)
		if report.StageNames[i] == "" {
			report.StageNames[i] = fallbackStageNames[n-1]
		}
	}

	return report, rawTotals{sales: sales, revenue: revenue, roi: roi}
}

func roiStatus(roi float64) models.ROIStatus {
	switch {
	case roi >= 2:
		return models.ROIHealthy
	case roi >= 1:
		return models.ROIBreakEven
	default:
		return models.ROILosing
	}
}

// round rounds half up (toward +Inf) at the given number of decimals,
// so -2.5 becomes -2.
func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Floor(v*scale+0.5) / scale
}

func positive(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || *v <= 0 {
		return 0, false
	}
	return *v, true
}
