package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel-tracker/internal/models"
)

func webinarProspect() models.Prospect {
	return models.Prospect{
		FunnelType:            "webinar",
		CurrentDailySpend:     models.Ptr(4000.0),
		CurrentCPAStage1:      models.Ptr(600.0),
		CurrentStage2Rate:     models.Ptr(70.0),
		CurrentConversionRate: models.Ptr(30.0),
		HighTicketPrice:       models.Ptr(89000.0),
		Stage3Enabled:         models.Ptr(false),
		Stage4Enabled:         models.Ptr(false),
	}
}

func callProspect() models.Prospect {
	return models.Prospect{
		FunnelType:            "webinar_to_call",
		Stage1Price:           models.Ptr(10.0),
		Stage3Name:            "Strategy Call",
		Stage3Price:           models.Ptr(500.0),
		Stage3IsPaid:          models.Ptr(false),
		Stage3Enabled:         models.Ptr(true),
		Stage4Enabled:         models.Ptr(true),
		CurrentDailySpend:     models.Ptr(1000.0),
		CurrentCPAStage1:      models.Ptr(100.0),
		CurrentStage2Rate:     models.Ptr(60.0),
		CurrentStage3Rate:     models.Ptr(20.0),
		CurrentStage4Rate:     models.Ptr(50.0),
		CurrentConversionRate: models.Ptr(10.0),
		HighTicketPrice:       models.Ptr(100000.0),
	}
}

func TestCurrentMetricsWebinarExample(t *testing.T) {
	m := NewCalculator().CurrentMetrics(webinarProspect())
	require.NotNil(t, m)

	assert.Equal(t, 120000.0, m.MonthlySpend)
	assert.Equal(t, []float64{200, 140}, m.Volumes)
	assert.Equal(t, []float64{600, 857}, m.CPAs)
	require.Len(t, m.Rates, 2)
	assert.Nil(t, m.Rates[0])
	assert.Equal(t, 70.0, *m.Rates[1])
	assert.Equal(t, []float64{0, 0}, m.Prices)
	assert.Equal(t, []string{"Registration", "Attendance"}, m.StageNames)
	assert.Equal(t, 42.0, m.Sales)
	assert.Equal(t, 2857.0, m.CPACustomer)
	assert.Equal(t, 3738000.0, m.Revenue)
	assert.Equal(t, 3618000.0, m.Profit)
	assert.Equal(t, 31.15, m.ROI)
	assert.Equal(t, 21.0, m.OverallConversionRate)
	assert.True(t, m.IsProfitable)
	assert.Equal(t, models.ROIHealthy, m.ROIStatus)
}

func TestCurrentMetricsRequiresSpendAndCPA(t *testing.T) {
	calc := NewCalculator()
	cases := map[string]func(*models.Prospect){
		"missing spend":  func(p *models.Prospect) { p.CurrentDailySpend = nil },
		"missing cpa":    func(p *models.Prospect) { p.CurrentCPAStage1 = nil },
		"zero spend":     func(p *models.Prospect) { p.CurrentDailySpend = models.Ptr(0.0) },
		"negative cpa":   func(p *models.Prospect) { p.CurrentCPAStage1 = models.Ptr(-5.0) },
		"both missing":   func(p *models.Prospect) { p.CurrentDailySpend, p.CurrentCPAStage1 = nil, nil },
		"zero cpa":       func(p *models.Prospect) { p.CurrentCPAStage1 = models.Ptr(0.0) },
		"negative spend": func(p *models.Prospect) { p.CurrentDailySpend = models.Ptr(-1.0) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := webinarProspect()
			mutate(&p)
			assert.Nil(t, calc.CurrentMetrics(p))
		})
	}
}

func TestCurrentMetricsFullChain(t *testing.T) {
	m := NewCalculator().CurrentMetrics(callProspect())
	require.NotNil(t, m)

	assert.Equal(t, 30000.0, m.MonthlySpend)
	assert.Equal(t, []float64{300, 180, 36, 18}, m.Volumes)
	assert.Equal(t, []float64{100, 167, 833, 1667}, m.CPAs)
	assert.Equal(t, []string{"Registration", "Attendance", "Strategy Call", "Call Attendance"}, m.StageNames)
	// stage 4 has no price path
	assert.Equal(t, []float64{10, 0, 500, 0}, m.Prices)
	assert.Equal(t, 1.8, m.Sales)
	assert.Equal(t, 16667.0, m.CPACustomer)
	// stage 3 is flagged unpaid, so only stage 1 adds to the ticket revenue
	assert.Equal(t, 183000.0, m.Revenue)
	assert.Equal(t, 6.1, m.ROI)
	assert.Equal(t, 0.6, m.OverallConversionRate)
}

func TestCurrentMetricsPaidStageAddsRevenue(t *testing.T) {
	p := callProspect()
	p.Stage3IsPaid = models.Ptr(true)

	m := NewCalculator().CurrentMetrics(p)
	require.NotNil(t, m)
	// 183000 + 36 bookings * 500
	assert.Equal(t, 201000.0, m.Revenue)
}

func TestCurrentMetricsUnflaggedPriceAddsRevenue(t *testing.T) {
	p := callProspect()
	p.Stage3IsPaid = nil

	m := NewCalculator().CurrentMetrics(p)
	require.NotNil(t, m)
	assert.Equal(t, 201000.0, m.Revenue)
}

func TestCurrentMetricsSkipsUnmeasuredStages(t *testing.T) {
	calc := NewCalculator()

	p := callProspect()
	p.CurrentStage2Rate = nil
	m := calc.CurrentMetrics(p)
	require.NotNil(t, m)
	assert.Equal(t, []float64{300}, m.Volumes)
	assert.Len(t, m.Rates, 1)
	assert.Len(t, m.StageNames, 1)
	assert.Len(t, m.Prices, 1)
	// conversion applies to stage 1 directly
	assert.Equal(t, 30.0, m.Sales)

	p = callProspect()
	p.CurrentStage3Rate = models.Ptr(0.0)
	m = calc.CurrentMetrics(p)
	require.NotNil(t, m)
	assert.Equal(t, []float64{300, 180}, m.Volumes)

	p = callProspect()
	p.Stage3Enabled = models.Ptr(false)
	m = calc.CurrentMetrics(p)
	require.NotNil(t, m)
	assert.Len(t, m.Volumes, 2, "stage 4 needs stage 3")
	assert.Len(t, m.CPAs, 2)
	assert.Len(t, m.Rates, 2)
}

func TestCurrentMetricsVolumesNeverGrow(t *testing.T) {
	m := NewCalculator().CurrentMetrics(callProspect())
	require.NotNil(t, m)
	for i := 1; i < len(m.Volumes); i++ {
		assert.LessOrEqual(t, m.Volumes[i], m.Volumes[i-1])
	}
}

func TestCurrentMetricsWithoutConversion(t *testing.T) {
	p := webinarProspect()
	p.CurrentConversionRate = nil
	p.HighTicketPrice = nil

	m := NewCalculator().CurrentMetrics(p)
	require.NotNil(t, m)
	assert.Zero(t, m.Sales)
	assert.Zero(t, m.CPACustomer)
	assert.Zero(t, m.Revenue)
	assert.Equal(t, -120000.0, m.Profit)
	assert.Zero(t, m.ROI)
	assert.False(t, m.IsProfitable)
	assert.Equal(t, models.ROILosing, m.ROIStatus)
}

func TestROIStatus(t *testing.T) {
	assert.Equal(t, models.ROIHealthy, roiStatus(2))
	assert.Equal(t, models.ROIBreakEven, roiStatus(1.99))
	assert.Equal(t, models.ROIBreakEven, roiStatus(1))
	assert.Equal(t, models.ROILosing, roiStatus(0.99))
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3.0, round(2.5, 0))
	assert.Equal(t, -2.0, round(-2.5, 0))
	assert.Equal(t, 1.3, round(1.25, 1))
	assert.Equal(t, 0.13, round(0.125, 2))
}

func TestCurrentMetricsIsDeterministic(t *testing.T) {
	calc := NewCalculator()
	assert.Equal(t, calc.CurrentMetrics(callProspect()), calc.CurrentMetrics(callProspect()))
}
