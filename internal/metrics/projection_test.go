package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel-tracker/internal/models"
)

func TestProjectionWithoutOverridesMatchesCurrent(t *testing.T) {
	calc := NewCalculator()
	for name, p := range map[string]models.Prospect{
		"webinar": webinarProspect(),
		"call":    callProspect(),
	} {
		t.Run(name, func(t *testing.T) {
			current := calc.CurrentMetrics(p)
			proj := calc.Projection(p, models.ProjectionInputs{})
			require.NotNil(t, current)
			require.NotNil(t, proj)

			assert.Equal(t, *current, proj.MetricsReport)
			assert.Equal(t, models.Float(p.CurrentDailySpend), proj.DailySpend)
			assert.Zero(t, proj.SalesIncrease)
			assert.Zero(t, proj.RevenueIncrease)
			assert.Zero(t, proj.ROIChange)
		})
	}
}

func TestProjectionDoubleSpend(t *testing.T) {
	proj := NewCalculator().Projection(webinarProspect(), models.ProjectionInputs{
		ProjectedDailySpend: models.Ptr(8000.0),
	})
	require.NotNil(t, proj)

	assert.Equal(t, 8000.0, proj.DailySpend)
	assert.Equal(t, 240000.0, proj.MonthlySpend)
	assert.Equal(t, []float64{400, 280}, proj.Volumes)
	assert.Equal(t, 84.0, proj.Sales)
	assert.Equal(t, 100.0, proj.SalesIncrease)
	assert.Equal(t, 100.0, proj.RevenueIncrease)
	assert.Zero(t, proj.ROIChange)
}

func TestProjectionBetterConversion(t *testing.T) {
	proj := NewCalculator().Projection(webinarProspect(), models.ProjectionInputs{
		ProjectedConversionRate: models.Ptr(45.0),
	})
	require.NotNil(t, proj)

	assert.Equal(t, 63.0, proj.Sales)
	assert.Equal(t, 50.0, proj.SalesIncrease)
	assert.Equal(t, 50.0, proj.RevenueIncrease)
	// 5607000 / 120000 = 46.725
	assert.InDelta(t, 15.575, proj.ROIChange, 0.006)
}

func TestProjectionExplicitZeroRateWins(t *testing.T) {
	proj := NewCalculator().Projection(webinarProspect(), models.ProjectionInputs{
		ProjectedConversionRate: models.Ptr(0.0),
	})
	require.NotNil(t, proj)
	assert.Zero(t, proj.Sales)
	assert.Equal(t, -100.0, proj.SalesIncrease)
	assert.Equal(t, -100.0, proj.RevenueIncrease)

	proj = NewCalculator().Projection(webinarProspect(), models.ProjectionInputs{
		ProjectedStage2Rate: models.Ptr(0.0),
	})
	require.NotNil(t, proj)
	assert.Len(t, proj.Volumes, 1)
}

func TestProjectionZeroSpendFallsBack(t *testing.T) {
	proj := NewCalculator().Projection(webinarProspect(), models.ProjectionInputs{
		ProjectedDailySpend:      models.Ptr(0.0),
		ProjectedHighTicketPrice: models.Ptr(0.0),
	})
	require.NotNil(t, proj)
	assert.Equal(t, 4000.0, proj.DailySpend)
	assert.Equal(t, 3738000.0, proj.Revenue)
}

func TestProjectionNegativeOverrideFallsBack(t *testing.T) {
	p := webinarProspect()
	proj := NewCalculator().Projection(p, models.ProjectionInputs{
		ProjectedDailySpend: models.Ptr(-5.0),
	})
	require.NotNil(t, proj)
	assert.Equal(t, 4000.0, proj.DailySpend)

	p.CurrentDailySpend = nil
	assert.Nil(t, NewCalculator().Projection(p, models.ProjectionInputs{
		ProjectedDailySpend: models.Ptr(-5.0),
	}))
}

func TestProjectionUsesSavedValues(t *testing.T) {
	p := webinarProspect()
	p.ProjectedDailySpend = models.Ptr(6000.0)
	p.ProjectedHighTicketPrice = models.Ptr(99000.0)

	calc := NewCalculator()
	proj := calc.Projection(p, models.ProjectionInputs{})
	require.NotNil(t, proj)
	assert.Equal(t, 6000.0, proj.DailySpend)
	assert.Equal(t, 63.0, proj.Sales)
	assert.Equal(t, 6237000.0, proj.Revenue)

	proj = calc.Projection(p, models.ProjectionInputs{ProjectedDailySpend: models.Ptr(4000.0)})
	require.NotNil(t, proj)
	assert.Equal(t, 4000.0, proj.DailySpend)
}

func TestProjectionWithoutBaseline(t *testing.T) {
	p := webinarProspect()
	p.CurrentDailySpend = nil

	calc := NewCalculator()
	assert.Nil(t, calc.Projection(p, models.ProjectionInputs{}))

	proj := calc.Projection(p, models.ProjectionInputs{ProjectedDailySpend: models.Ptr(4000.0)})
	require.NotNil(t, proj)
	assert.Equal(t, 42.0, proj.Sales)
	assert.Zero(t, proj.SalesIncrease)
	assert.Zero(t, proj.RevenueIncrease)
	assert.Zero(t, proj.ROIChange)
}

func TestResolveProjectionScalingDefaults(t *testing.T) {
	p := webinarProspect()
	calc := NewCalculator()
	in := calc.ResolveProjection(p, models.ProjectionInputs{})
	assert.Equal(t, DefaultScalingIncrement, in.ScalingIncrementPercent)
	assert.Equal(t, DefaultScalingFrequency, in.ScalingFrequencyDays)

	p.ScalingFrequencyDays = models.Ptr(7)
	in = calc.ResolveProjection(p, models.ProjectionInputs{
		ScalingIncrementPercent: models.Ptr(25.0),
		ScalingFrequencyDays:    models.Ptr(0),
	})
	assert.Equal(t, 25.0, in.ScalingIncrementPercent)
	assert.Equal(t, 7, in.ScalingFrequencyDays)
}

func TestProjectionDoesNotMutateProspect(t *testing.T) {
	p := webinarProspect()
	before := webinarProspect()
	NewCalculator().Projection(p, models.ProjectionInputs{ProjectedDailySpend: models.Ptr(9000.0)})
	assert.Equal(t, before, p)
}

func TestResolveProjectionConfiguredDefaults(t *testing.T) {
	calc := NewCalculator().WithScalingDefaults(10, 0)
	in := calc.ResolveProjection(webinarProspect(), models.ProjectionInputs{})
	assert.Equal(t, 10.0, in.ScalingIncrementPercent)
	assert.Equal(t, DefaultScalingFrequency, in.ScalingFrequencyDays)
}
