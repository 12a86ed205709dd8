package transformer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel-tracker/internal/models"
)

func TestNormalizeProspectCleansInput(t *testing.T) {
	in := models.Prospect{
		Name:              "  Dana ",
		BusinessName:      " Dana's Dojo ",
		Email:             " Dana@Example.COM ",
		FunnelType:        " webinar_to_call ",
		Stage1Name:        " Free Masterclass ",
		CurrentDailySpend: models.Ptr(1500.0),
		CurrentStage2Rate: models.Ptr(35.0),
	}

	out, quality := New().NormalizeProspect(in)
	require.True(t, quality.IsValid, Issues(quality))

	assert.Equal(t, "Dana", out.Name)
	assert.Equal(t, "Dana's Dojo", out.BusinessName)
	assert.Equal(t, "dana@example.com", out.Email)
	assert.Equal(t, models.StatusNew, out.Status)
	assert.Equal(t, "webinar_to_call", out.FunnelType)
	assert.Equal(t, "Free Masterclass", out.Stage1Name)
	assert.Equal(t, "Webinar Attendance", out.Stage2Name)
	assert.True(t, out.Stage3On())
	assert.True(t, out.Stage4On())
}

func TestNormalizeProspectRejectsBadFields(t *testing.T) {
	in := models.Prospect{
		Email:                 "not-an-email",
		Status:                "archived",
		FunnelType:            "podcast",
		Stage2Price:           models.Ptr(-10.0),
		CurrentConversionRate: models.Ptr(120.0),
		ProjectionInputs:      models.ProjectionInputs{ScalingFrequencyDays: models.Ptr(0)},
	}

	_, quality := New().NormalizeProspect(in)
	assert.False(t, quality.IsValid)

	invalid := quality.Invalid()
	for _, field := range []string{
		"name", "business_name", "email", "status", "funnel_type",
		"stage2_price", "current_conversion_rate", "scaling_frequency_days",
	} {
		assert.Contains(t, invalid, field)
	}
	assert.Equal(t, len(invalid), quality.ErrorCount)
}

func TestNormalizeProspectRejectsProjectedRate(t *testing.T) {
	in := models.Prospect{
		Name:             "Eli",
		BusinessName:     "Eli Co",
		ProjectionInputs: models.ProjectionInputs{ProjectedStage3Rate: models.Ptr(-1.0)},
	}

	_, quality := New().NormalizeProspect(in)
	assert.False(t, quality.IsValid)
	assert.Equal(t, []string{"projected_stage3_rate: Invalid - Rate must be between 0 and 100"}, Issues(quality))
}

func TestNormalizeProspectAcceptsBoundaries(t *testing.T) {
	in := models.Prospect{
		Name:                  "Fay",
		BusinessName:          "Fay Fitness",
		CurrentDailySpend:     models.Ptr(0.0),
		CurrentConversionRate: models.Ptr(100.0),
		CurrentStage2Rate:     models.Ptr(0.0),
		ProjectionInputs: models.ProjectionInputs{
			ScalingIncrementPercent: models.Ptr(1000.0),
			ScalingFrequencyDays:    models.Ptr(1),
		},
	}

	_, quality := New().NormalizeProspect(in)
	assert.True(t, quality.IsValid, Issues(quality))
}

func TestValidateOverrides(t *testing.T) {
	tr := New()

	ok := tr.ValidateOverrides(models.ProjectionInputs{
		ProjectedDailySpend:     models.Ptr(8000.0),
		ProjectedConversionRate: models.Ptr(40.0),
	})
	assert.True(t, ok.IsValid)

	bad := tr.ValidateOverrides(models.ProjectionInputs{
		ProjectedCPAStage1:      models.Ptr(-5.0),
		ScalingIncrementPercent: models.Ptr(0.5),
	})
	assert.False(t, bad.IsValid)
	assert.Equal(t, 2, bad.ErrorCount)
	assert.Contains(t, bad.Invalid(), "projected_cpa_stage1")
	assert.Contains(t, bad.Invalid(), "scaling_increment_percent")
}

func TestValidateTimelineRequest(t *testing.T) {
	tests := []struct {
		name  string
		req   models.TimelineRequest
		valid bool
	}{
		{"defaults", models.TimelineRequest{CurrentSpend: 1000, TargetSpend: 2000}, true},
		{"explicit", models.TimelineRequest{CurrentSpend: 1000, TargetSpend: 2000, IncrementPercent: 25, FrequencyDays: 7}, true},
		{"negative spend", models.TimelineRequest{CurrentSpend: -1, TargetSpend: 2000}, false},
		{"negative increment", models.TimelineRequest{CurrentSpend: 1000, TargetSpend: 2000, IncrementPercent: -20}, false},
		{"huge increment", models.TimelineRequest{CurrentSpend: 1000, TargetSpend: 2000, IncrementPercent: 5000}, false},
		{"negative frequency", models.TimelineRequest{CurrentSpend: 1000, TargetSpend: 2000, FrequencyDays: -3}, false},
		{"target out of reach", models.TimelineRequest{CurrentSpend: 1e-300, TargetSpend: 1e300, IncrementPercent: 1}, false},
		{"long but bounded", models.TimelineRequest{CurrentSpend: 100, TargetSpend: 10000, IncrementPercent: 1}, true},
		{"target below current", models.TimelineRequest{CurrentSpend: 2000, TargetSpend: 1000}, true},
	}

	tr := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tr.ValidateTimelineRequest(tt.req).IsValid)
		})
	}
}
