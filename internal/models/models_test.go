package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectionInputsMerge(t *testing.T) {
	saved := ProjectionInputs{
		ProjectedDailySpend:  Ptr(5000.0),
		ProjectedStage2Rate:  Ptr(60.0),
		ScalingFrequencyDays: Ptr(3),
	}
	over := ProjectionInputs{
		ProjectedStage2Rate:  Ptr(0.0),
		ScalingFrequencyDays: Ptr(7),
	}

	merged := saved.Merge(over)
	assert.Equal(t, 5000.0, *merged.ProjectedDailySpend)
	assert.Equal(t, 0.0, *merged.ProjectedStage2Rate)
	assert.Equal(t, 7, *merged.ScalingFrequencyDays)
	assert.Nil(t, merged.ProjectedCPAStage1)

	*over.ProjectedStage2Rate = 99
	assert.Equal(t, 0.0, *merged.ProjectedStage2Rate)
	assert.Equal(t, 60.0, *saved.ProjectedStage2Rate)
}

func TestStageMarkedUnpaid(t *testing.T) {
	p := Prospect{Stage1IsPaid: Ptr(false), Stage2IsPaid: Ptr(true)}

	assert.True(t, p.StageMarkedUnpaid(1))
	assert.False(t, p.StageMarkedUnpaid(2))
	assert.False(t, p.StageMarkedUnpaid(3))
	assert.False(t, p.StageMarkedUnpaid(9))
}

func TestProspectStatusLabels(t *testing.T) {
	assert.True(t, StatusCallScheduled.Valid())
	assert.Equal(t, "Call Scheduled", StatusCallScheduled.Label())
	assert.False(t, ProspectStatus("archived").Valid())
	assert.Empty(t, ProspectStatus("archived").Label())
}
