package metrics

import (
	"math"

	"funnel-tracker/internal/models"
)

// MaxScalingSteps bounds the length of a plan. Longer plans come back empty.
const MaxScalingSteps = 500

// ScalingStepsNeeded estimates how many increases of incrementPercent take
// currentSpend to targetSpend. The result is +Inf when the ratio overflows.
func ScalingStepsNeeded(currentSpend, targetSpend, incrementPercent float64) float64 {
	return math.Ceil(math.Log(targetSpend/currentSpend) / math.Log1p(incrementPercent/100))
}

// PlanScalingTimeline lists the budget increases needed to grow daily spend
// from currentSpend to targetSpend, compounding incrementPercent every
// frequencyDays. Non-positive increment or frequency use the defaults.
//
// The last step is the first budget at or above the target and is not
// clamped to it. Plans needing more than MaxScalingSteps are empty.
func PlanScalingTimeline(currentSpend, targetSpend, incrementPercent float64, frequencyDays int) models.ScalingTimeline {
	timeline := models.ScalingTimeline{Steps: []models.ScalingStep{}}
	if !(currentSpend > 0) || !(targetSpend > 0) || currentSpend >= targetSpend || math.IsInf(targetSpend, 1) {
		return timeline
	}
	if !(incrementPercent > 0) {
		incrementPercent = DefaultScalingIncrement
	}
	if frequencyDays <= 0 {
		frequencyDays = DefaultScalingFrequency
	}
	if ScalingStepsNeeded(currentSpend, targetSpend, incrementPercent) > MaxScalingSteps {
		return timeline
	}

	budget := currentSpend
	step, day := 0, 0
	for budget < targetSpend {
		timeline.Steps = append(timeline.Steps, models.ScalingStep{
			Step:   step,
			Day:    day,
			Budget: round(budget, 0),
		})
		budget *= 1 + incrementPercent/100
		step++
		day += frequencyDays
	}
	timeline.Steps = append(timeline.Steps, models.ScalingStep{
		Step:     step,
		Day:      day,
		Budget:   round(budget, 0),
		IsTarget: true,
	})

	timeline.TotalSteps = step
	timeline.TotalDays = day
	timeline.TotalWeeks = int(math.Ceil(float64(day) / 7))
	return timeline
}

// ScalingTimeline plans the path from the prospect's current daily spend to
// target, or to the resolved projected spend when target is nil. Increment
// and frequency come from the resolved projection inputs.
func (c *Calculator) ScalingTimeline(p models.Prospect, overrides models.ProjectionInputs, target *float64) models.ScalingTimeline {
	in := c.ResolveProjection(p, overrides)
	goal := in.DailySpend
	if target != nil {
		goal = *target
	}
	return PlanScalingTimeline(models.Float(p.CurrentDailySpend), goal, in.ScalingIncrementPercent, in.ScalingFrequencyDays)
}
