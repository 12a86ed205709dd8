package transformer

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"funnel-tracker/internal/funnel"
	"funnel-tracker/internal/metrics"
	"funnel-tracker/internal/models"
)

const (
	minScalingIncrement = 1
	maxScalingIncrement = 1000
	maxScalingFrequency = 365
)

type Transformer struct {
	emailRegex *regexp.Regexp
}

func New() *Transformer {
	return &Transformer{
		emailRegex: regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`),
	}
}

// NormalizeProspect cleans up a prospect submitted by a user and checks every
// field. The returned record is only safe to store when the quality is valid.
func (t *Transformer) NormalizeProspect(p models.Prospect) (models.Prospect, models.RecordQuality) {
	quality := models.RecordQuality{
		RecordID:    p.ID,
		IsValid:     true,
		FieldErrors: make(map[string]models.FieldQuality),
		ErrorCount:  0,
	}

	p.Name = t.validateRequired(p.Name, "name", &quality)
	p.BusinessName = t.validateRequired(p.BusinessName, "business_name", &quality)
	p.Email = t.validateEmail(p.Email, "email", &quality)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Website = strings.TrimSpace(p.Website)
	p.Status = t.validateStatus(p.Status, "status", &quality)
	p.FunnelType = t.validateFunnelType(p.FunnelType, "funnel_type", &quality)

	p.Stage1Name = strings.TrimSpace(p.Stage1Name)
	p.Stage2Name = strings.TrimSpace(p.Stage2Name)
	p.Stage3Name = strings.TrimSpace(p.Stage3Name)
	p.Stage4Name = strings.TrimSpace(p.Stage4Name)

	money := map[string]*float64{
		"stage1_price":                p.Stage1Price,
		"stage2_price":                p.Stage2Price,
		"stage3_price":                p.Stage3Price,
		"stage4_price":                p.Stage4Price,
		"current_daily_spend":         p.CurrentDailySpend,
		"current_cpa_stage1":          p.CurrentCPAStage1,
		"high_ticket_price":           p.HighTicketPrice,
		"projected_daily_spend":       p.ProjectedDailySpend,
		"projected_cpa_stage1":        p.ProjectedCPAStage1,
		"projected_high_ticket_price": p.ProjectedHighTicketPrice,
	}
	for field, v := range money {
		t.validateAmount(v, field, &quality)
	}

	rates := map[string]*float64{
		"current_stage2_rate":       p.CurrentStage2Rate,
		"current_stage3_rate":       p.CurrentStage3Rate,
		"current_stage4_rate":       p.CurrentStage4Rate,
		"current_conversion_rate":   p.CurrentConversionRate,
		"projected_stage2_rate":     p.ProjectedStage2Rate,
		"projected_stage3_rate":     p.ProjectedStage3Rate,
		"projected_stage4_rate":     p.ProjectedStage4Rate,
		"projected_conversion_rate": p.ProjectedConversionRate,
	}
	for field, v := range rates {
		t.validateRate(v, field, &quality)
	}

	t.validateScaling(p.ProjectionInputs, &quality)

	funnel.ApplyDefaults(&p)

	// Final record validation
	quality.IsValid = quality.ErrorCount == 0
	return p, quality
}

// ValidateOverrides checks the hypothetical values sent with a projection
// request. Fields left out are not checked.
func (t *Transformer) ValidateOverrides(in models.ProjectionInputs) models.RecordQuality {
	quality := models.RecordQuality{
		RecordID:    "projection",
		IsValid:     true,
		FieldErrors: make(map[string]models.FieldQuality),
	}

	t.validateAmount(in.ProjectedDailySpend, "projected_daily_spend", &quality)
	t.validateAmount(in.ProjectedCPAStage1, "projected_cpa_stage1", &quality)
	t.validateAmount(in.ProjectedHighTicketPrice, "projected_high_ticket_price", &quality)
	t.validateRate(in.ProjectedStage2Rate, "projected_stage2_rate", &quality)
	t.validateRate(in.ProjectedStage3Rate, "projected_stage3_rate", &quality)
	t.validateRate(in.ProjectedStage4Rate, "projected_stage4_rate", &quality)
	t.validateRate(in.ProjectedConversionRate, "projected_conversion_rate", &quality)
	t.validateScaling(in, &quality)
	if quality.ErrorCount == 0 {
		t.validatePlanLength(req, &quality)
	}

	quality.IsValid = quality.ErrorCount == 0
	return quality
}

func (t *Transformer) validatePlanLength(req models.TimelineRequest, quality *models.RecordQuality) {
	if req.CurrentSpend <= 0 || req.TargetSpend <= req.CurrentSpend {
		return
	}
	increment := req.IncrementPercent
	if increment == 0 {
		increment = metrics.DefaultScalingIncrement
	}
	if metrics.ScalingStepsNeeded(req.CurrentSpend, req.TargetSpend, increment) > metrics.MaxScalingSteps {
		quality.FieldErrors["target_spend"] = models.FieldQuality{
			IsValid:       false,
			Description:   fmt.Sprintf("Invalid - reaching the target takes more than %d increases", metrics.MaxScalingSteps),
			OriginalValue: req.TargetSpend,
		}
		quality.ErrorCount++
	}
}

// ValidateTimelineRequest checks a stateless scaling plan request.
// Zero increment and frequency mean "use the defaults".
func (t *Transformer) ValidateTimelineRequest(req models.TimelineRequest) models.RecordQuality {
	quality := models.RecordQuality{
		RecordID:    "scaling_timeline",
		IsValid:     true,
		FieldErrors: make(map[string]models.FieldQuality),
	}

	t.validateAmount(&req.CurrentSpend, "current_spend", &quality)
	t.validateAmount(&req.TargetSpend, "target_spend", &quality)

	var in models.ProjectionInputs
	if req.IncrementPercent != 0 {
		in.ScalingIncrementPercent = &req.IncrementPercent
	}
	if req.FrequencyDays != 0 {
		in.ScalingFrequencyDays = &req.FrequencyDays
	}
	t.validateScaling(in, &quality)

	quality.IsValid = quality.ErrorCount == 0
	return quality
}

// Issues lists the failed checks of a record as "field: description", sorted.
func Issues(q models.RecordQuality) []string {
	issues := make([]string, 0, q.ErrorCount)
	for field, fq := range q.Invalid() {
		issues = append(issues, fmt.Sprintf("%s: %s", field, fq.Description))
	}
	sort.Strings(issues)
	return issues
}

func (t *Transformer) validateRequired(value string, fieldName string, quality *models.RecordQuality) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		quality.FieldErrors[fieldName] = models.FieldQuality{
			IsValid:       false,
			Description:   "Missing - field is required",
			OriginalValue: value,
		}
		quality.ErrorCount++
		return trimmed
	}

	quality.FieldErrors[fieldName] = models.FieldQuality{
		IsValid:       true,
		Description:   "Present",
		OriginalValue: value,
	}
	return trimmed
}

func (t *Transformer) validateEmail(email string, fieldName string, quality *models.RecordQuality) string {
	cleaned := strings.ToLower(strings.TrimSpace(email))
	if cleaned == "" {
		return ""
	}

	if !t.emailRegex.MatchString(cleaned) {
		quality.FieldErrors[fieldName] = models.FieldQuality{
			IsValid:       false,
			Description:   "Invalid email format",
			OriginalValue: email,
		}
		quality.ErrorCount++
		return cleaned
	}

	quality.FieldErrors[fieldName] = models.FieldQuality{
		IsValid:       true,
		Description:   "Valid email",
		OriginalValue: email,
	}
	return cleaned
}

func (t *Transformer) validateStatus(status models.ProspectStatus, fieldName string, quality *models.RecordQuality) models.ProspectStatus {
	cleaned := models.ProspectStatus(strings.TrimSpace(string(status)))
	if cleaned == "" {
		return models.StatusNew
	}

	if !cleaned.Valid() {
		quality.FieldErrors[fieldName] = models.FieldQuality{
			IsValid:       false,
			Description:   fmt.Sprintf("Unknown status: %s", status),
			OriginalValue: status,
		}
		quality.ErrorCount++
		return cleaned
	}

	quality.FieldErrors[fieldName] = models.FieldQuality{
		IsValid:       true,
		Description:   "Valid status",
		OriginalValue: status,
	}
	return cleaned
}

func (t *Transformer) validateFunnelType(id string, fieldName string, quality *models.RecordQuality) string {
	cleaned := strings.TrimSpace(id)
	if cleaned == "" {
		return ""
	}

	if _, err := funnel.ParseType(cleaned); err != nil {
		quality.FieldErrors[fieldName] = models.FieldQuality{
			IsValid:       false,
			Description:   fmt.Sprintf("Unknown funnel type: %s", cleaned),
			OriginalValue: id,
		}
		quality.ErrorCount++
		return cleaned
	}

	quality.FieldErrors[fieldName] = models.FieldQuality{
		IsValid:       true,
		Description:   "Valid funnel type",
		OriginalValue: id,
	}
	return cleaned
}

func (t *Transformer) validateAmount(amount *float64, fieldName string, quality *models.RecordQuality) {
	if amount == nil {
		return
	}

	if !finite(*amount) || *amount < 0 {
		quality.FieldErrors[fieldName] = models.FieldQuality{
			IsValid:       false,
			Description:   "Invalid - Amount cannot be negative",
			OriginalValue: *amount,
		}
		quality.ErrorCount++
		return
	}

	quality.FieldErrors[fieldName] = models.FieldQuality{
		IsValid:       true,
		Description:   "Valid amount",
		OriginalValue: *amount,
	}
}

func (t *Transformer) validateRate(rate *float64, fieldName string, quality *models.RecordQuality) {
	if rate == nil {
		return
	}

	if !finite(*rate) || *rate < 0 || *rate > 100 {
		quality.FieldErrors[fieldName] = models.FieldQuality{
			IsValid:       false,
			Description:   "Invalid - Rate must be between 0 and 100",
			OriginalValue: *rate,
		}
		quality.ErrorCount++
		return
	}

	quality.FieldErrors[fieldName] = models.FieldQuality{
		IsValid:       true,
		Description:   "Valid rate",
		OriginalValue: *rate,
	}
}

func (t *Transformer) validateScaling(in models.ProjectionInputs, quality *models.RecordQuality) {
	if inc := in.ScalingIncrementPercent; inc != nil {
		if !finite(*inc) || *inc < minScalingIncrement || *inc > maxScalingIncrement {
			quality.FieldErrors["scaling_increment_percent"] = models.FieldQuality{
				IsValid:       false,
				Description:   fmt.Sprintf("Invalid - Increment must be between %d and %d percent", minScalingIncrement, maxScalingIncrement),
				OriginalValue: *inc,
			}
			quality.ErrorCount++
		} else {
			quality.FieldErrors["scaling_increment_percent"] = models.FieldQuality{
				IsValid:       true,
				Description:   "Valid increment",
				OriginalValue: *inc,
			}
		}
	}

	if freq := in.ScalingFrequencyDays; freq != nil {
		if *freq < 1 || *freq > maxScalingFrequency {
			quality.FieldErrors["scaling_frequency_days"] = models.FieldQuality{
				IsValid:       false,
				Description:   fmt.Sprintf("Invalid - Frequency must be between 1 and %d days", maxScalingFrequency),
				OriginalValue: *freq,
			}
			quality.ErrorCount++
		} else {
			quality.FieldErrors["scaling_frequency_days"] = models.FieldQuality{
				IsValid:       true,
				Description:   "Valid frequency",
				OriginalValue: *freq,
			}
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
