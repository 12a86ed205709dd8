// Package funnel holds the catalogue of supported funnel shapes.
package funnel

import (
	"errors"
	"fmt"

	"funnel-tracker/internal/models"
)

var ErrUnknownType = errors.New("unknown funnel type")

type Type string

const (
	Webinar       Type = "webinar"
	WebinarToCall Type = "webinar_to_call"
	DirectCall    Type = "direct_call"
)

type StageDefinition struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	DefaultName string `json:"default_name"`
	CanBePaid   bool   `json:"can_be_paid"`
}

type Definition struct {
	ID            Type              `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Stages        []StageDefinition `json:"stages"`
	Stage3Enabled bool              `json:"stage3_enabled"`
	Stage4Enabled bool              `json:"stage4_enabled"`
}

// ActiveStage is a stage the prospect has switched on, with its display name resolved.
type ActiveStage struct {
	StageDefinition
	DisplayName string `json:"display_name"`
}

var order = []Type{Webinar, WebinarToCall, DirectCall}

var definitions = map[Type]Definition{
	Webinar: {
		ID:          Webinar,
		Name:        "Webinar Funnel",
		Description: "Registration → Attendance → Sale",
		Stages: []StageDefinition{
			{Key: "stage1", Name: "Registration", DefaultName: "Registration", CanBePaid: true},
			{Key: "stage2", Name: "Attendance", DefaultName: "Attendance"},
		},
	},
	WebinarToCall: {
		ID:          WebinarToCall,
		Name:        "Webinar-to-Call Funnel",
		Description: "Registration → Attendance → Call Booking → Call Attendance → Sale",
		Stages: []StageDefinition{
			{Key: "stage1", Name: "Registration", DefaultName: "Webinar Registration", CanBePaid: true},
			{Key: "stage2", Name: "Attendance", DefaultName: "Webinar Attendance"},
			{Key: "stage3", Name: "Call Booking", DefaultName: "1-1 Call Booking", CanBePaid: true},
			{Key: "stage4", Name: "Call Attendance", DefaultName: "Call Attendance"},
		},
		Stage3Enabled: true,
		Stage4Enabled: true,
	},
	DirectCall: {
		ID:          DirectCall,
		Name:        "Direct Call Funnel",
		Description: "Opt-In → Call Booking → Call Attendance → Sale",
		Stages: []StageDefinition{
			{Key: "stage1", Name: "Opt-In", DefaultName: "Opt-In", CanBePaid: true},
			{Key: "stage2", Name: "Call Booking", DefaultName: "Call Booking", CanBePaid: true},
			{Key: "stage3", Name: "Call Attendance", DefaultName: "Call Attendance"},
		},
		Stage3Enabled: true,
	},
}

var optimizationEvents = map[Type][]string{
	Webinar:       {"Registration", "Attendance", "Purchase"},
	WebinarToCall: {"Registration", "Attendance", "Call Booking", "Call Attendance", "Purchase"},
	DirectCall:    {"Opt-In", "Call Booking", "Call Attendance", "Purchase"},
}

var fallbackEvents = []string{"Registration", "Purchase"}

func ParseType(id string) (Type, error) {
	t := Type(id)
	if _, ok := definitions[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, id)
	}
	return t, nil
}

// Lookup returns a copy of the definition for id.
func Lookup(id string) (Definition, bool) {
	def, ok := definitions[Type(id)]
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

func All() []Definition {
	out := make([]Definition, 0, len(order))
	for _, t := range order {
		out = append(out, definitions[t].clone())
	}
	return out
}

func OptimizationEvents(id string) []string {
	events, ok := optimizationEvents[Type(id)]
	if !ok {
		events = fallbackEvents
	}
	return append([]string(nil), events...)
}

// DefaultStageNames maps each stage name field (stage1_name, ...) to its default.
func DefaultStageNames(id string) map[string]string {
	names := make(map[string]string)
	def, ok := definitions[Type(id)]
	if !ok {
		return names
	}
	for _, s := range def.Stages {
		names[s.Key+"_name"] = s.DefaultName
	}
	return names
}

func ActiveStages(p models.Prospect) []ActiveStage {
	def, ok := definitions[Type(p.FunnelType)]
	if !ok {
		return []ActiveStage{}
	}
	out := make([]ActiveStage, 0, len(def.Stages))
	for i, s := range def.Stages {
		n := i + 1
		if (n == 3 && !p.Stage3On()) || (n == 4 && !p.Stage4On()) {
			continue
		}
		name := p.StageName(n)
		if name == "" {
			name = s.DefaultName
		}
		out = append(out, ActiveStage{StageDefinition: s, DisplayName: name})
	}
	return out
}

// ApplyDefaults fills the stage names and stage 3/4 switches a prospect left
// empty with the values of its funnel type. Unknown types are left untouched.
func ApplyDefaults(p *models.Prospect) {
	def, ok := definitions[Type(p.FunnelType)]
	if !ok {
		return
	}
	names := []*string{&p.Stage1Name, &p.Stage2Name, &p.Stage3Name, &p.Stage4Name}
	for i, s := range def.Stages {
		if *names[i] == "" {
			*names[i] = s.DefaultName
		}
	}
	if p.Stage3Enabled == nil {
		p.Stage3Enabled = models.Ptr(def.Stage3Enabled)
	}
	if p.Stage4Enabled == nil {
		p.Stage4Enabled = models.Ptr(def.Stage4Enabled)
	}
}

func (d Definition) clone() Definition {
	d.Stages = append([]StageDefinition(nil), d.Stages...)
	return d
}
