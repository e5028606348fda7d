// internal/models/score.go
package models

import (
	"fmt"
	"math"
)

// Component names shared by the scorers, the weight configuration, and the
// aggregator. The weight map must carry every one of these keys.
const (
	ComponentBasic        = "basic"
	ComponentLocation     = "location"
	ComponentCategory     = "category"
	ComponentSalary       = "salary"
	ComponentFeature      = "feature"
	ComponentKeyword      = "keyword"
	ComponentPersonalized = "personalized"
	ComponentAI           = "ai"
)

// ComponentNames lists every score component in aggregation order.
var ComponentNames = []string{
	ComponentBasic,
	ComponentLocation,
	ComponentCategory,
	ComponentSalary,
	ComponentFeature,
	ComponentKeyword,
	ComponentPersonalized,
	ComponentAI,
}

// ScoreComponents holds the per-component scores for one job/user pair plus
// the derived composite. Every field is constrained to [0,100]; use Set to
// keep the invariant.
type ScoreComponents struct {
	Basic        float64 `json:"basic"`
	Location     float64 `json:"location"`
	Category     float64 `json:"category"`
	Salary       float64 `json:"salary"`
	Feature      float64 `json:"feature"`
	Keyword      float64 `json:"keyword"`
	Personalized float64 `json:"personalized"`
	AI           float64 `json:"ai"`
	Total        float64 `json:"total"`
}

// Set assigns one named component, rejecting out-of-range values.
func (s *ScoreComponents) Set(name string, value float64) error {
	if value < 0 || value > 100 || math.IsNaN(value) {
		return fmt.Errorf("score component %q out of range: %v", name, value)
	}
	switch name {
	case ComponentBasic:
		s.Basic = value
	case ComponentLocation:
		s.Location = value
	case ComponentCategory:
		s.Category = value
	case ComponentSalary:
		s.Salary = value
	case ComponentFeature:
		s.Feature = value
	case ComponentKeyword:
		s.Keyword = value
	case ComponentPersonalized:
		s.Personalized = value
	case ComponentAI:
		s.AI = value
	default:
		return fmt.Errorf("unknown score component %q", name)
	}
	return nil
}

// Get returns one named component value.
func (s *ScoreComponents) Get(name string) float64 {
	switch name {
	case ComponentBasic:
		return s.Basic
	case ComponentLocation:
		return s.Location
	case ComponentCategory:
		return s.Category
	case ComponentSalary:
		return s.Salary
	case ComponentFeature:
		return s.Feature
	case ComponentKeyword:
		return s.Keyword
	case ComponentPersonalized:
		return s.Personalized
	case ComponentAI:
		return s.AI
	}
	return 0
}

// Clamp bounds a raw score to the [0,100] range.
func Clamp(v float64) float64 {
	return math.Min(math.Max(v, 0.0), 100.0)
}

// Round2 rounds a score to two decimal places, the precision carried by the
// composite total.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
