// internal/engine/scoring/preference.go
package scoring

import (
	"context"

	"jobmatch-engine/internal/models"
)

// The preference scorers cover the simple profile-fit components: location,
// category, salary and feature flags. A user who states no preference gets
// the neutral 50 for that component; a candidate missing the data scores 0.

// LocationScorer matches candidate location codes against the user's.
type LocationScorer struct{}

func (LocationScorer) Name() string {
	return models.ComponentLocation
}

func (LocationScorer) Score(_ context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	if len(user.LocationCodes) == 0 {
		return 50, nil
	}
	if len(job.LocationCodes) == 0 {
		return 0, nil
	}
	if overlaps(job.LocationCodes, user.LocationCodes) {
		return 100, nil
	}
	return 30, nil
}

// CategoryScorer matches candidate categories against desired categories.
type CategoryScorer struct{}

func (CategoryScorer) Name() string {
	return models.ComponentCategory
}

func (CategoryScorer) Score(_ context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	if len(user.DesiredCategories) == 0 {
		return 50, nil
	}
	if len(job.CategoryCodes) == 0 {
		return 0, nil
	}
	if overlaps(job.CategoryCodes, user.DesiredCategories) {
		return 100, nil
	}
	return 40, nil
}

// SalaryScorer compares the candidate's salary range with the user's minimum.
type SalaryScorer struct{}

func (SalaryScorer) Name() string {
	return models.ComponentSalary
}

func (SalaryScorer) Score(_ context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	if user.MinimumSalary <= 0 {
		return 50, nil
	}
	if job.SalaryMax <= 0 {
		return 0, nil
	}
	switch {
	case job.SalaryMin >= user.MinimumSalary:
		return 100, nil
	case job.SalaryMax >= user.MinimumSalary:
		return 70, nil
	case float64(job.SalaryMax) >= float64(user.MinimumSalary)*0.8:
		return 40, nil
	}
	return 20, nil
}

// FeatureScorer scores the fraction of the user's keyword-named features the
// candidate advertises as boolean flags.
type FeatureScorer struct{}

func (FeatureScorer) Name() string {
	return models.ComponentFeature
}

func (FeatureScorer) Score(_ context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	if len(user.Keywords) == 0 {
		return 50, nil
	}
	if len(job.Features) == 0 {
		return 0, nil
	}
	matched := 0
	for _, kw := range user.Keywords {
		if job.Features[kw] {
			matched++
		}
	}
	return models.Clamp(float64(matched) / float64(len(user.Keywords)) * 100), nil
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
