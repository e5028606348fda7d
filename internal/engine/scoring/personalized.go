// internal/engine/scoring/personalized.go
package scoring

import (
	"context"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/models"
)

// defaultPersonalizedScore is returned whenever the model cannot produce a
// history-based score. A deliberate fallback, not an approximation.
const defaultPersonalizedScore = 50.0

// PersonalizedModel computes a preference score from a user's interaction
// history. The affinity model below is the stock implementation; a trained
// recommender plugs in behind the same interface.
type PersonalizedModel interface {
	Predict(ctx context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error)
}

// PersonalizedScorer guards a PersonalizedModel with the minimum-sample
// fallback and degrades model failures to the default score.
type PersonalizedScorer struct {
	model      PersonalizedModel
	minSamples int
}

func NewPersonalizedScorer(cfg config.ScoringConfig, model PersonalizedModel) *PersonalizedScorer {
	if model == nil {
		model = &AffinityModel{}
	}
	return &PersonalizedScorer{
		model:      model,
		minSamples: cfg.MinHistorySamples,
	}
}

func (s *PersonalizedScorer) Name() string {
	return models.ComponentPersonalized
}

func (s *PersonalizedScorer) Score(ctx context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	if len(user.History) < s.minSamples {
		return defaultPersonalizedScore, nil
	}
	score, err := s.model.Predict(ctx, job, user)
	if err != nil {
		return defaultPersonalizedScore, nil
	}
	return models.Clamp(score), nil
}

// Interaction weights: applying signals much stronger intent than viewing.
var interactionWeights = map[models.InteractionKind]float64{
	models.InteractionView:  1,
	models.InteractionSave:  2,
	models.InteractionApply: 3,
}

// AffinityModel scores similarity between the user's historical
// category/keyword affinities and the candidate's attributes.
type AffinityModel struct{}

func (m *AffinityModel) Predict(_ context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	catAffinity := make(map[string]float64)
	kwAffinity := make(map[string]float64)
	catTotal, kwTotal := 0.0, 0.0

	for _, event := range user.History {
		w := interactionWeights[event.Kind]
		if w == 0 {
			w = 1
		}
		for _, cat := range event.Categories {
			catAffinity[cat] += w
			catTotal += w
		}
		for _, kw := range event.Keywords {
			normalized := normalizeTerm(kw)
			if normalized == "" {
				continue
			}
			kwAffinity[normalized] += w
			kwTotal += w
		}
	}

	catOverlap := 0.0
	if catTotal > 0 {
		for _, cat := range job.CategoryCodes {
			catOverlap += catAffinity[cat]
		}
		catOverlap /= catTotal
	}

	kwOverlap := 0.0
	if kwTotal > 0 {
		jobTokens := Tokenize(job.Title + " " + job.Description)
		for kw, w := range kwAffinity {
			if _, ok := jobTokens[kw]; ok {
				kwOverlap += w
			}
		}
		kwOverlap /= kwTotal
	}

	return models.Clamp((catOverlap*0.6 + kwOverlap*0.4) * 100), nil
}
