// internal/engine/scoring/keyword.go
package scoring

import (
	"context"
	"strings"
	"unicode"

	"jobmatch-engine/internal/common/config"
	"jobmatch-engine/internal/models"
)

// maxSkillBonus caps the multiplier applied when the user's declared skill
// set exceeds their keyword count.
const maxSkillBonus = 1.2

// KeywordScorer computes the fraction of the user's target keywords found in
// the candidate's text fields, weighting the title over free text.
type KeywordScorer struct {
	titleWeight float64
	skillBonus  float64
}

func NewKeywordScorer(cfg config.ScoringConfig) *KeywordScorer {
	bonus := cfg.SkillBonusFactor
	if bonus > maxSkillBonus {
		bonus = maxSkillBonus
	}
	return &KeywordScorer{
		titleWeight: cfg.KeywordTitleWeight,
		skillBonus:  bonus,
	}
}

func (s *KeywordScorer) Name() string {
	return models.ComponentKeyword
}

func (s *KeywordScorer) Score(_ context.Context, job *models.JobCandidate, user *models.UserProfile) (float64, error) {
	targets := targetKeywords(user)
	if len(targets) == 0 {
		return 0, nil
	}

	titleTokens := Tokenize(job.Title)
	textTokens := Tokenize(job.Description + " " + job.Requirements)
	if len(titleTokens) == 0 && len(textTokens) == 0 {
		return 0, nil
	}

	titleFrac := matchFraction(targets, titleTokens)
	textFrac := matchFraction(targets, textTokens)

	score := (titleFrac*s.titleWeight + textFrac*(1-s.titleWeight)) * 100

	// Users who declare more skills than keywords bring a broader signal;
	// reward it with a small capped bonus.
	if len(user.Skills) > len(targets) {
		score *= s.skillBonus
	}

	return models.Clamp(score), nil
}

func targetKeywords(user *models.UserProfile) []string {
	source := user.Keywords
	if len(source) == 0 {
		source = user.Skills
	}
	targets := make([]string, 0, len(source))
	seen := make(map[string]struct{}, len(source))
	for _, kw := range source {
		normalized := normalizeTerm(kw)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		targets = append(targets, normalized)
	}
	return targets
}

func matchFraction(targets []string, tokens map[string]struct{}) float64 {
	if len(targets) == 0 {
		return 0
	}
	matched := 0
	for _, t := range targets {
		if _, ok := tokens[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(targets))
}

// Tokenize case-folds and splits text into normalized keyword tokens,
// preserving compound technology terms ("next.js", "c++", "c#") as single
// tokens.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), splitRune) {
		if term := normalizeTerm(field); term != "" {
			tokens[term] = struct{}{}
		}
	}
	return tokens
}

// splitRune breaks on whitespace and separator punctuation while keeping the
// characters that carry meaning inside compound terms.
func splitRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	switch r {
	case '.', '+', '#', '-':
		return false
	}
	return true
}

// normalizeTerm trims punctuation that only appears at term boundaries; a
// trailing '.' is sentence punctuation but trailing '+' or '#' is part of the
// term.
func normalizeTerm(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	term = strings.Trim(term, "-")
	term = strings.TrimLeft(term, ".+#")
	term = strings.TrimRight(term, ".")
	return term
}
