// internal/delivery/renderer.go

// Package delivery turns matching results into the daily digest email and
// raises operational alerts for bad batch runs.
package delivery

import (
	"fmt"
	"strings"

	"jobmatch-engine/internal/models"
)

// Renderer turns one result into an email subject and body. Implementations
// own the template; the dispatcher stays format-agnostic.
type Renderer interface {
	Render(result *models.MatchingResult) (subject, body string, err error)
}

var sectionHeadings = map[models.SectionName]string{
	models.SectionEditorialPicks: "Editor's Picks",
	models.SectionTop5:           "Top Matches",
	models.SectionRegional:       "In Your Region",
	models.SectionNearby:         "Near You",
	models.SectionHighIncome:     "High Income",
	models.SectionPersonalized:   "Picked For You",
}

// TextRenderer renders a plain-text digest. Sections appear in their fixed
// order; empty sections are skipped.
type TextRenderer struct{}

func (TextRenderer) Render(result *models.MatchingResult) (string, string, error) {
	if result.TotalCount == 0 {
		return "", "", fmt.Errorf("empty result for user %s", result.UserID)
	}

	subject := fmt.Sprintf("Your daily job matches for %s", result.GeneratedAt.Format("Jan 2"))

	var b strings.Builder
	for _, name := range models.SectionOrder {
		items := result.Sections[name]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s\n", sectionHeadings[name])
		for _, item := range items {
			fmt.Fprintf(&b, "  - %s (match %.0f%%)\n", item.Job.Title, item.Scores.Total)
		}
		b.WriteString("\n")
	}
	return subject, b.String(), nil
}
