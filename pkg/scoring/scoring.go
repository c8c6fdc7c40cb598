// Package scoring contains the pure score aggregation rules: section scores,
// overall score, and certification tier. Functions here have no side effects
// and are safe to call repeatedly; input validation happens at write time in
// the assessment service, so sums never need to clamp.
package scoring

import (
	"github.com/greda-gbc/assessment-engine/pkg/catalog"
	"github.com/greda-gbc/assessment-engine/pkg/models"
)

// SectionScore returns the sum of all variable values present in the map.
func SectionScore(variables models.VariableMap) int {
	total := 0
	for _, v := range variables {
		total += v
	}
	return total
}

// SectionMaxScore returns the maximum attainable score for a section type.
func SectionMaxScore(sectionType string) int {
	return catalog.SectionMaxScore(sectionType)
}

// Overall holds the aggregate values derived from an assessment's sections.
type Overall struct {
	OverallScore      int
	MaxPossibleScore  int
	CompletedSections int
}

// ComputeOverall aggregates section scores into the assessment-level totals.
// The invariants overallScore == Σ section.score and completedSections ==
// count(isCompleted) hold by construction.
func ComputeOverall(sections []*models.AssessmentSection) Overall {
	var o Overall
	for _, s := range sections {
		o.OverallScore += s.Score
		o.MaxPossibleScore += s.MaxScore
		if s.IsCompleted {
			o.CompletedSections++
		}
	}
	return o
}
