// Package catalog defines the fixed GREDA-GBC section and variable catalog.
// The catalog is configuration, not runtime state: it is the ruleset the
// scoring aggregator and section validation consume.
package catalog

// Variable is an individually-scored item within a section. The Requires*
// flags mark supporting evidence the assessor is expected to attach; they are
// advisory and never block scoring.
type Variable struct {
	ID               string
	Name             string
	MaxScore         int
	RequiresImages   bool
	RequiresVideos   bool
	RequiresAudio    bool
	RequiresLocation bool
}

// Section is one of the fixed assessment categories. Scored is false only for
// the building-information section, which collects metadata rather than
// points.
type Section struct {
	Type      string
	Name      string
	Scored    bool
	Variables []Variable
}

// MaxOverallScore is the domain ceiling for a fully-scored assessment: the
// sum of every scored variable's maximum value.
const MaxOverallScore = 130

// TotalSections is the fixed number of sections per assessment, including the
// non-scored building-information section.
const TotalSections = 8

var (
	sectionsByType map[string]*Section
	variablesBySec map[string]map[string]*Variable
	maxScoreBySec  map[string]int
)

func init() {
	sectionsByType = make(map[string]*Section, len(Sections))
	variablesBySec = make(map[string]map[string]*Variable, len(Sections))
	maxScoreBySec = make(map[string]int, len(Sections))

	for i := range Sections {
		s := &Sections[i]
		sectionsByType[s.Type] = s

		vars := make(map[string]*Variable, len(s.Variables))
		max := 0
		for j := range s.Variables {
			v := &s.Variables[j]
			vars[v.ID] = v
			max += v.MaxScore
		}
		variablesBySec[s.Type] = vars
		maxScoreBySec[s.Type] = max
	}
}

// SectionByType returns the section definition for a type key.
func SectionByType(sectionType string) (*Section, bool) {
	s, ok := sectionsByType[sectionType]
	return s, ok
}

// VariableByID returns a variable definition within a section.
func VariableByID(sectionType, variableID string) (*Variable, bool) {
	vars, ok := variablesBySec[sectionType]
	if !ok {
		return nil, false
	}
	v, ok := vars[variableID]
	return v, ok
}

// SectionMaxScore returns the sum of maximum values of a section's variables.
// Returns 0 for unknown or non-scored sections.
func SectionMaxScore(sectionType string) int {
	return maxScoreBySec[sectionType]
}

// SectionTypes returns the ordered list of section type keys.
func SectionTypes() []string {
	types := make([]string, len(Sections))
	for i := range Sections {
		types[i] = Sections[i].Type
	}
	return types
}
