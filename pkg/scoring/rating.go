package scoring

// Tier is a discrete certification level derived from the overall score.
type Tier struct {
	Stars int
	Label string
}

// Certification tiers, lowest to highest.
var (
	TierUnrated   = Tier{Stars: 0, Label: "Unrated"}
	TierOneStar   = Tier{Stars: 1, Label: "1-Star"}
	TierTwoStar   = Tier{Stars: 2, Label: "2-Star"}
	TierThreeStar = Tier{Stars: 3, Label: "3-Star"}
	TierFourStar  = Tier{Stars: 4, Label: "4-Star"}
	TierFiveStar  = Tier{Stars: 5, Label: "5-Star (Diamond)"}
)

// RatingTier maps an overall score to its certification tier. The breakpoint
// table 1/45/60/80/106 is the canonical one used on certificates and in the
// client UI.
func RatingTier(overallScore int) Tier {
	switch {
	case overallScore >= 106:
		return TierFiveStar
	case overallScore >= 80:
		return TierFourStar
	case overallScore >= 60:
		return TierThreeStar
	case overallScore >= 45:
		return TierTwoStar
	case overallScore >= 1:
		return TierOneStar
	default:
		return TierUnrated
	}
}
