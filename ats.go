package coach

// ATSScore is the applicant-tracking-system evaluation of a generated resume.
type ATSScore struct {
	TotalScore         int
	MaxScore           int
	DeterministicTotal int
	SemanticTotal      int
	Categories         []ATSCategory
	MatchedKeywords    []string
	MissingKeywords    []string
	Suggestions        []string
}

// ATSCategory is one scored dimension of an ATSScore.
type ATSCategory struct {
	Key        string
	Label      string
	Score      int
	Max        int
	Percentage int
	Tip        string
	Grade      string
	Type       string // "deterministic" or "semantic"
}

// Percent returns TotalScore as a rounded percentage of MaxScore.
func (s ATSScore) Percent() int {
	if s.MaxScore <= 0 {
		return 0
	}
	return (s.TotalScore*200 + s.MaxScore) / (2 * s.MaxScore)
}

// Label buckets the score percentage into a human rating.
func (s ATSScore) Label() string {
	switch p := s.Percent(); {
	case p >= 80:
		return "Excellent"
	case p >= 60:
		return "Good"
	case p >= 40:
		return "Needs Work"
	default:
		return "Poor"
	}
}
