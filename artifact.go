package coach

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Artifact is a sealed interface for the terminal output attached to a
// completed session. The unexported marker method prevents external
// implementations.
type Artifact interface {
	artifact()
}

// Analysis is the career analysis produced at the end of a guidance session.
// The JSON fields are opaque documents passed through from the backend.
type Analysis struct {
	AnalysisJSON     string
	AnalysisMarkdown string
	RoadmapJSON      string
}

func (Analysis) artifact() {}

// RoadmapStep is one entry of the career roadmap in an Analysis.
type RoadmapStep struct {
	Order       int    `json:"order"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timeline    string `json:"timeline"`
}

// Roadmap decodes the roadmap steps, ordered by Order. An empty RoadmapJSON
// yields no steps and no error.
func (a Analysis) Roadmap() ([]RoadmapStep, error) {
	if a.RoadmapJSON == "" {
		return nil, nil
	}
	var doc struct {
		Steps []RoadmapStep `json:"steps"`
	}
	if err := json.Unmarshal([]byte(a.RoadmapJSON), &doc); err != nil {
		return nil, fmt.Errorf("roadmap: %w", err)
	}
	sort.SliceStable(doc.Steps, func(i, j int) bool {
		return doc.Steps[i].Order < doc.Steps[j].Order
	})
	return doc.Steps, nil
}

// Resume is the document produced at the end of a resume builder session.
type Resume struct {
	ResumeID   string
	ResumeJSON string
	Template   string
}

func (Resume) artifact() {}

// Interface compliance checks.
var (
	_ Artifact = Analysis{}
	_ Artifact = Resume{}
)
