package json

import (
	"fmt"

	"github.com/iklavya/coach"
)

// artifactDTO is the JSON representation of an Artifact with a type
// discriminator. The embedded documents are kept as strings so they
// round-trip byte for byte.
type artifactDTO struct {
	Type             string  `json:"type"`
	AnalysisJSON     *string `json:"analysis_json,omitempty"`
	AnalysisMarkdown *string `json:"analysis_markdown,omitempty"`
	RoadmapJSON      *string `json:"roadmap_json,omitempty"`
	ResumeID         *string `json:"resume_id,omitempty"`
	ResumeJSON       *string `json:"resume_json,omitempty"`
	Template         *string `json:"template,omitempty"`
}

func marshalArtifact(a coach.Artifact) (artifactDTO, error) {
	switch v := a.(type) {
	case coach.Analysis:
		return artifactDTO{
			Type:             "analysis",
			AnalysisJSON:     &v.AnalysisJSON,
			AnalysisMarkdown: &v.AnalysisMarkdown,
			RoadmapJSON:      &v.RoadmapJSON,
		}, nil
	case coach.Resume:
		return artifactDTO{
			Type:       "resume",
			ResumeID:   &v.ResumeID,
			ResumeJSON: &v.ResumeJSON,
			Template:   &v.Template,
		}, nil
	default:
		return artifactDTO{}, fmt.Errorf("unknown artifact type: %T", a)
	}
}

func unmarshalArtifact(dto artifactDTO) (coach.Artifact, error) {
	switch dto.Type {
	case "analysis":
		return coach.Analysis{
			AnalysisJSON:     deref(dto.AnalysisJSON),
			AnalysisMarkdown: deref(dto.AnalysisMarkdown),
			RoadmapJSON:      deref(dto.RoadmapJSON),
		}, nil
	case "resume":
		return coach.Resume{
			ResumeID:   deref(dto.ResumeID),
			ResumeJSON: deref(dto.ResumeJSON),
			Template:   deref(dto.Template),
		}, nil
	default:
		return nil, fmt.Errorf("unknown artifact type: %q", dto.Type)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
