package api

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"

	"github.com/iklavya/coach"
)

// ScoreResume runs the ATS evaluation of a generated resume.
func (c *Client) ScoreResume(ctx context.Context, resumeID string) (coach.ATSScore, error) {
	var raw apiATSScore
	if err := c.doJSON(ctx, http.MethodPost, resumePath(resumeID, "ats-score"), struct{}{}, &raw); err != nil {
		return coach.ATSScore{}, err
	}
	score := coach.ATSScore{
		TotalScore:         round(raw.TotalScore),
		MaxScore:           round(raw.MaxScore),
		DeterministicTotal: round(raw.DeterministicTotal),
		SemanticTotal:      round(raw.SemanticTotal),
		MatchedKeywords:    raw.MatchedKeywords,
		MissingKeywords:    raw.MissingKeywords,
		Suggestions:        raw.Suggestions,
	}
	for _, cat := range raw.Categories {
		score.Categories = append(score.Categories, coach.ATSCategory{
			Key:        cat.Key,
			Label:      cat.Label,
			Score:      round(cat.Score),
			Max:        round(cat.Max),
			Percentage: round(cat.Percentage),
			Tip:        cat.Tip,
			Grade:      cat.Grade,
			Type:       cat.Type,
		})
	}
	return score, nil
}

// DownloadResume writes the rendered PDF of a resume to w and returns the
// number of bytes written.
func (c *Client) DownloadResume(ctx context.Context, resumeID string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, resumePath(resumeID, "download"), nil, "application/pdf")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("api: download resume: %w", err)
	}
	return n, nil
}

// SetTemplate switches the layout template of a generated resume.
func (c *Client) SetTemplate(ctx context.Context, resumeID, template string) error {
	if template == "" {
		return fmt.Errorf("api: template is empty: %w", coach.ErrValidation)
	}
	return c.doJSON(ctx, http.MethodPatch, resumePath(resumeID, "template"), templateRequest{Template: template}, nil)
}

func resumePath(id, action string) string {
	return "/resume/" + url.PathEscape(id) + "/" + action
}

func round(f float64) int {
	return int(math.Round(f))
}
