// Package json persists session transcripts as versioned JSON envelopes.
package json

import (
	"encoding/json"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/iklavya/coach"
)

// Version is the envelope version written by MarshalSession.
const Version = 1

// Ext is the file extension of saved transcripts.
const Ext = ".json"

// envelope is the v1 wire format for a persisted session.
type envelope struct {
	Version   int          `json:"version"`
	ID        string       `json:"id"`
	Kind      string       `json:"kind"`
	Title     string       `json:"title,omitempty"`
	Phase     string       `json:"phase"`
	Template  string       `json:"template,omitempty"`
	Summary   string       `json:"summary,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Messages  []messageDTO `json:"messages"`
	Artifact  *artifactDTO `json:"artifact,omitempty"`
}

// MarshalSession serializes a Session to JSON in v1 envelope format.
func MarshalSession(s coach.Session) ([]byte, error) {
	env := envelope{
		Version:   Version,
		ID:        s.ID,
		Kind:      string(s.Kind),
		Title:     s.Title,
		Phase:     string(s.Phase),
		Template:  s.Template,
		Summary:   s.Summary,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  make([]messageDTO, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		dto, err := marshalMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages[i] = dto
	}
	if s.Artifact != nil {
		a, err := marshalArtifact(s.Artifact)
		if err != nil {
			return nil, err
		}
		env.Artifact = &a
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalSession deserializes a Session from JSON in v1 envelope format.
func UnmarshalSession(data []byte) (coach.Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return coach.Session{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != Version {
		return coach.Session{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]coach.Message, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return coach.Session{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	s := coach.Session{
		ID:        env.ID,
		Kind:      coach.Kind(env.Kind),
		Title:     env.Title,
		Phase:     coach.Phase(env.Phase),
		Template:  env.Template,
		Summary:   env.Summary,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Messages:  msgs,
	}
	if s.Phase != coach.PhaseCompleted {
		s.Phase = coach.PhaseActive
	}
	if env.Artifact != nil {
		a, err := unmarshalArtifact(*env.Artifact)
		if err != nil {
			return coach.Session{}, err
		}
		s.Artifact = a
	}
	return s, nil
}

// Path returns the transcript file for a session inside dir. The session id
// and kind must each be a single path element so the file stays in dir.
func Path(dir string, s coach.Session) (string, error) {
	if !pathElement(s.ID) {
		return "", fmt.Errorf("json: session id %q: %w", s.ID, coach.ErrValidation)
	}
	if s.Kind != "" && !pathElement(string(s.Kind)) {
		return "", fmt.Errorf("json: session kind %q: %w", s.Kind, coach.ErrValidation)
	}
	return filepath.Join(dir, string(s.Kind), s.ID+Ext), nil
}

func pathElement(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// Save writes a Session to a JSON file, creating parent directories as needed.
func Save(path string, s coach.Session) error {
	data, err := MarshalSession(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Session from a JSON file.
func Load(path string) (coach.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return coach.Session{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalSession(data)
}

// List returns the transcript files under dir whose slash-separated path
// relative to dir matches pattern, sorted. An empty pattern matches every
// transcript. A missing dir yields no files.
func List(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "**/*" + Ext
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	var out []string
	err := doublestar.GlobWalk(os.DirFS(dir), pattern, func(path string, d iofs.DirEntry) error {
		if d.IsDir() || !strings.HasSuffix(path, Ext) {
			return nil
		}
		out = append(out, filepath.Join(dir, filepath.FromSlash(path)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
