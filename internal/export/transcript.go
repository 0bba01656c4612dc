package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/diogo/iqrachat/internal/models"
)

// Transcript is the JSON form of a conversation written by the CLI
type Transcript struct {
	Title      string        `json:"title"`
	ExportedAt time.Time     `json:"exported_at"`
	Turns      []models.Turn `json:"turns"`
}

// EncodeTranscript writes turns as indented JSON
func EncodeTranscript(w io.Writer, turns []models.Turn, at time.Time) error {
	t := Transcript{
		Title:      DefaultTitle,
		ExportedAt: at.UTC(),
		Turns:      turns,
	}
	if t.Turns == nil {
		t.Turns = []models.Turn{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return nil
}

// DecodeTranscript reads a transcript written by EncodeTranscript
func DecodeTranscript(r io.Reader) (*Transcript, error) {
	var t Transcript
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	for i, turn := range t.Turns {
		if turn.Role != models.RoleUser && turn.Role != models.RoleAssistant {
			return nil, fmt.Errorf("turn %d: unknown role %q", i, turn.Role)
		}
	}
	return &t, nil
}
