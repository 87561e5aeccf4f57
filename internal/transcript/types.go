// Package transcript holds the provider-neutral transcription payload, the
// normalized editable result, and the single parser that converts one into
// the other. The orchestrator and the editor both go through this package.
package transcript

import (
	"encoding/json"
	"fmt"
)

const (
	TimeUnitMillis  = "ms"
	TimeUnitSeconds = "s"
)

// Provider job statuses as reported in a Payload.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusError      = "error"
)

type Word struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
	Speaker    string  `json:"speaker,omitempty"`
}

type Paragraph struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
}

// Payload is the raw provider output, stored verbatim on the artefact.
// TimeUnit tells the parser how to read Start/End; when empty the
// > 3600 heuristic applies.
type Payload struct {
	Provider     string      `json:"provider"`
	JobID        string      `json:"job_id,omitempty"`
	Status       string      `json:"status"`
	Text         string      `json:"text,omitempty"`
	Confidence   float64     `json:"confidence,omitempty"`
	LanguageCode string      `json:"language_code,omitempty"`
	TimeUnit     string      `json:"time_unit,omitempty"`
	Words        []Word      `json:"words,omitempty"`
	Paragraphs   []Paragraph `json:"paragraphs,omitempty"`
	Error        string      `json:"error,omitempty"`
}

func (p Payload) Terminal() bool {
	return p.Status == JobStatusCompleted || p.Status == JobStatusError
}

func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("decode transcript payload: %w", err)
	}
	return p, nil
}

// Segment is a contiguous span of speech attributed to one speaker. Times are
// seconds.
type Segment struct {
	ID       string  `json:"id"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Speaker  string  `json:"speaker"`
	Text     string  `json:"text"`
}

type Metadata struct {
	Duration     float64 `json:"duration"`
	SpeakerCount int     `json:"speaker_count"`
}

type Result struct {
	Segments []Segment `json:"segments"`
	Metadata Metadata  `json:"metadata"`
}

func (r Result) Empty() bool { return len(r.Segments) == 0 }
