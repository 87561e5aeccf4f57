package transcript

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxSegments       = 20000
	maxSegmentText    = 100000
	maxSpeakerLabel   = 200
	maxSegmentSeconds = 7 * 24 * 3600

	// durationTolerance absorbs float noise between duration and end-start.
	durationTolerance = 0.001
)

type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid transcription result: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid transcription result: segments[%d].%s %s", e.Index, e.Field, e.Reason)
}

// Validate rejects results that cannot be stored as an edited transcript.
func (r Result) Validate() error {
	if len(r.Segments) > maxSegments {
		return &ValidationError{Index: -1, Field: "segments", Reason: fmt.Sprintf("exceeds %d entries", maxSegments)}
	}
	ids := make(map[string]struct{}, len(r.Segments))
	for i, s := range r.Segments {
		switch {
		case !finite(s.Start) || !finite(s.End) || !finite(s.Duration):
			return &ValidationError{Index: i, Field: "timing", Reason: "must be finite numbers"}
		case s.Start < 0:
			return &ValidationError{Index: i, Field: "start", Reason: "must be >= 0"}
		case s.End < s.Start:
			return &ValidationError{Index: i, Field: "end", Reason: "must be >= start"}
		case math.Abs(s.Duration-(s.End-s.Start)) > durationTolerance:
			return &ValidationError{Index: i, Field: "duration", Reason: "must equal end - start"}
		case s.End > maxSegmentSeconds:
			return &ValidationError{Index: i, Field: "end", Reason: "is out of range"}
		case utf8.RuneCountInString(s.Text) > maxSegmentText:
			return &ValidationError{Index: i, Field: "text", Reason: "is too long"}
		case utf8.RuneCountInString(s.Speaker) > maxSpeakerLabel:
			return &ValidationError{Index: i, Field: "speaker", Reason: "is too long"}
		}
		if s.ID != "" {
			if _, dup := ids[s.ID]; dup {
				return &ValidationError{Index: i, Field: "id", Reason: "is duplicated"}
			}
			ids[s.ID] = struct{}{}
		}
	}
	return nil
}

// Normalize assigns ids to segments that have none and recomputes metadata.
// Every submitted segment value is kept as is, so a validated result reads
// back exactly as it was saved.
func (r Result) Normalize() Result {
	out := Result{Segments: make([]Segment, 0, len(r.Segments))}
	for _, s := range r.Segments {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		out.Segments = append(out.Segments, s)
	}
	out.Metadata = ComputeMetadata(out.Segments)
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
