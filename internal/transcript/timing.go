package transcript

import (
	"math"
	"strings"
)

// ambiguousMillisThreshold: unit-less values above this are read as
// milliseconds. Recordings longer than an hour in seconds will be misread,
// which is why providers should set Payload.TimeUnit.
const ambiguousMillisThreshold = 3600

func NormalizeTime(v float64, unit string) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case TimeUnitMillis:
		return v / 1000
	case TimeUnitSeconds:
		return v
	}
	if v > ambiguousMillisThreshold {
		return v / 1000
	}
	return v
}

// FixSegmentTiming clamps start/end to a valid, millisecond-rounded range and
// re-derives duration. Applying it twice yields the same segment.
func FixSegmentTiming(s Segment) Segment {
	start := roundMillis(nonNegative(s.Start))
	end := roundMillis(nonNegative(s.End))
	if end < start {
		end = start
	}
	s.Start = start
	s.End = end
	s.Duration = roundMillis(end - start)
	return s
}

func ComputeMetadata(segs []Segment) Metadata {
	md := Metadata{}
	seen := map[string]struct{}{}
	for _, s := range segs {
		if s.End > md.Duration {
			md.Duration = s.End
		}
		label := strings.TrimSpace(s.Speaker)
		if label == "" {
			continue
		}
		seen[label] = struct{}{}
	}
	md.SpeakerCount = len(seen)
	return md
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func roundMillis(v float64) float64 {
	return math.Round(v*1000) / 1000
}
