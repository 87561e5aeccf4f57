package transcript

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Parse converts a provider payload into speaker-attributed segments.
//
// Without word-level speakers, paragraphs become one segment each, labelled
// by paragraph position (not by real speaker identity); without paragraphs
// the whole transcript becomes a single "Speaker 1" segment. With speakers,
// each run of consecutive same-speaker words becomes one segment.
func Parse(p Payload) Result {
	if len(p.Words) == 0 {
		return Result{Segments: []Segment{}}
	}

	var segs []Segment
	switch {
	case hasSpeakers(p.Words):
		segs = groupBySpeaker(p.Words, p.TimeUnit)
	case len(p.Paragraphs) > 0:
		segs = segmentsFromParagraphs(p.Paragraphs, p.TimeUnit)
	default:
		segs = []Segment{singleSegment(p)}
	}
	return Result{Segments: segs, Metadata: ComputeMetadata(segs)}
}

// ParseRaw decodes a stored payload and parses it.
func ParseRaw(raw []byte) (Result, error) {
	p, err := DecodePayload(raw)
	if err != nil {
		return Result{}, err
	}
	return Parse(p), nil
}

func hasSpeakers(words []Word) bool {
	for _, w := range words {
		if strings.TrimSpace(w.Speaker) != "" {
			return true
		}
	}
	return false
}

// Words without a speaker code stay in the current run.
func groupBySpeaker(words []Word, unit string) []Segment {
	segs := []Segment{}
	var (
		cur  Segment
		buf  []string
		open bool
	)
	flush := func() {
		if !open {
			return
		}
		cur.Text = strings.Join(buf, " ")
		segs = append(segs, FixSegmentTiming(cur))
		buf = buf[:0]
		open = false
	}
	for _, w := range words {
		label := SpeakerLabel(w.Speaker)
		if label == "" && open {
			label = cur.Speaker
		}
		if label == "" {
			label = DefaultSpeaker
		}
		if !open || label != cur.Speaker {
			flush()
			cur = Segment{
				ID:      newSegmentID(),
				Start:   NormalizeTime(w.Start, unit),
				Speaker: label,
			}
			open = true
		}
		if end := NormalizeTime(w.End, unit); end > cur.End {
			cur.End = end
		}
		if t := strings.TrimSpace(w.Text); t != "" {
			buf = append(buf, t)
		}
	}
	flush()
	return segs
}

func segmentsFromParagraphs(paras []Paragraph, unit string) []Segment {
	segs := make([]Segment, 0, len(paras))
	for i, para := range paras {
		start := NormalizeTime(para.Start, unit)
		end := NormalizeTime(para.End, unit)
		if end == 0 && len(para.Words) > 0 {
			start = NormalizeTime(para.Words[0].Start, unit)
			end = NormalizeTime(para.Words[len(para.Words)-1].End, unit)
		}
		text := strings.TrimSpace(para.Text)
		if text == "" {
			text = joinWords(para.Words)
		}
		segs = append(segs, FixSegmentTiming(Segment{
			ID:      newSegmentID(),
			Start:   start,
			End:     end,
			Speaker: fmt.Sprintf("Speaker %d", i+1),
			Text:    text,
		}))
	}
	return segs
}

func singleSegment(p Payload) Segment {
	first := p.Words[0]
	last := p.Words[len(p.Words)-1]
	text := strings.TrimSpace(p.Text)
	if text == "" {
		text = joinWords(p.Words)
	}
	return FixSegmentTiming(Segment{
		ID:      newSegmentID(),
		Start:   NormalizeTime(first.Start, p.TimeUnit),
		End:     NormalizeTime(last.End, p.TimeUnit),
		Speaker: DefaultSpeaker,
		Text:    text,
	})
}

func joinWords(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func newSegmentID() string { return uuid.NewString() }

// PlainText renders a result as "Speaker: text" lines.
func PlainText(r Result) string {
	var b strings.Builder
	for _, s := range r.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		if s.Speaker != "" {
			b.WriteString(s.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(text)
	}
	return b.String()
}
