package transcript

import "strings"

// Document is the in-memory editing state over a result's segments. Edits
// are whole-document: callers persist Result() in one save.
type Document struct {
	segments []Segment
}

type SegmentPatch struct {
	Start   *float64
	End     *float64
	Speaker *string
	Text    *string
}

func NewDocument(r Result) *Document {
	segs := make([]Segment, len(r.Segments))
	copy(segs, r.Segments)
	return &Document{segments: segs}
}

func (d *Document) Segments() []Segment {
	out := make([]Segment, len(d.segments))
	copy(out, d.segments)
	return out
}

func (d *Document) Len() int { return len(d.segments) }

// AddSegment appends a blank segment starting where the last one ends.
func (d *Document) AddSegment() Segment {
	start := 0.0
	if n := len(d.segments); n > 0 {
		start = d.segments[n-1].End
	}
	s := FixSegmentTiming(Segment{
		ID:      newSegmentID(),
		Start:   start,
		End:     start,
		Speaker: DefaultSpeaker,
	})
	d.segments = append(d.segments, s)
	return s
}

func (d *Document) DeleteSegment(id string) bool {
	for i := range d.segments {
		if d.segments[i].ID == id {
			d.segments = append(d.segments[:i], d.segments[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateSegment applies patch and re-derives the segment's duration.
func (d *Document) UpdateSegment(id string, patch SegmentPatch) (Segment, bool) {
	for i := range d.segments {
		if d.segments[i].ID != id {
			continue
		}
		s := d.segments[i]
		if patch.Start != nil {
			s.Start = *patch.Start
		}
		if patch.End != nil {
			s.End = *patch.End
		}
		if patch.Speaker != nil {
			s.Speaker = strings.TrimSpace(*patch.Speaker)
		}
		if patch.Text != nil {
			s.Text = *patch.Text
		}
		s = FixSegmentTiming(s)
		d.segments[i] = s
		return s, true
	}
	return Segment{}, false
}

// BuildFromPayload replaces the current segments with a fresh parse.
func (d *Document) BuildFromPayload(p Payload) {
	d.segments = Parse(p).Segments
}

func (d *Document) Result() Result {
	segs := d.Segments()
	return Result{Segments: segs, Metadata: ComputeMetadata(segs)}
}
