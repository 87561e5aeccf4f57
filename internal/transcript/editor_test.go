package transcript

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestDocumentAddUpdateDelete(t *testing.T) {
	doc := NewDocument(Result{})
	first := doc.AddSegment()
	if first.Start != 0 || first.Speaker != DefaultSpeaker {
		t.Fatalf("first added: %+v", first)
	}
	if _, ok := doc.UpdateSegment(first.ID, SegmentPatch{End: ptr(2.5), Text: ptr("hello")}); !ok {
		t.Fatalf("update: segment not found")
	}
	second := doc.AddSegment()
	if second.Start != 2.5 {
		t.Fatalf("second start: want=2.5 got=%v", second.Start)
	}

	upd, ok := doc.UpdateSegment(second.ID, SegmentPatch{Start: ptr(4.0), End: ptr(3.0), Speaker: ptr(" Speaker 2 ")})
	if !ok {
		t.Fatalf("update second: not found")
	}
	if upd.End != 4 || upd.Duration != 0 || upd.Speaker != "Speaker 2" {
		t.Fatalf("update second: %+v", upd)
	}

	res := doc.Result()
	if res.Metadata.SpeakerCount != 2 || res.Metadata.Duration != 4 {
		t.Fatalf("metadata: %+v", res.Metadata)
	}

	if !doc.DeleteSegment(first.ID) {
		t.Fatalf("delete: not found")
	}
	if doc.DeleteSegment(first.ID) {
		t.Fatalf("delete twice should report false")
	}
	if doc.Len() != 1 {
		t.Fatalf("len: want=1 got=%d", doc.Len())
	}
}

func TestDocumentDoesNotAliasInput(t *testing.T) {
	in := Result{Segments: []Segment{{ID: "a", Start: 0, End: 1, Speaker: "Speaker 1", Text: "x"}}}
	doc := NewDocument(in)
	doc.UpdateSegment("a", SegmentPatch{Text: ptr("changed")})
	if in.Segments[0].Text != "x" {
		t.Fatalf("input mutated: %q", in.Segments[0].Text)
	}
}

func TestDocumentBuildFromPayload(t *testing.T) {
	doc := NewDocument(Result{Segments: []Segment{{ID: "old"}}})
	doc.BuildFromPayload(Payload{
		TimeUnit: TimeUnitMillis,
		Words: []Word{
			{Text: "a", Start: 0, End: 100, Speaker: "A"},
			{Text: "b", Start: 100, End: 200, Speaker: "A"},
			{Text: "c", Start: 200, End: 300, Speaker: "B"},
		},
	})
	if doc.Len() != 2 {
		t.Fatalf("len: want=2 got=%d", doc.Len())
	}
	if doc.DeleteSegment("old") {
		t.Fatalf("old segment should be replaced")
	}
}

func TestResultValidate(t *testing.T) {
	ok := Result{Segments: []Segment{{ID: "1", Start: 0, End: 1, Duration: 1}, {Start: 1, End: 1}, {Start: 0.1, End: 0.3, Duration: 0.2}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid result rejected: %v", err)
	}

	bad := []Result{
		{Segments: []Segment{{Start: -1, End: 1}}},
		{Segments: []Segment{{Start: 2, End: 1}}},
		{Segments: []Segment{{Start: math.NaN(), End: 1}}},
		{Segments: []Segment{{ID: "x"}, {ID: "x"}}},
		{Segments: []Segment{{Speaker: strings.Repeat("s", 201)}}},
		{Segments: []Segment{{Start: 0, End: 1.5, Duration: 99}}},
	}
	for i, r := range bad {
		err := r.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d: want ValidationError, got %v", i, err)
		}
	}
}

func TestResultNormalizeKeepsSubmittedValues(t *testing.T) {
	in := Segment{ID: "keep", Start: 0.1234, End: 1.98765, Duration: 1.86425, Speaker: " Speaker 2 ", Text: " hi "}
	r := Result{Segments: []Segment{in, {Start: 2, End: 3, Duration: 1}}}.Normalize()
	if r.Segments[0] != in {
		t.Fatalf("segment rewritten: want=%+v got=%+v", in, r.Segments[0])
	}
	if r.Segments[1].ID == "" || r.Segments[1].Speaker != "" {
		t.Fatalf("second segment: %+v", r.Segments[1])
	}
	if r.Metadata.Duration != 3 || r.Metadata.SpeakerCount != 1 {
		t.Fatalf("metadata: %+v", r.Metadata)
	}
}

func TestExport(t *testing.T) {
	payload := []byte(`{"status":"completed","words":[]}`)
	out, name, err := Export(ExportPayload, "Board Sync", payload, Result{}, "")
	if err != nil {
		t.Fatalf("Export payload: %v", err)
	}
	if name != "Board_Sync-payload.json" {
		t.Fatalf("filename: got=%q", name)
	}
	if !strings.Contains(string(out), "\n  \"status\": \"completed\"") {
		t.Fatalf("payload not indented: %s", out)
	}

	out, _, err = Export(ExportResult, "", nil, Result{}, "")
	if err != nil {
		t.Fatalf("Export result: %v", err)
	}
	var decoded Result
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode exported result: %v", err)
	}
	if decoded.Segments == nil {
		t.Fatalf("exported segments should be an empty list")
	}

	if _, err := ParseExportPart("bogus"); err == nil {
		t.Fatalf("expected error for unknown part")
	}
	if p, err := ParseExportPart(" Summary "); err != nil || p != ExportSummary {
		t.Fatalf("ParseExportPart: got=%q err=%v", p, err)
	}
}
