package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Second)
	m.ObserveProviderRequest("assemblyai", "upload", "200", time.Second)
	m.ObserveTranscription("assemblyai", "done", time.Minute)
	m.IncArtefactTransition("transcript", "queued")
	m.APIInflightInc()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("POST", "/api/transcriptions", "201", 150*time.Millisecond)
	m.ObserveTranscription("assemblyai", "done", 42*time.Second)
	m.ObserveTranscription("assemblyai", "done", 0)

	if got := m.transcriptions.Value("assemblyai", "done"); got != 2 {
		t.Fatalf("transcriptions counter: want=2 got=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`md_api_requests_total{method="POST",route="/api/transcriptions",status="201"} 1.000000`,
		`md_api_request_duration_seconds_bucket{method="POST",route="/api/transcriptions",status="201",le="0.25"} 1`,
		`md_api_request_duration_seconds_bucket{method="POST",route="/api/transcriptions",status="201",le="0.1"} 0`,
		`md_transcription_duration_seconds_count{provider="assemblyai"} 1`,
		"# TYPE md_redis_up gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" a=1, b = two ,bad, =x")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "two" {
		t.Fatalf("headers: got=%v", got)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
}
