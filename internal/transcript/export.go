package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type ExportPart string

const (
	ExportPayload ExportPart = "payload"
	ExportResult  ExportPart = "result"
	ExportSummary ExportPart = "summary"
)

func ParseExportPart(raw string) (ExportPart, error) {
	switch p := ExportPart(strings.ToLower(strings.TrimSpace(raw))); p {
	case ExportPayload, ExportResult, ExportSummary:
		return p, nil
	default:
		return "", fmt.Errorf("unknown export part %q (allowed: payload, result, summary)", raw)
	}
}

// Export renders one part of an artefact as an indented JSON document and
// suggests a download filename.
func Export(part ExportPart, name string, payload []byte, result Result, summary string) ([]byte, string, error) {
	filename := fmt.Sprintf("%s-%s.json", safeName(name), part)
	switch part {
	case ExportPayload:
		if len(bytes.TrimSpace(payload)) == 0 {
			return []byte("null\n"), filename, nil
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, payload, "", "  "); err != nil {
			return nil, "", fmt.Errorf("indent payload: %w", err)
		}
		buf.WriteByte('\n')
		return buf.Bytes(), filename, nil
	case ExportResult:
		if result.Segments == nil {
			result.Segments = []Segment{}
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return append(out, '\n'), filename, nil
	case ExportSummary:
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return append(out, '\n'), filename, nil
	default:
		return nil, "", fmt.Errorf("unknown export part %q", part)
	}
}

func safeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "artefact"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
