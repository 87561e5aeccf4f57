package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const DefaultSpeaker = "Speaker 1"

var (
	speakerCodeRe  = regexp.MustCompile(`(?i)^speaker[_-]?(\d+)$`)
	speakerLabelRe = regexp.MustCompile(`(?i)^speaker +(\d+)$`)
)

// SpeakerLabel maps a provider speaker code to a display label.
//
//	SPEAKER_00 -> Speaker 1, A -> Speaker 1, D -> Speaker 4, 2 -> Speaker 3
//
// Labels already in display form and unknown codes are returned unchanged.
func SpeakerLabel(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if m := speakerLabelRe.FindStringSubmatch(code); m != nil {
		return "Speaker " + m[1]
	}
	if m := speakerCodeRe.FindStringSubmatch(code); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return fmt.Sprintf("Speaker %d", n+1)
		}
	}
	if len(code) == 1 {
		c := strings.ToUpper(code)[0]
		if c >= 'A' && c <= 'Z' {
			return fmt.Sprintf("Speaker %d", int(c-'A')+1)
		}
	}
	if n, err := strconv.Atoi(code); err == nil && n >= 0 {
		return fmt.Sprintf("Speaker %d", n+1)
	}
	return code
}
