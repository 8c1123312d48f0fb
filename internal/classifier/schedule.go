package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ScheduleCommand starts a free-form booking request, e.g. "agendar 15/02 14h".
const ScheduleCommand = "agendar"

// DetectScheduleRequest reports whether raw is a booking request and returns
// the text after the command word exactly as the user typed it, trimmed.
// A bare command word is not a request.
func DetectScheduleRequest(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(Normalize(trimmed), ScheduleCommand) {
		return "", false
	}

	rest := strings.TrimSpace(trimmed[commandEnd(trimmed, len(ScheduleCommand)):])
	if rest == "" {
		return "", false
	}
	return rest, true
}

// commandEnd returns the byte offset in s right after the first n normalized
// bytes, skipping any combining marks attached to the last letter.
func commandEnd(s string, n int) int {
	end := len(s)
	for i, r := range s {
		next := i + utf8.RuneLen(r)
		if len(Normalize(s[:next])) >= n {
			end = next
			break
		}
	}
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if !unicode.Is(unicode.Mn, r) {
			break
		}
		end += size
	}
	return end
}
