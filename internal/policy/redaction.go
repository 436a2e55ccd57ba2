package policy

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
	// Attachment URLs carry signed access tokens in their query string.
	signedURLPattern = regexp.MustCompile(`(https?://[^\s?#]+)\?[^\s#]+`)
)

// RedactPII masks common high-risk PII patterns in message text.
func RedactPII(input string) (redacted string, changed bool) {
	out := input

	next := emailPattern.ReplaceAllString(out, "[REDACTED_EMAIL]")
	changed = changed || next != out
	out = next

	// Card before phone so card numbers are not classified as phones.
	next = cardPattern.ReplaceAllString(out, "[REDACTED_CARD]")
	changed = changed || next != out
	out = next

	next = phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
	changed = changed || next != out
	out = next

	return out, changed
}

// RedactURLQuery drops the query string of every URL in input, keeping
// scheme, host and path.
func RedactURLQuery(input string) (redacted string, changed bool) {
	if !strings.Contains(input, "?") {
		return input, false
	}
	out := signedURLPattern.ReplaceAllString(input, "$1?[REDACTED_QUERY]")
	return out, out != input
}

// RedactTranscript applies every redaction used for stored transcripts.
func RedactTranscript(input string) (redacted string, changed bool) {
	// URLs first so their numeric query params are not read as phone numbers.
	out, urlChanged := RedactURLQuery(input)
	out, piiChanged := RedactPII(out)
	return out, urlChanged || piiChanged
}
