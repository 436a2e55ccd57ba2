package vision

import (
	"strconv"
	"strings"
)

// MinFaceConfidence is the detection confidence a face must exceed to be
// described.
const MinFaceConfidence = 0.4

// Summary holds the two optional outbound messages for an image.
type Summary struct {
	Labels string
	Faces  string
}

// Messages returns the non-empty summaries, labels first.
func (s Summary) Messages() []string {
	out := make([]string, 0, 2)
	if s.Labels != "" {
		out = append(out, s.Labels)
	}
	if s.Faces != "" {
		out = append(out, s.Faces)
	}
	return out
}

// Summarize reduces raw annotations to at most two messages.
func Summarize(a Annotations) Summary {
	return Summary{
		Labels: summarizeLabels(a.Labels),
		Faces:  summarizeFaces(a.Faces),
	}
}

func summarizeLabels(labels []Label) string {
	seen := make(map[string]struct{}, len(labels))
	distinct := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l.Description]; ok {
			continue
		}
		seen[l.Description] = struct{}{}
		distinct = append(distinct, l.Description)
	}
	if len(distinct) == 0 {
		return ""
	}
	return "Picture may include " + strings.Join(distinct, ", ")
}

func summarizeFaces(faces []Face) string {
	var lines []string
	for i, f := range faces {
		// Low-confidence faces keep their position in the numbering.
		if f.Confidence <= MinFaceConfidence {
			continue
		}
		var veryLikely, possible []string
		for _, c := range Characteristics {
			switch f.Likelihoods[c] {
			case LikelihoodVeryLikely:
				veryLikely = append(veryLikely, string(c))
			case LikelihoodPossible:
				possible = append(possible, string(c))
			}
		}
		ord := Ordinal(i + 1)
		if len(veryLikely) > 0 {
			lines = append(lines, ord+" face is very likely to show "+strings.Join(veryLikely, ", "))
		}
		if len(possible) > 0 {
			lines = append(lines, ord+" face is possible to show "+strings.Join(possible, ", "))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "I identified " + strconv.Itoa(len(faces)) + " faces. " + strings.Join(lines, ". ")
}

// Ordinal formats n with its English ordinal suffix: 1st, 2nd, 3rd, 4th,
// 11th, 12th, 13th, 21st, 102nd.
func Ordinal(n int) string {
	j, k := n%10, n%100
	if j < 0 {
		j, k = -j, -k
	}
	suffix := "th"
	switch {
	case j == 1 && k != 11:
		suffix = "st"
	case j == 2 && k != 12:
		suffix = "nd"
	case j == 3 && k != 13:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
