package vision

import (
	"testing"
)

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1:   "1st",
		2:   "2nd",
		3:   "3rd",
		4:   "4th",
		11:  "11th",
		12:  "12th",
		13:  "13th",
		21:  "21st",
		22:  "22nd",
		23:  "23rd",
		101: "101st",
		102: "102nd",
		111: "111th",
		112: "112th",
	}
	for n, want := range cases {
		if got := Ordinal(n); got != want {
			t.Fatalf("Ordinal(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestSummarizeDedupesLabels(t *testing.T) {
	s := Summarize(Annotations{Labels: []Label{
		{Description: "cat", Score: 0.9},
		{Description: "dog", Score: 0.8},
		{Description: "cat", Score: 0.7},
	}})
	if s.Labels != "Picture may include cat, dog" {
		t.Fatalf("Labels = %q", s.Labels)
	}
	if s.Faces != "" {
		t.Fatalf("Faces = %q, want empty", s.Faces)
	}
}

func TestSummarizeSkipsLowConfidenceButCountsThem(t *testing.T) {
	s := Summarize(Annotations{Faces: []Face{
		{Confidence: 0.3, Likelihoods: map[Characteristic]Likelihood{Joy: LikelihoodVeryLikely}},
		{Confidence: 0.9, Likelihoods: map[Characteristic]Likelihood{Joy: LikelihoodVeryLikely, Anger: LikelihoodVeryUnlikely}},
		{Confidence: 0.4, Likelihoods: map[Characteristic]Likelihood{Sorrow: LikelihoodPossible}},
	}})
	want := "I identified 3 faces. 2nd face is very likely to show joy"
	if s.Faces != want {
		t.Fatalf("Faces = %q, want %q", s.Faces, want)
	}
}

func TestSummarizeBothBucketsForOneFace(t *testing.T) {
	s := Summarize(Annotations{Faces: []Face{
		{Confidence: 0.95, Likelihoods: map[Characteristic]Likelihood{
			Headwear: LikelihoodVeryLikely,
			Joy:      LikelihoodVeryLikely,
			Blurred:  LikelihoodPossible,
			Surprise: LikelihoodPossible,
			Sorrow:   LikelihoodLikely,
		}},
		{Confidence: 0.8, Likelihoods: map[Characteristic]Likelihood{UnderExposed: LikelihoodPossible}},
	}})
	want := "I identified 2 faces. " +
		"1st face is very likely to show joy, headwear. " +
		"1st face is possible to show surprise, blurred. " +
		"2nd face is possible to show underExposed"
	if s.Faces != want {
		t.Fatalf("Faces = %q, want %q", s.Faces, want)
	}
}

func TestSummarizeQualifyingFaceWithoutLines(t *testing.T) {
	s := Summarize(Annotations{Faces: []Face{
		{Confidence: 0.9, Likelihoods: map[Characteristic]Likelihood{Joy: LikelihoodLikely}},
		{Confidence: 0.9, Likelihoods: map[Characteristic]Likelihood{Anger: LikelihoodPossible}},
	}})
	want := "I identified 2 faces. 2nd face is possible to show anger"
	if s.Faces != want {
		t.Fatalf("Faces = %q, want %q", s.Faces, want)
	}

	none := Summarize(Annotations{Faces: []Face{
		{Confidence: 0.9, Likelihoods: map[Characteristic]Likelihood{Joy: LikelihoodUnlikely}},
	}})
	if none.Faces != "" {
		t.Fatalf("Faces = %q, want empty when no face has a line", none.Faces)
	}
}

func TestSummarizeEmptyProducesNoMessages(t *testing.T) {
	s := Summarize(Annotations{})
	if msgs := s.Messages(); len(msgs) != 0 {
		t.Fatalf("Messages() = %v, want none", msgs)
	}
}

func TestSummaryMessagesOrder(t *testing.T) {
	s := Summary{Labels: "labels", Faces: "faces"}
	msgs := s.Messages()
	if len(msgs) != 2 || msgs[0] != "labels" || msgs[1] != "faces" {
		t.Fatalf("Messages() = %v", msgs)
	}
}
