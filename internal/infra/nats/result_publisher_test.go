package nats

import "testing"

func TestSubjectFor(t *testing.T) {
	cases := map[string]string{
		"maths":            "trivia.results.maths",
		"geo.afrique":      "trivia.results.geo_afrique",
		"culture generale": "trivia.results.culture_generale",
		"":                 "trivia.results.solo",
		"a*>":              "trivia.results.a__",
	}
	for category, want := range cases {
		if got := SubjectFor(DefaultSubject, category); got != want {
			t.Fatalf("SubjectFor(%q) = %q, want %q", category, got, want)
		}
	}
}
