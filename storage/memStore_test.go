package storage

import (
	"testing"

	"townreq-be/models"
	"townreq-be/services"
)

func TestRegexQuote(t *testing.T) {
	cases := map[string]string{
		"pothole":     "pothole",
		"a.b":         `a\.b`,
		"cost (usd)":  `cost \(usd\)`,
		"50% [north]": `50% \[north\]`,
		`back\slash`:  `back\\slash`,
	}
	for in, want := range cases {
		if got := regexQuote(in); got != want {
			t.Errorf("regexQuote(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchesFilterSearch(t *testing.T) {
	req := &models.Request{
		Title:       "Broken Street Light",
		Description: "The lamp flickers all night.",
	}
	for _, needle := range []string{"street light", "LAMP", "flickers"} {
		if !matchesFilter(req, services.RequestFilter{Search: needle}) {
			t.Errorf("search %q should match", needle)
		}
	}
	if matchesFilter(req, services.RequestFilter{Search: "pothole"}) {
		t.Error("search should not match unrelated text")
	}
}
