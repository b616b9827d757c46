package prompt

import (
	"strings"
	"testing"

	"github.com/Drmedkit/Bouw/internal/catalog"
	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/lead"
)

func TestChatInstructionsListKnownFacts(t *testing.T) {
	prior := lead.Record{Business: "Acme", Style: lead.StyleRawEdgy}
	got := ChatInstructions(prior, domain.VisitorContext{Theme: "Neon", Device: "mobile"})

	for _, want := range []string{
		"- business: Acme",
		"- vibe: Raw & Edgy",
		`"Nightclub / Bar"`,
		`"email": ""`,
		"currently viewing theme: Neon",
		"device: mobile",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("instructions missing %q", want)
		}
	}
	if strings.Contains(got, "- name:") {
		t.Error("unknown fields must not be listed as known")
	}
}

func TestChatInstructionsWithoutContext(t *testing.T) {
	got := ChatInstructions(lead.Record{}, domain.VisitorContext{})
	if strings.Contains(got, "Already known") || strings.Contains(got, "Visitor context") {
		t.Fatalf("empty record and context should add no sections")
	}
	if strings.Contains(got, "%!") {
		t.Fatalf("format verbs left unfilled")
	}
}

func TestBriefRoundTripAndPlaceholders(t *testing.T) {
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	brief := NewBrief(lead.Record{Business: "Acme", Category: "unknown"}, domain.VisitorContext{}, c)
	if brief.HeroImage != c.Placeholder(lead.CategoryOther) {
		t.Fatalf("hero image = %q", brief.HeroImage)
	}
	parsed, err := ParseBrief(brief.String())
	if err != nil {
		t.Fatalf("ParseBrief returned error: %v", err)
	}
	if parsed != brief {
		t.Fatalf("round trip mismatch: %+v vs %+v", parsed, brief)
	}
	if !strings.Contains(ThemeInstructions(c), "Orbitron") {
		t.Fatal("theme instructions must list catalog fonts")
	}
}
