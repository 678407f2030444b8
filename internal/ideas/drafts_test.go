package ideas

import (
	"strings"
	"testing"

	"github.com/kingrea/cfpgen/internal/profile"
)

func fullProfile() profile.Profile {
	return profile.Profile{
		Name:       "Jane Speaker",
		Expertise:  []string{"Python", "testing"},
		Projects:   []string{"automated testing suite"},
		Interests:  []string{"quality assurance"},
		Audience:   profile.AudienceIntermediate,
		Conference: "PyCon US",
		Track:      "Testing & Quality",
		Format:     profile.FormatTalk,
	}
}

func minimalProfile() profile.Profile {
	return profile.Profile{
		Name:      "Speaker",
		Expertise: []string{"coding"},
		Audience:  profile.AudienceBeginners,
		Format:    profile.FormatTalk,
	}
}

func manyAbstracts(g *Generator, title string, p profile.Profile) []string {
	out := make([]string, 0, 60)
	for range 60 {
		out = append(out, g.Abstract(title, p))
	}
	return out
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(v, needle) {
			return true
		}
	}
	return false
}

func TestAbstractIncludesLoweredTitle(t *testing.T) {
	g := NewSeededGenerator(1)
	for _, abstract := range manyAbstracts(g, "Testing Best Practices", fullProfile()) {
		if !strings.Contains(abstract, "testing best practices") {
			t.Fatalf("abstract %q misses the title", abstract)
		}
	}
}

func TestAbstractMentionsEventDetails(t *testing.T) {
	g := NewSeededGenerator(2)
	p := fullProfile()
	abstracts := manyAbstracts(g, "Great Talk", p)
	for _, needle := range []string{p.Track, p.Conference, string(p.Audience), string(p.Format)} {
		if !anyContains(abstracts, needle) {
			t.Fatalf("no abstract mentions %q", needle)
		}
	}
}

func TestAbstractWithoutConferenceHasNoEmptyMentions(t *testing.T) {
	g := NewSeededGenerator(3)
	for _, abstract := range manyAbstracts(g, "Basic Topic", minimalProfile()) {
		if abstract == "" {
			t.Fatalf("empty abstract")
		}
		if strings.Contains(abstract, " at .") || strings.Contains(abstract, "in the  space") {
			t.Fatalf("abstract has an empty mention: %q", abstract)
		}
	}
}

func TestTakeawaysAreFiveDistinct(t *testing.T) {
	g := NewSeededGenerator(4)
	takeaways := g.Takeaways("Go Generics", fullProfile())
	if len(takeaways) != takeawayCount {
		t.Fatalf("len(takeaways) = %d, want %d", len(takeaways), takeawayCount)
	}
	seen := map[string]bool{}
	for _, item := range takeaways {
		if seen[item] {
			t.Fatalf("duplicate takeaway %q", item)
		}
		seen[item] = true
	}
}

func TestTakeawaysAudienceExtras(t *testing.T) {
	g := NewSeededGenerator(5)
	advanced := fullProfile()
	advanced.Audience = profile.AudienceAdvanced
	var pooled []string
	for range 40 {
		pooled = append(pooled, g.Takeaways("Go", advanced)...)
	}
	if !anyContains(pooled, "Deep dive into internals") {
		t.Fatalf("advanced audience never received the advanced takeaways")
	}
	if anyContains(pooled, "fundamental concepts") {
		t.Fatalf("advanced audience received beginner takeaways")
	}
}

func TestFitReasons(t *testing.T) {
	g := NewSeededGenerator(6)
	p := fullProfile()
	p.Format = profile.FormatWorkshop
	reasons := g.FitReasons("Any", p)
	if len(reasons) != fitReasonCount {
		t.Fatalf("len(reasons) = %d, want %d", len(reasons), fitReasonCount)
	}
	want := []string{
		"Aligns with PyCon US's focus on practical, actionable content",
		"Directly relevant to the Testing & Quality track",
		"Addresses current industry trends and challenges",
		"Provides unique insights from hands-on experience",
		"Suitable for intermediate audience with clear learning outcomes",
	}
	for i, w := range want {
		if reasons[i] != w {
			t.Fatalf("reasons[%d] = %q, want %q", i, reasons[i], w)
		}
	}
	if anyContains(reasons, "Hands-on format") {
		t.Fatalf("format reason outranked a generic reason: %v", reasons)
	}

	generic := g.FitReasons("Any", minimalProfile())
	if generic[0] != "Addresses current industry trends and challenges" {
		t.Fatalf("unexpected first generic reason %q", generic[0])
	}
	if !anyContains(generic, "Suitable for beginners audience") {
		t.Fatalf("audience reason missing: %v", generic)
	}
}
