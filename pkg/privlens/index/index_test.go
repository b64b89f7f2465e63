package index

import (
	"reflect"
	"testing"

	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

func table(cats []string, m map[string][]string) vocab.Table {
	return vocab.NewTable(cats, m)
}

func TestBuildMergesCategoriesPerTerm(t *testing.T) {
	snap := Build(table([]string{"Contact Info", "User Content"}, map[string][]string{
		"Contact Info": {"email", "text"},
		"User Content": {"Email", "chat"},
	}))

	got := snap.Index.Categories("email")
	want := []string{"Contact Info", "User Content"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if snap.Index.Len() != 3 {
		t.Errorf("Expected 3 keys, got %d: %v", snap.Index.Len(), snap.Index.Keys())
	}
}

func TestBuildDeterministic(t *testing.T) {
	build := func() *Snapshot {
		v := vocab.NewDefault()
		v.AddUserTerms("Pets", "cat", "dog")
		v.AddUserTerms("Health", "blood type")
		return Build(v.Merged())
	}

	a, b := build(), build()
	if !reflect.DeepEqual(a.Index.Keys(), b.Index.Keys()) {
		t.Fatal("Key order differs between builds")
	}
	if !reflect.DeepEqual(a.Index.Map(), b.Index.Map()) {
		t.Fatal("Category lists differ between builds")
	}
	if a.Matcher.String() != b.Matcher.String() {
		t.Error("Matcher pattern differs between builds")
	}
}

func TestBuildEmpty(t *testing.T) {
	snap := Build(vocab.Table{})
	if !snap.Empty() {
		t.Fatal("Empty vocabulary should produce an empty snapshot")
	}
	if snap.Matcher != nil {
		t.Error("Matcher should be nil")
	}
	if m := snap.FindAll("anything at all"); m != nil {
		t.Errorf("Empty snapshot should not match, got %v", m)
	}

	var nilSnap *Snapshot
	if !nilSnap.Empty() {
		t.Error("Nil snapshot should report empty")
	}
}

func TestFindAllLongestFirst(t *testing.T) {
	snap := Build(table([]string{"Health", "Financial"}, map[string][]string{
		"Health":    {"rate", "heart rate"},
		"Financial": {"rate"},
	}))

	matches := snap.FindAll("I tracked my heart rate today")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d: %+v", len(matches), matches)
	}
	if matches[0].Term != "heart rate" {
		t.Errorf("Expected 'heart rate', got %q", matches[0].Term)
	}
	if matches[0].Start != 13 || matches[0].End != 23 {
		t.Errorf("Unexpected offsets %d..%d", matches[0].Start, matches[0].End)
	}
}

func TestFindAllWholeWords(t *testing.T) {
	snap := Build(table([]string{"Health"}, map[string][]string{
		"Health": {"walk", "steps"},
	}))

	matches := snap.FindAll("sidewalk walkers walk; Steps!")
	var terms []string
	for _, m := range matches {
		terms = append(terms, m.Text)
	}
	want := []string{"walk", "Steps"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("Expected %v, got %v", want, terms)
	}
}

func TestFindAllBacksOffWhenLongestFailsBoundary(t *testing.T) {
	snap := Build(table([]string{"Health"}, map[string][]string{
		"Health": {"heart rate", "heart"},
	}))

	matches := snap.FindAll("heart rates vary")
	if len(matches) != 1 || matches[0].Term != "heart" {
		t.Fatalf("Expected a single 'heart' match, got %+v", matches)
	}
}

func TestFindAllQuotesMeta(t *testing.T) {
	snap := Build(table([]string{"Other"}, map[string][]string{
		"Other": {"a.b", "c+d"},
	}))

	if m := snap.FindAll("axb"); len(m) != 0 {
		t.Errorf("Dot must be literal, got %+v", m)
	}
	if m := snap.FindAll("see a.b and c+d"); len(m) != 2 {
		t.Errorf("Expected 2 literal matches, got %+v", m)
	}
}

func TestResolveCaseFoldVariant(t *testing.T) {
	snap := Build(table([]string{"Health"}, map[string][]string{
		"Health": {"test"},
	}))

	// U+017F LATIN SMALL LETTER LONG S folds to "s" but lower-cases to itself.
	matches := snap.FindAll("a teſt run")
	if len(matches) != 1 {
		t.Fatalf("Expected fold variant to match, got %+v", matches)
	}
	if matches[0].Term != "test" {
		t.Errorf("Expected key 'test', got %q", matches[0].Term)
	}
	if !reflect.DeepEqual(matches[0].Categories, []string{"Health"}) {
		t.Errorf("Unexpected categories %v", matches[0].Categories)
	}
}

func TestPrefilterRejectsWithoutCandidates(t *testing.T) {
	p := newPrefilter([]string{"gps", "heart rate"})
	if p.mayMatch("nothing relevant here") {
		t.Error("Prefilter should reject text without candidates")
	}
	if !p.mayMatch("Uses GPS daily") {
		t.Error("Prefilter should accept case variants")
	}
	if !p.mayMatch("HEART RATE") {
		t.Error("Prefilter should accept upper-case phrases")
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name  string
		cats  []string
		allow []string
		want  bool
	}{
		{"no filter", []string{"Health"}, nil, true},
		{"intersects", []string{"Health", "Financial"}, []string{"Financial"}, true},
		{"disjoint", []string{"Health"}, []string{"Financial"}, false},
		{"no categories", nil, []string{"Health"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.cats, tt.allow); got != tt.want {
				t.Errorf("Allowed(%v, %v) = %v, want %v", tt.cats, tt.allow, got, tt.want)
			}
		})
	}
}
