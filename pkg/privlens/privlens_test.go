package privlens

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cognicore/privlens/pkg/privlens/highlight"
	"github.com/cognicore/privlens/pkg/privlens/scan"
	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

func gpsOnly() *vocab.Vocabulary {
	return vocab.New(vocab.NewTable([]string{"Location"}, map[string][]string{
		"Location": {"GPS", "location"},
	}))
}

func TestScanScenario(t *testing.T) {
	e := New(Options{Vocabulary: gpsOnly()})
	defer e.Close()

	report := e.Scan("Uses GPS for location tracking, location.", nil)

	loc, ok := report["Location"]
	if !ok {
		t.Fatalf("Expected Location in report, got %v", report)
	}
	if len(loc) != 2 {
		t.Fatalf("Expected 2 terms, got %d", len(loc))
	}
	if loc[0].Term != "gps" || len(loc[0].Matches) != 1 || loc[0].Matches[0].Match != "GPS" {
		t.Errorf("Unexpected gps entry: %+v", loc[0])
	}
	if loc[1].Term != "location" || len(loc[1].Matches) != 2 {
		t.Errorf("Unexpected location entry: %+v", loc[1])
	}
	for _, tm := range loc {
		for _, m := range tm.Matches {
			if m.Score != 1.0 {
				t.Errorf("Expected score 1.0 for %q, got %v", m.Match, m.Score)
			}
		}
	}
}

func TestUserTermsRebuild(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	before := e.Snapshot()
	if got := e.Scan("We read your smart ring data.", nil); len(got) != 0 {
		t.Fatalf("Expected no matches before adding the term, got %v", got)
	}

	e.AddUserTerms("Wearables", "smart ring")

	after := e.Snapshot()
	if after == before {
		t.Fatal("Adding terms should publish a new snapshot")
	}
	if before.Index.Has("smart ring") {
		t.Error("The previous snapshot must not change")
	}

	got := e.Scan("We read your smart ring data.", nil)
	if len(got["Wearables"]) != 1 {
		t.Errorf("Expected the new term to match, got %v", got)
	}

	if !e.RemoveUserTerm("Wearables", "Smart Ring") {
		t.Fatal("RemoveUserTerm should report a removal")
	}
	if e.Snapshot().Index.Has("smart ring") {
		t.Error("Removed term should leave the index")
	}
	if e.RemoveUserTerm("Wearables", "smart ring") {
		t.Error("Second removal should be a no-op")
	}
}

func TestSetUserTermsReplaces(t *testing.T) {
	e := New(Options{Vocabulary: vocab.New(vocab.Table{})})
	defer e.Close()

	if !e.Snapshot().Empty() {
		t.Fatal("An empty vocabulary should yield an empty snapshot")
	}
	if got := e.Scan("anything at all", nil); got == nil || len(got) != 0 {
		t.Errorf("Expected an empty non-nil report, got %v", got)
	}

	e.SetUserTerms("Custom", []string{"alpha", "beta"})
	e.SetUserTerms("Custom", []string{"gamma"})

	idx := e.Debug().TermIndex()
	if len(idx) != 1 {
		t.Errorf("Expected only gamma indexed, got %v", idx)
	}
}

func TestReplaceVocabulary(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	e.ReplaceVocabulary(gpsOnly())
	if n := len(e.Debug().TermIndex()); n != 2 {
		t.Errorf("Expected 2 indexed terms after replace, got %d", n)
	}
	e.ReplaceVocabulary(nil)
	if n := len(e.Debug().TermIndex()); n != 2 {
		t.Errorf("Nil vocabulary should be ignored, got %d terms", n)
	}
}

func TestScanOptionsFromEngine(t *testing.T) {
	e := New(Options{Vocabulary: gpsOnly(), Scan: scan.Options{MaxTextLength: 10}})
	defer e.Close()

	got := e.Scan("Uses GPS for location", nil)
	if len(got["Location"]) != 1 || got["Location"][0].Term != "gps" {
		t.Errorf("Expected only gps inside the first 10 characters, got %v", got)
	}

	full := e.ScanWith("Uses GPS for location", scan.Options{})
	if full.MatchCount() != 2 {
		t.Errorf("Expected 2 matches with default options, got %d", full.MatchCount())
	}
}

func TestHighlightWithoutDocument(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	if n := e.Highlight(nil); n != 0 {
		t.Errorf("Expected 0 markers without a document, got %d", n)
	}
	if e.Locate("gps") {
		t.Error("Locate without a document should fail")
	}
	e.ClearHighlights()
	if e.DocumentText() != "" {
		t.Error("Expected empty document text")
	}
}

func TestHighlightAndLocate(t *testing.T) {
	doc, err := highlight.ParseDocument(strings.NewReader(
		`<html><head><title>Policy</title></head><body><p>We use GPS.</p><p>Your email address.</p></body></html>`))
	if err != nil {
		t.Fatal(err)
	}

	e := New(Options{Document: doc, EmphasisDelay: 10 * time.Millisecond})
	defer e.Close()

	if n := e.Highlight([]string{"Location"}); n != 1 {
		t.Fatalf("Expected 1 Location marker, got %d", n)
	}
	if !e.Locate("GPS") {
		t.Error("Locate should find the gps marker")
	}
	if e.Locate("email") {
		t.Error("email was filtered out and must not be found")
	}

	e.ClearHighlights()
	if e.Locate("gps") {
		t.Error("Locate after clear should fail")
	}
}

func TestDebugView(t *testing.T) {
	doc, err := highlight.ParseDocument(strings.NewReader(
		`<body><p>GPS first.</p><p>Then your location.</p></body>`))
	if err != nil {
		t.Fatal(err)
	}

	e := New(Options{Vocabulary: gpsOnly(), Document: doc})
	defer e.Close()

	dbg := e.Debug()
	idx := dbg.TermIndex()
	if cats := idx["gps"]; len(cats) != 1 || cats[0] != "Location" {
		t.Errorf("Unexpected index entry: %v", cats)
	}
	idx["gps"] = nil
	if e.Snapshot().Index.Categories("gps") == nil {
		t.Error("TermIndex must return a copy")
	}

	if got := dbg.ScanForDebug(5); got.MatchCount() != 1 {
		t.Errorf("Expected only GPS in the first 5 characters, got %v", got)
	}
	if got := dbg.ScanForDebug(0); got.MatchCount() != 2 {
		t.Errorf("Expected 2 matches over the whole document, got %v", got)
	}

	if n := dbg.Highlight(); n != 2 {
		t.Errorf("Expected 2 markers, got %d", n)
	}
	dbg.Clear()
	dbg.Rebuild()
}

func TestConcurrentScanAndRebuild(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	text := "We collect your heart rate, GPS location and email."
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if r := e.Scan(text, nil); r.MatchCount() < 4 {
					t.Errorf("Expected at least 4 matches, got %d", r.MatchCount())
					return
				}
			}
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				e.AddUserTerms("Extra", "term"+string(rune('a'+i)))
			}
		}(i)
	}
	wg.Wait()
}
