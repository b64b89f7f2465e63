package vocab

import (
	"reflect"
	"testing"
)

func TestBuiltinTableOrder(t *testing.T) {
	table := Builtin()

	cats := table.Categories()
	if len(cats) != 13 {
		t.Fatalf("Expected 13 built-in categories, got %d", len(cats))
	}
	if cats[0] != "Health" || cats[len(cats)-1] != "Other Data" {
		t.Errorf("Unexpected category order: %v", cats)
	}

	location := table.Terms("Location")
	if !contains(location, "GPS") {
		t.Errorf("Location should contain GPS, got %v", location)
	}
}

func TestAddUserTermsNewCategory(t *testing.T) {
	v := NewDefault()
	v.AddUserTerms("Pets", "dog walker", "cat")

	merged := v.Merged()
	cats := merged.Categories()
	if cats[len(cats)-1] != "Pets" {
		t.Errorf("User category should come after built-ins, got %v", cats)
	}
	if got := merged.Terms("Pets"); !reflect.DeepEqual(got, []string{"dog walker", "cat"}) {
		t.Errorf("Unexpected Pets terms: %v", got)
	}
}

func TestAddUserTermsIdempotent(t *testing.T) {
	v := NewDefault()
	v.AddUserTerms("Location", "geofence")
	v.AddUserTerms("Location", "geofence")
	v.AddUserTerms("Location", "GEOFENCE")

	terms := v.Merged().Terms("Location")
	count := 0
	for _, term := range terms {
		if term == "geofence" || term == "GEOFENCE" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected geofence once, found %d times in %v", count, terms)
	}
}

func TestAddUserTermsSkipsBuiltinDuplicates(t *testing.T) {
	v := NewDefault()
	before := len(v.Merged().Terms("Location"))

	v.AddUserTerms("Location", "gps", "Location")

	if after := len(v.Merged().Terms("Location")); after != before {
		t.Errorf("Built-in duplicates should be ignored: %d -> %d", before, after)
	}
	if v.UserTerms().Len() != 0 {
		t.Errorf("No user terms should be recorded, got %v", v.UserTerms().Map())
	}
}

func TestAddUserTermsDropsEmpty(t *testing.T) {
	v := New(Table{})
	v.AddUserTerms("Health", "", "   ", "blood type")
	v.AddUserTerms("", "orphan")

	user := v.UserTerms()
	if got := user.Terms("Health"); !reflect.DeepEqual(got, []string{"blood type"}) {
		t.Errorf("Expected only 'blood type', got %v", got)
	}
	if len(user.Categories()) != 1 {
		t.Errorf("Empty category name should be ignored, got %v", user.Categories())
	}
}

func TestSetUserTermsReplaces(t *testing.T) {
	v := New(Table{})
	v.SetUserTerms("Health", []string{"blood type", "allergies"})
	v.SetUserTerms("Health", []string{"allergies"})

	if got := v.UserTerms().Terms("Health"); !reflect.DeepEqual(got, []string{"allergies"}) {
		t.Errorf("SetUserTerms should replace, got %v", got)
	}

	v.SetUserTerms("Health", nil)
	if len(v.UserTerms().Categories()) != 0 {
		t.Errorf("Empty replacement should drop the category, got %v", v.UserTerms().Categories())
	}
}

func TestRemoveUserTerm(t *testing.T) {
	v := NewDefault()
	v.AddUserTerms("Location", "geofence", "beacon")

	if !v.RemoveUserTerm("Location", "GEOFENCE") {
		t.Fatal("Expected geofence to be removed")
	}
	if v.RemoveUserTerm("Location", "GPS") {
		t.Error("Built-in terms must not be removable")
	}
	if got := v.UserTerms().Terms("Location"); !reflect.DeepEqual(got, []string{"beacon"}) {
		t.Errorf("Unexpected remaining user terms: %v", got)
	}
}

func TestRemoveUserTermTrims(t *testing.T) {
	v := New(Table{})
	v.AddUserTerms(" Custom ", "widget", "gadget")

	if !v.RemoveUserTerm("  Custom", " widget ") {
		t.Fatal("Expected padded category and term to match")
	}
	if got := v.UserTerms().Terms("Custom"); !reflect.DeepEqual(got, []string{"gadget"}) {
		t.Errorf("Unexpected remaining user terms: %v", got)
	}
}

func TestMergedDeterministic(t *testing.T) {
	build := func() Table {
		v := NewDefault()
		v.AddUserTerms("Pets", "cat", "dog")
		v.AddUserTerms("Health", "blood type")
		v.AddUserTerms("Alpha", "first")
		return v.Merged()
	}

	a, b := build(), build()
	if !reflect.DeepEqual(a.Categories(), b.Categories()) {
		t.Fatalf("Category order differs: %v vs %v", a.Categories(), b.Categories())
	}
	for _, cat := range a.Categories() {
		if !reflect.DeepEqual(a.Terms(cat), b.Terms(cat)) {
			t.Errorf("Terms for %s differ: %v vs %v", cat, a.Terms(cat), b.Terms(cat))
		}
	}
}

func TestMergedDoesNotAliasBuiltin(t *testing.T) {
	v := NewDefault()
	merged := v.Merged()
	merged.append("Health", "mutated")

	if contains(v.Merged().Terms("Health"), "mutated") {
		t.Error("Mutating a merged table must not affect the vocabulary")
	}
}

func TestNewTable(t *testing.T) {
	table := NewTable([]string{"B", "A"}, map[string][]string{
		"A": {"x", "x", ""},
		"B": {"y"},
		"C": {"ignored"},
	})

	if got := table.Categories(); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Errorf("Unexpected categories: %v", got)
	}
	if got := table.Terms("A"); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Expected deduplicated terms, got %v", got)
	}
	if table.Len() != 2 {
		t.Errorf("Expected 2 pairs, got %d", table.Len())
	}
}
