package valueset

import (
	"reflect"
	"testing"
)

func testSet() *Set {
	tabs := map[string][]Row{
		"Race": {
			{ConceptID: " C0007457 ", PreferredTerm: "Asian", GroupingConcept: "C0034510", GroupingConceptPreferredTerm: "Race"},
			{ConceptID: "C0043157", PreferredTerm: "White", GroupingConcept: "C0034510", GroupingConceptPreferredTerm: "Race"},
			{ConceptID: "C1532697", PreferredTerm: "Unknown", GroupingConcept: "C0034510", GroupingConceptPreferredTerm: "Race"},
		},
		"Social History": {
			{ConceptID: "C0337664", PreferredTerm: "Never smoker", GroupingConcept: "C0424945", GroupingConceptPreferredTerm: "Social History"},
			{ConceptID: "C0337672", PreferredTerm: "Current smoker", GroupingConcept: "C0424945", GroupingConceptPreferredTerm: "Social History"},
			{ConceptID: "C0001948", PreferredTerm: "Alcohol use", GroupingConcept: "C0424945", GroupingConceptPreferredTerm: "Social History"},
		},
		"Measurements": {
			{ConceptID: "C0005890", PreferredTerm: "Body Height", Units: "cm", DataType: "Numeric", GroupingConcept: "C0005890"},
			{ConceptID: "C0005910", PreferredTerm: "Body Weight", Units: "kg", DataType: "Numeric", GroupingConcept: "C0005910"},
		},
	}
	return New(tabs, "2024AA")
}

func TestRowForTrimsWhitespace(t *testing.T) {
	s := testSet()

	// The sheet row was stored as " C0007457 "; both sides of the lookup
	// must be whitespace-insensitive.
	row, ok := s.RowFor("Race", "C0007457")
	if !ok {
		t.Fatal("expected row for C0007457")
	}
	if row.PreferredTerm != "Asian" {
		t.Errorf("preferred_term = %q, want Asian", row.PreferredTerm)
	}

	if _, ok := s.RowFor("Race", " C0043157 "); !ok {
		t.Error("lookup with padded concept id should still match")
	}

	if _, ok := s.RowFor("Race", "C9999999"); ok {
		t.Error("unexpected match for unknown concept")
	}
}

func TestOptionListSortsByPreferredTerm(t *testing.T) {
	s := testSet()

	opts := s.OptionList(OptionListQuery{Tab: "Race", GroupingTerm: "Race"})
	got := make([]string, len(opts))
	for i, o := range opts {
		got[i] = o.Label
	}
	want := []string{"Asian", "Unknown", "White"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

func TestOptionListPromptIsAlwaysLast(t *testing.T) {
	s := testSet()

	opts := s.OptionList(OptionListQuery{Tab: "Race", GroupingTerm: "Race", IncludePrompt: true})
	if len(opts) != 4 {
		t.Fatalf("len = %d, want 4", len(opts))
	}
	last := opts[len(opts)-1]
	if last.ConceptID != PromptConceptID || last.Label != PromptLabel {
		t.Errorf("last option = %+v, want the prompt", last)
	}
	for _, o := range opts[:len(opts)-1] {
		if o.ConceptID == PromptConceptID {
			t.Error("prompt appears before the end of the list")
		}
	}
}

func TestOptionListGroupingTermTakesPrecedenceOverAllowlist(t *testing.T) {
	s := testSet()

	opts := s.OptionList(OptionListQuery{
		Tab:              "Social History",
		GroupingTerm:     "Social History",
		ConceptAllowlist: []string{"C0337664"},
	})
	if len(opts) != 3 {
		t.Errorf("grouping term should win over allowlist, got %d options", len(opts))
	}
}

func TestOptionListAllowlist(t *testing.T) {
	s := testSet()

	opts := s.OptionList(OptionListQuery{
		Tab:              "Social History",
		ConceptAllowlist: []string{"C0337664", "C0337672"},
	})
	if len(opts) != 2 {
		t.Fatalf("len = %d, want 2", len(opts))
	}
	for _, o := range opts {
		if o.ConceptID == "C0001948" {
			t.Error("allowlist filter leaked a non-member concept")
		}
	}
}

func TestOptionListWholeTab(t *testing.T) {
	s := testSet()
	opts := s.OptionList(OptionListQuery{Tab: "Measurements"})
	if len(opts) != 2 {
		t.Errorf("len = %d, want whole tab", len(opts))
	}
}

func TestOptionListUnitsColumn(t *testing.T) {
	s := testSet()
	opts := s.OptionList(OptionListQuery{Tab: "Measurements", ValueColumn: "units"})
	labels := map[string]bool{}
	for _, o := range opts {
		labels[o.Label] = true
	}
	if !labels["cm"] || !labels["kg"] {
		t.Errorf("expected unit labels, got %v", labels)
	}
}

func TestColumnValuesFirstSeenOrder(t *testing.T) {
	s := testSet()

	got := s.ColumnValues("Social History", "grouping_concept")
	if !reflect.DeepEqual(got, []string{"C0424945"}) {
		t.Errorf("grouping_concept values = %v", got)
	}

	ids := s.ConceptIDs("Race")
	want := []string{"C0007457", "C0043157", "C1532697"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("concept ids = %v, want %v", ids, want)
	}
}

func TestGraphVersion(t *testing.T) {
	s := testSet()
	if s.GraphVersion() != "2024AA" {
		t.Errorf("graph version = %q", s.GraphVersion())
	}
}
