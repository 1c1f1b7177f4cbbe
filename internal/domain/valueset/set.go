package valueset

import (
	"sort"
	"strings"
)

// Set is the loaded controlled vocabulary: tab name -> ordered rows.
// It is immutable after load and shared read-only across concurrent
// requests; a process restart is the only refresh path.
type Set struct {
	tabs         map[string][]Row
	graphVersion string
}

// GraphVersionTab is a special tab carrying one global attribute,
// graph_version, stamped onto every metadata element built from this Set.
const GraphVersionTab = "UMLS"

// New builds a Set from already-parsed tabs. Concept ids are trimmed of
// incidental whitespace here, at load time, so every later comparison can
// be exact: untrimmed ids are a known data-quality hazard in the source
// sheet.
func New(tabs map[string][]Row, graphVersion string) *Set {
	clean := make(map[string][]Row, len(tabs))
	for tab, rows := range tabs {
		trimmed := make([]Row, len(rows))
		for i, r := range rows {
			r.ConceptID = strings.TrimSpace(r.ConceptID)
			trimmed[i] = r
		}
		clean[tab] = trimmed
	}
	return &Set{tabs: clean, graphVersion: strings.TrimSpace(graphVersion)}
}

// GraphVersion returns the UMLS graph version carried by the sheet.
func (s *Set) GraphVersion() string { return s.graphVersion }

// Tabs returns the tab names in no particular order.
func (s *Set) Tabs() []string {
	names := make([]string, 0, len(s.tabs))
	for name := range s.tabs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OptionListQuery narrows an option list to a subset of a tab.
// GroupingTerm filters on grouping_concept_preferred_term and takes
// precedence over ConceptAllowlist; with neither set the whole tab is
// returned.
type OptionListQuery struct {
	Tab              string
	ValueColumn      string // label source; defaults to preferred_term
	GroupingTerm     string
	ConceptAllowlist []string
	IncludePrompt    bool
}

// OptionList translates a valueset subset into (concept_id, label) pairs
// for a select control, sorted by preferred_term ascending with ties kept
// in original row order. When IncludePrompt is set the prompt option is
// appended, never prepended (see PromptConceptID).
func (s *Set) OptionList(q OptionListQuery) []Option {
	rows := s.tabs[q.Tab]

	var filtered []Row
	switch {
	case q.GroupingTerm != "":
		for _, r := range rows {
			if r.GroupingConceptPreferredTerm == q.GroupingTerm {
				filtered = append(filtered, r)
			}
		}
	case len(q.ConceptAllowlist) > 0:
		allow := make(map[string]struct{}, len(q.ConceptAllowlist))
		for _, id := range q.ConceptAllowlist {
			allow[strings.TrimSpace(id)] = struct{}{}
		}
		for _, r := range rows {
			if _, ok := allow[r.ConceptID]; ok {
				filtered = append(filtered, r)
			}
		}
	default:
		filtered = append(filtered, rows...)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].PreferredTerm < filtered[j].PreferredTerm
	})

	options := make([]Option, 0, len(filtered)+1)
	for _, r := range filtered {
		options = append(options, Option{ConceptID: r.ConceptID, Label: s.labelFor(r, q.ValueColumn)})
	}
	if q.IncludePrompt {
		options = append(options, Option{ConceptID: PromptConceptID, Label: PromptLabel})
	}
	return options
}

func (s *Set) labelFor(r Row, column string) string {
	switch column {
	case "", "preferred_term":
		return r.PreferredTerm
	case "units":
		return r.Units
	case "code":
		return r.Code
	case "data_value":
		return r.DataValue
	default:
		return r.PreferredTerm
	}
}

// ColumnValues returns the distinct values of one column of a tab,
// preserving first-seen order. Used to discover e.g. the single concept id
// anchoring a one-concept tab.
func (s *Set) ColumnValues(tab, column string) []string {
	rows := s.tabs[tab]
	seen := make(map[string]struct{}, len(rows))
	var values []string
	for _, r := range rows {
		v := s.columnValue(r, column)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

func (s *Set) columnValue(r Row, column string) string {
	switch column {
	case "concept_id":
		return r.ConceptID
	case "grouping_concept":
		return r.GroupingConcept
	case "grouping_concept_preferred_term":
		return r.GroupingConceptPreferredTerm
	case "units":
		return r.Units
	case "code":
		return r.Code
	case "sab":
		return r.SAB
	default:
		return r.PreferredTerm
	}
}

// RowFor returns the full attribute row for one concept of a tab. The
// lookup is whitespace-insensitive on both sides. The second return is
// false when the concept is not in the tab.
func (s *Set) RowFor(tab, conceptID string) (Row, bool) {
	want := strings.TrimSpace(conceptID)
	for _, r := range s.tabs[tab] {
		if r.ConceptID == want {
			return r, true
		}
	}
	return Row{}, false
}

// ConceptIDs returns the tab's concept ids in row order, without
// duplicates. Shorthand for ColumnValues(tab, "concept_id").
func (s *Set) ConceptIDs(tab string) []string {
	return s.ColumnValues(tab, "concept_id")
}
