package curation

import (
	"fmt"
	"strconv"

	"github.com/x-consortia/donor-curator/internal/domain/donor"
	"github.com/x-consortia/donor-curator/internal/domain/valueset"
)

// BindResult carries the default value of every form field plus any
// manual-review warnings. When a warning means the form cannot be edited
// safely (unexpected stored unit, repeated-slot overflow), Disabled is
// set: correctness over availability.
type BindResult struct {
	Defaults map[string]string `json:"defaults"`
	Warnings []string          `json:"warnings,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`
}

func (r *BindResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	r.Disabled = true
}

// Bind derives the default selection for every field in the binding table
// from the donor's current metadata. current may be nil when the donor has
// no metadata yet.
func Bind(bindings []Binding, current *donor.Normalized, vs *valueset.Set) *BindResult {
	res := &BindResult{Defaults: make(map[string]string)}

	var elements []donor.Element
	if current != nil {
		elements = current.Elements
	}

	for _, b := range bindings {
		switch b.Strategy {
		case StrategySource:
			bindSource(b, current, res)
		case StrategyAge:
			bindAge(b, elements, vs, res)
		case StrategyGroupTerm, StrategyAllowlist:
			bindSelect(b, elements, vs, res)
		case StrategyMeasurement:
			bindMeasurement(b, elements, res)
		case StrategyText:
			bindText(b, elements, res)
		}
	}

	return res
}

// sourceChoices are the selector entries for the document variant. The
// keys are stable selector values, not wire keys, matching the form
// contract.
var sourceChoices = []UnitChoice{
	{Key: "0", Label: donor.LivingDonorKey},
	{Key: "1", Label: donor.OrganDonorKey},
}

func bindSource(b Binding, current *donor.Normalized, res *BindResult) {
	if current == nil {
		res.Defaults[b.Name] = valueset.PromptConceptID
		return
	}
	switch current.Variant {
	case donor.VariantLiving:
		res.Defaults[b.Name] = "0"
	case donor.VariantOrgan:
		res.Defaults[b.Name] = "1"
	}
}

// bindAge resolves the age value and the unit selector. The unit concept
// is the element's own concept id: age is the one field where the unit
// selector and the vocabulary anchor are the same thing.
func bindAge(b Binding, elements []donor.Element, vs *valueset.Set, res *BindResult) {
	concepts := conceptSet(vs.ConceptIDs(b.Tab))

	for _, e := range elements {
		if e.GroupingConcept != b.GroupingConcept {
			continue
		}
		if _, ok := concepts[e.ConceptID]; !ok {
			continue
		}
		res.Defaults[b.Name] = e.DataValue
		res.Defaults[b.UnitField] = e.ConceptID

		if msg := validateAge(e.DataValue, e.ConceptID); msg != "" {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("stored age does not meet policy (%s); review before saving", msg))
		}
		return
	}

	res.Defaults[b.Name] = ""
	res.Defaults[b.UnitField] = b.DefaultConcept
}

// retiredConcepts maps concept ids retired by a valueset migration to
// their replacements. Stored records still carry the old codes; they are
// never presented to the user.
var retiredConcepts = map[string]string{
	raceRetiredUnknown: raceDefaultUnknown,
}

func bindSelect(b Binding, elements []donor.Element, vs *valueset.Set, res *BindResult) {
	matches := matchElements(b, elements, vs)

	slots := b.slotCount()
	if len(matches) > slots && b.Slots > 0 {
		res.warn("donor has %d %s entries but the form has %d slots; edit manually",
			len(matches), b.Label, slots)
	}

	for i := 0; i < slots; i++ {
		name := b.slotName(i)
		if i < len(matches) && i < slots {
			res.Defaults[name] = matches[i].ConceptID
			continue
		}
		if i == 0 && b.DefaultConcept != "" {
			res.Defaults[name] = b.DefaultConcept
			continue
		}
		res.Defaults[name] = valueset.PromptConceptID
	}
}

// matchElements applies the binding's resolution strategy to the stored
// elements, preserving encounter order. Retired concept ids are remapped
// before matching: the current valueset no longer carries them, so the
// membership test must see the replacement, and the user must never see
// the retired code.
func matchElements(b Binding, elements []donor.Element, vs *valueset.Set) []donor.Element {
	var matches []donor.Element

	switch b.Strategy {
	case StrategyGroupTerm:
		concepts := conceptSet(vs.ConceptIDs(b.Tab))
		grouping := b.GroupingConcept
		if grouping == "" {
			if gcs := vs.ColumnValues(b.Tab, "grouping_concept"); len(gcs) > 0 {
				grouping = gcs[0]
			}
		}
		for _, e := range elements {
			if repl, ok := retiredConcepts[e.ConceptID]; ok {
				e.ConceptID = repl
			}
			if _, ok := concepts[e.ConceptID]; !ok {
				continue
			}
			if e.GroupingConcept != grouping {
				continue
			}
			matches = append(matches, e)
		}
	case StrategyAllowlist:
		allow := conceptSet(b.Allowlist)
		for _, e := range elements {
			if repl, ok := retiredConcepts[e.ConceptID]; ok {
				e.ConceptID = repl
			}
			if _, ok := allow[e.ConceptID]; !ok {
				continue
			}
			if b.GroupingConcept != "" && e.GroupingConcept != b.GroupingConcept {
				continue
			}
			matches = append(matches, e)
		}
	}

	return matches
}

func bindMeasurement(b Binding, elements []donor.Element, res *BindResult) {
	elem, found := findMeasurement(b.ConceptID, elements)

	if found {
		res.Defaults[b.Name] = elem.DataValue
	} else {
		res.Defaults[b.Name] = ""
	}

	if b.UnitField == "" {
		return
	}

	// Default to the metric choice; a stored unit overrides it when it
	// maps cleanly onto the selector.
	res.Defaults[b.UnitField] = b.Units[0].Key
	if !found || elem.Units == "" {
		return
	}

	unit := elem.Units
	if canonical, ok := unitSynonyms[unit]; ok {
		unit = canonical
	}
	for _, choice := range b.Units {
		if choice.Label == unit {
			res.Defaults[b.UnitField] = choice.Key
			return
		}
	}

	// Unrecognized unit: flag for manual review and disable the form
	// rather than silently guessing a unit for a clinical value.
	res.warn("donor has metadata with an unexpected %s unit %q; edit manually", b.Label, elem.Units)
}

func bindText(b Binding, elements []donor.Element, res *BindResult) {
	if elem, ok := findMeasurement(b.ConceptID, elements); ok {
		res.Defaults[b.Name] = elem.DataValue
		return
	}
	res.Defaults[b.Name] = ""
}

// findMeasurement locates the stored element for a measurement concept.
// Legacy records group each measurement under its own concept id, so both
// the concept and the grouping are accepted as anchors.
func findMeasurement(conceptID string, elements []donor.Element) (donor.Element, bool) {
	for _, e := range elements {
		if e.ConceptID == conceptID || e.GroupingConcept == conceptID {
			return e, true
		}
	}
	return donor.Element{}, false
}

func conceptSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// validateAge checks the de-identification policy shared by bind and
// build: a positive number, and any age over 89 years recorded as exactly
// 90. Returns an empty string when the value passes.
func validateAge(value, unitConcept string) string {
	age, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "age must be a number"
	}
	if age <= 0 {
		return "the minimum age is 1 month"
	}
	if unitConcept == ageGroupingConcept && age > 89 && age != 90 {
		return "all ages over 89 years must be set to 90 years"
	}
	return ""
}
