package donor

// FieldChange is one attribute-level difference within a matched element.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ElementChange lists the attribute changes of one element matched by
// concept id between the original and updated documents.
type ElementChange struct {
	ConceptID     string        `json:"concept_id"`
	PreferredTerm string        `json:"preferred_term"`
	Fields        []FieldChange `json:"fields"`
}

// VariantChange records a switch between organ and living donor data.
type VariantChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Delta is the serializable structural difference between two donor
// metadata documents. FirstMetadata distinguishes "first metadata ever
// recorded" from "no changes".
type Delta struct {
	FirstMetadata bool            `json:"first_metadata,omitempty"`
	Variant       *VariantChange  `json:"variant,omitempty"`
	Added         []Element       `json:"added,omitempty"`
	Removed       []Element       `json:"removed,omitempty"`
	Changed       []ElementChange `json:"changed,omitempty"`
}

// Empty reports whether the two documents are semantically identical.
func (d *Delta) Empty() bool {
	return !d.FirstMetadata && d.Variant == nil &&
		len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares the normalized original record against a rebuilt document.
// Element presence is order-insensitive; contents are compared attribute
// by attribute. A nil original yields the first-metadata sentinel.
func Diff(original *Normalized, updated *Document) (*Delta, error) {
	if original == nil {
		return &Delta{FirstMetadata: true}, nil
	}

	next, err := Normalize(updated)
	if err != nil {
		return nil, err
	}

	delta := &Delta{}
	if original.Variant != next.Variant {
		delta.Variant = &VariantChange{Old: original.Variant.Key(), New: next.Variant.Key()}
	}

	// First cancel exact matches so reordering alone never reports a change.
	remainOld := cancelEqual(original.Elements, next.Elements)
	remainNew := cancelEqual(next.Elements, original.Elements)

	// Pair leftovers by concept id, in encounter order, for attribute-level
	// comparison; anything unpaired is an addition or removal.
	newByConcept := make(map[string][]Element)
	for _, e := range remainNew {
		newByConcept[e.ConceptID] = append(newByConcept[e.ConceptID], e)
	}

	for _, oldElem := range remainOld {
		queue := newByConcept[oldElem.ConceptID]
		if len(queue) == 0 {
			delta.Removed = append(delta.Removed, oldElem)
			continue
		}
		newElem := queue[0]
		newByConcept[oldElem.ConceptID] = queue[1:]

		if fields := compareElements(oldElem, newElem); len(fields) > 0 {
			delta.Changed = append(delta.Changed, ElementChange{
				ConceptID:     oldElem.ConceptID,
				PreferredTerm: newElem.PreferredTerm,
				Fields:        fields,
			})
		}
	}

	for _, e := range remainNew {
		queue := newByConcept[e.ConceptID]
		if len(queue) > 0 && queue[0] == e {
			delta.Added = append(delta.Added, e)
			newByConcept[e.ConceptID] = queue[1:]
		}
	}

	return delta, nil
}

// cancelEqual returns the elements of a that have no exact counterpart in
// b, consuming counterparts one for one so duplicates are respected.
func cancelEqual(a, b []Element) []Element {
	counts := make(map[Element]int, len(b))
	for _, e := range b {
		counts[e]++
	}
	var remain []Element
	for _, e := range a {
		if counts[e] > 0 {
			counts[e]--
			continue
		}
		remain = append(remain, e)
	}
	return remain
}

func compareElements(oldElem, newElem Element) []FieldChange {
	var fields []FieldChange
	add := func(name, oldVal, newVal string) {
		if oldVal != newVal {
			fields = append(fields, FieldChange{Field: name, Old: oldVal, New: newVal})
		}
	}

	add("code", oldElem.Code, newElem.Code)
	add("sab", oldElem.SAB, newElem.SAB)
	add("data_type", oldElem.DataType, newElem.DataType)
	add("data_value", oldElem.DataValue, newElem.DataValue)
	add("numeric_operator", oldElem.NumericOperator, newElem.NumericOperator)
	add("units", oldElem.Units, newElem.Units)
	add("preferred_term", oldElem.PreferredTerm, newElem.PreferredTerm)
	add("grouping_concept", oldElem.GroupingConcept, newElem.GroupingConcept)
	add("grouping_concept_preferred_term", oldElem.GroupingConceptPreferredTerm, newElem.GroupingConceptPreferredTerm)
	add("grouping_code", oldElem.GroupingCode, newElem.GroupingCode)
	add("grouping_sab", oldElem.GroupingSAB, newElem.GroupingSAB)
	add("start_datetime", oldElem.StartDatetime, newElem.StartDatetime)
	add("end_datetime", oldElem.EndDatetime, newElem.EndDatetime)
	add("graph_version", oldElem.GraphVersion, newElem.GraphVersion)
	return fields
}
