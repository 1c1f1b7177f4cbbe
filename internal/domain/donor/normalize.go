package donor

// SchemaError reports a structurally invalid donor metadata document.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "donor metadata: " + e.Msg }

// Normalized is the uniform in-memory form of a donor metadata document:
// the element list plus the tagged variant, so downstream code never
// re-inspects raw document keys.
type Normalized struct {
	Variant  Variant
	Elements []Element
}

// SourceName returns the wire key of the source variant, used when flat
// rows need a source_name column.
func (n *Normalized) SourceName() string { return n.Variant.Key() }

// Normalize converts a raw document into its normalized form. A document
// with neither variant key is invalid. A document carrying both keys is
// also rejected: the source schema never defined a merge order, and
// guessing one risks writing elements under the wrong variant.
func Normalize(doc *Document) (*Normalized, error) {
	if doc == nil {
		return nil, &SchemaError{Msg: "document is empty; expected 'organ_donor_data' or 'living_donor_data'"}
	}

	hasOrgan := doc.OrganDonorData != nil
	hasLiving := doc.LivingDonorData != nil

	switch {
	case hasOrgan && hasLiving:
		return nil, &SchemaError{Msg: "document carries both 'organ_donor_data' and 'living_donor_data'"}
	case hasOrgan:
		return &Normalized{Variant: VariantOrgan, Elements: copyElements(doc.OrganDonorData)}, nil
	case hasLiving:
		return &Normalized{Variant: VariantLiving, Elements: copyElements(doc.LivingDonorData)}, nil
	default:
		return nil, &SchemaError{Msg: "the highest-level key should be either 'organ_donor_data' or 'living_donor_data'"}
	}
}

// copyElements detaches the normalized view from the raw document so
// request-scoped edits never alias each other.
func copyElements(elements []Element) []Element {
	out := make([]Element, len(elements))
	copy(out, elements)
	return out
}
