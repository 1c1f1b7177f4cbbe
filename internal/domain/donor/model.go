package donor

import (
	"encoding/json"

	"github.com/x-consortia/donor-curator/internal/domain/valueset"
)

// Element is one atomic clinical fact in a donor's metadata record,
// expressed in the controlled vocabulary's schema. data_value is always a
// string regardless of logical type.
type Element struct {
	ConceptID                    string `json:"concept_id"`
	Code                         string `json:"code"`
	SAB                          string `json:"sab"`
	DataType                     string `json:"data_type"`
	DataValue                    string `json:"data_value"`
	NumericOperator              string `json:"numeric_operator"`
	Units                        string `json:"units"`
	PreferredTerm                string `json:"preferred_term"`
	GroupingConcept              string `json:"grouping_concept"`
	GroupingConceptPreferredTerm string `json:"grouping_concept_preferred_term"`
	GroupingCode                 string `json:"grouping_code"`
	GroupingSAB                  string `json:"grouping_sab"`
	StartDatetime                string `json:"start_datetime"`
	EndDatetime                  string `json:"end_datetime"`
	GraphVersion                 string `json:"graph_version"`
}

// NewElement builds a schema-complete Element from a vocabulary row.
// The empty start/end datetimes and the sheet's graph version are injected
// here so no caller has to remember them.
func NewElement(r valueset.Row, graphVersion string) Element {
	return Element{
		ConceptID:                    r.ConceptID,
		Code:                         r.Code,
		SAB:                          r.SAB,
		DataType:                     r.DataType,
		DataValue:                    r.DataValue,
		NumericOperator:              r.NumericOperator,
		Units:                        r.Units,
		PreferredTerm:                r.PreferredTerm,
		GroupingConcept:              r.GroupingConcept,
		GroupingConceptPreferredTerm: r.GroupingConceptPreferredTerm,
		GroupingCode:                 r.GroupingCode,
		GroupingSAB:                  r.GroupingSAB,
		StartDatetime:                "",
		EndDatetime:                  "",
		GraphVersion:                 graphVersion,
	}
}

// Variant discriminates the two mutually exclusive top-level shapes of a
// donor metadata document.
type Variant int

const (
	VariantOrgan Variant = iota + 1
	VariantLiving
)

// OrganDonorKey and LivingDonorKey are the raw document keys on the wire.
const (
	OrganDonorKey  = "organ_donor_data"
	LivingDonorKey = "living_donor_data"
)

// Key returns the wire key for the variant.
func (v Variant) Key() string {
	switch v {
	case VariantOrgan:
		return OrganDonorKey
	case VariantLiving:
		return LivingDonorKey
	default:
		return ""
	}
}

// VariantFromKey maps a wire key back to the enum; ok is false for any
// other string.
func VariantFromKey(key string) (Variant, bool) {
	switch key {
	case OrganDonorKey:
		return VariantOrgan, true
	case LivingDonorKey:
		return VariantLiving, true
	default:
		return 0, false
	}
}

// Document is the donor metadata record exchanged with the entity API.
// Exactly one of the two lists is present in a valid document.
type Document struct {
	OrganDonorData  []Element `json:"organ_donor_data"`
	LivingDonorData []Element `json:"living_donor_data"`
}

// MarshalJSON writes only the variant keys whose list is non-nil. An
// omitempty tag would drop an empty list along with a nil one, and a
// built document with no elements still owes the wire its variant key.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string][]Element, 1)
	if d.OrganDonorData != nil {
		out[OrganDonorKey] = d.OrganDonorData
	}
	if d.LivingDonorData != nil {
		out[LivingDonorKey] = d.LivingDonorData
	}
	return json.Marshal(out)
}

// NewDocument returns a Document with the chosen variant populated.
func NewDocument(v Variant, elements []Element) *Document {
	doc := &Document{}
	switch v {
	case VariantOrgan:
		doc.OrganDonorData = elements
		if doc.OrganDonorData == nil {
			doc.OrganDonorData = []Element{}
		}
	case VariantLiving:
		doc.LivingDonorData = elements
		if doc.LivingDonorData == nil {
			doc.LivingDonorData = []Element{}
		}
	}
	return doc
}
