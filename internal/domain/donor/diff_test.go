package donor

import (
	"encoding/json"
	"testing"
)

func heightElem(value, units string) Element {
	return Element{
		ConceptID:     "C0005890",
		Code:          "8302-2",
		SAB:           "LNC",
		DataType:      "Numeric",
		DataValue:     value,
		Units:         units,
		PreferredTerm: "Body Height",
		GraphVersion:  "2024AA",
	}
}

func TestDiffFirstMetadata(t *testing.T) {
	delta, err := Diff(nil, NewDocument(VariantOrgan, []Element{heightElem("170", "cm")}))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !delta.FirstMetadata {
		t.Error("expected first-metadata sentinel")
	}
	if delta.Empty() {
		t.Error("first metadata must not read as no change")
	}
}

func TestDiffNoChanges(t *testing.T) {
	original := &Normalized{Variant: VariantOrgan, Elements: []Element{heightElem("170", "cm")}}
	delta, err := Diff(original, NewDocument(VariantOrgan, []Element{heightElem("170", "cm")}))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !delta.Empty() {
		t.Errorf("expected empty delta, got %+v", delta)
	}
}

func TestDiffOrderInsensitive(t *testing.T) {
	race := Element{ConceptID: "C0043157", PreferredTerm: "White", DataValue: "White"}
	original := &Normalized{Variant: VariantOrgan, Elements: []Element{heightElem("170", "cm"), race}}
	delta, err := Diff(original, NewDocument(VariantOrgan, []Element{race, heightElem("170", "cm")}))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !delta.Empty() {
		t.Errorf("reordering alone reported a change: %+v", delta)
	}
}

func TestDiffUnitConversionIsAChange(t *testing.T) {
	// 70 inches stored imperial; rebuild converts to 177.8 cm. That is one
	// changed element (units + value), not "no change".
	original := &Normalized{Variant: VariantOrgan, Elements: []Element{heightElem("70", "inches")}}
	delta, err := Diff(original, NewDocument(VariantOrgan, []Element{heightElem("177.8", "cm")}))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(delta.Changed) != 1 {
		t.Fatalf("changed = %d, want 1", len(delta.Changed))
	}
	change := delta.Changed[0]
	if change.ConceptID != "C0005890" {
		t.Errorf("concept = %q", change.ConceptID)
	}
	gotFields := map[string]bool{}
	for _, f := range change.Fields {
		gotFields[f.Field] = true
	}
	if !gotFields["data_value"] || !gotFields["units"] {
		t.Errorf("fields = %+v, want data_value and units", change.Fields)
	}
	if len(delta.Added)+len(delta.Removed) != 0 {
		t.Errorf("conversion must not appear as add/remove: %+v", delta)
	}
}

func TestDiffAddedAndRemoved(t *testing.T) {
	race := Element{ConceptID: "C0043157", PreferredTerm: "White", DataValue: "White"}
	sex := Element{ConceptID: "C0086582", PreferredTerm: "Male", DataValue: "Male"}

	original := &Normalized{Variant: VariantOrgan, Elements: []Element{race}}
	delta, err := Diff(original, NewDocument(VariantOrgan, []Element{sex}))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(delta.Added) != 1 || delta.Added[0].ConceptID != "C0086582" {
		t.Errorf("added = %+v", delta.Added)
	}
	if len(delta.Removed) != 1 || delta.Removed[0].ConceptID != "C0043157" {
		t.Errorf("removed = %+v", delta.Removed)
	}
}

func TestDiffVariantChange(t *testing.T) {
	original := &Normalized{Variant: VariantLiving, Elements: []Element{}}
	delta, err := Diff(original, NewDocument(VariantOrgan, nil))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if delta.Variant == nil {
		t.Fatal("expected variant change")
	}
	if delta.Variant.Old != "living_donor_data" || delta.Variant.New != "organ_donor_data" {
		t.Errorf("variant change = %+v", delta.Variant)
	}
}

func TestDiffSerializable(t *testing.T) {
	original := &Normalized{Variant: VariantOrgan, Elements: []Element{heightElem("70", "inches")}}
	delta, err := Diff(original, NewDocument(VariantOrgan, []Element{heightElem("177.8", "cm")}))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if _, err := json.Marshal(delta); err != nil {
		t.Errorf("delta must serialize for audit display: %v", err)
	}
}

func TestDiffRejectsInvalidUpdate(t *testing.T) {
	original := &Normalized{Variant: VariantOrgan}
	if _, err := Diff(original, &Document{}); err == nil {
		t.Fatal("expected SchemaError for invalid updated document")
	}
}
