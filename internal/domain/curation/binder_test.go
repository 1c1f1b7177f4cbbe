package curation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/x-consortia/donor-curator/internal/domain/donor"
	"github.com/x-consortia/donor-curator/internal/domain/valueset"
)

// testSet builds a small in-memory vocabulary covering the tabs the
// binding table references.
func testSet() *valueset.Set {
	tabs := map[string][]valueset.Row{
		"Age": {
			{ConceptID: "C0001779", Code: "424144002", SAB: "SNOMEDCT_US", DataType: "Numeric",
				Units: "years", PreferredTerm: "Age", GroupingConcept: "C0001779",
				GroupingConceptPreferredTerm: "Age"},
			{ConceptID: "C0439231", Code: "258706009", SAB: "SNOMEDCT_US", DataType: "Numeric",
				Units: "months", PreferredTerm: "Age in months", GroupingConcept: "C0001779",
				GroupingConceptPreferredTerm: "Age"},
		},
		"Race": {
			{ConceptID: "C0007457", PreferredTerm: "White", DataType: "Nominal",
				GroupingConcept: "C0034510", GroupingConceptPreferredTerm: "Race"},
			{ConceptID: "C0027567", PreferredTerm: "Black or African American", DataType: "Nominal",
				GroupingConcept: "C0034510", GroupingConceptPreferredTerm: "Race"},
			{ConceptID: "C1532697", PreferredTerm: "Unknown", DataType: "Nominal",
				GroupingConcept: "C0034510", GroupingConceptPreferredTerm: "Race"},
		},
		"Sex": {
			{ConceptID: "C0086582", PreferredTerm: "Male", DataType: "Nominal",
				GroupingConcept: "C1522384", GroupingConceptPreferredTerm: "Sex"},
			{ConceptID: "C0086287", PreferredTerm: "Female", DataType: "Nominal",
				GroupingConcept: "C1522384", GroupingConceptPreferredTerm: "Sex"},
			{ConceptID: "C0421467", PreferredTerm: "Unknown", DataType: "Nominal",
				GroupingConcept: "C1522384", GroupingConceptPreferredTerm: "Sex"},
		},
		"Ethnicity": {
			{ConceptID: "C0086409", PreferredTerm: "Hispanic or Latino", DataType: "Nominal",
				GroupingConcept: "C0243103", GroupingConceptPreferredTerm: "Ethnicity"},
		},
		"Measurements": {
			{ConceptID: "C0005890", DataType: "Numeric", Units: "cm", PreferredTerm: "Body Height",
				GroupingConcept: "C0005890", GroupingConceptPreferredTerm: "Body Height"},
			{ConceptID: "C0005910", DataType: "Numeric", Units: "kg", PreferredTerm: "Body Weight",
				GroupingConcept: "C0005910", GroupingConceptPreferredTerm: "Body Weight"},
			{ConceptID: "C1305855", DataType: "Numeric", Units: "kg/m^2", PreferredTerm: "Body Mass Index",
				GroupingConcept: "C1305855", GroupingConceptPreferredTerm: "Body Mass Index"},
		},
		"Medical History": medicalHistoryRows(25),
	}
	return valueset.New(tabs, "2023AA")
}

func medicalHistoryRows(n int) []valueset.Row {
	rows := make([]valueset.Row, n)
	for i := range rows {
		rows[i] = valueset.Row{
			ConceptID:                    fmt.Sprintf("C91%05d", i),
			PreferredTerm:                fmt.Sprintf("Condition %02d", i),
			DataType:                     "Nominal",
			GroupingConcept:              "C0262926",
			GroupingConceptPreferredTerm: "Medical History",
		}
	}
	return rows
}

func organDonor(elements ...donor.Element) *donor.Normalized {
	n, err := donor.Normalize(donor.NewDocument(donor.VariantOrgan, elements))
	if err != nil {
		panic(err)
	}
	return n
}

func TestBindNoMetadataDefaults(t *testing.T) {
	vs := testSet()
	res := Bind(Bindings(), nil, vs)

	if res.Disabled {
		t.Fatalf("empty donor disabled form: %v", res.Warnings)
	}
	want := map[string]string{
		"source":   valueset.PromptConceptID,
		"agevalue": "",
		"ageunit":  "C0001779",
		"race":     "C1532697",
		"sex":      "C0421467",
		"medhx_0":  valueset.PromptConceptID,
	}
	for name, v := range want {
		if got := res.Defaults[name]; got != v {
			t.Errorf("default %s = %q, want %q", name, got, v)
		}
	}
}

func TestBindSourceVariant(t *testing.T) {
	vs := testSet()
	res := Bind(Bindings(), organDonor(), vs)
	if got := res.Defaults["source"]; got != "1" {
		t.Errorf("organ donor source default = %q, want \"1\"", got)
	}
}

func TestBindRetiredRaceRemap(t *testing.T) {
	vs := testSet()
	current := organDonor(donor.Element{
		ConceptID:       "C0439673",
		DataValue:       "C0439673",
		GroupingConcept: "C0034510",
	})

	res := Bind(Bindings(), current, vs)
	if got := res.Defaults["race"]; got != "C1532697" {
		t.Errorf("race default = %q, want the replacement concept C1532697", got)
	}
	for name, v := range res.Defaults {
		if strings.Contains(v, "C0439673") {
			t.Errorf("retired concept id leaked into default %s", name)
		}
	}
}

func TestBindImperialHeightSelectsImperialUnit(t *testing.T) {
	vs := testSet()
	current := organDonor(donor.Element{
		ConceptID: "C0005890", GroupingConcept: "C0005890",
		DataValue: "70", Units: "inches",
	})

	res := Bind(Bindings(), current, vs)
	if res.Disabled {
		t.Fatalf("known unit synonym disabled the form: %v", res.Warnings)
	}
	if got := res.Defaults["heightvalue"]; got != "70" {
		t.Errorf("heightvalue = %q", got)
	}
	if got := res.Defaults["heightunit"]; got != "1" {
		t.Errorf("heightunit = %q, want the imperial selector key", got)
	}
}

func TestBindUnexpectedUnitDisablesForm(t *testing.T) {
	vs := testSet()
	current := organDonor(donor.Element{
		ConceptID: "C0005890", GroupingConcept: "C0005890",
		DataValue: "70", Units: "furlongs",
	})

	res := Bind(Bindings(), current, vs)
	if !res.Disabled {
		t.Fatal("unrecognized unit must disable editing")
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "furlongs") {
		t.Errorf("warning does not name the unit: %v", res.Warnings)
	}
}

func TestBindMedicalHistoryOverflow(t *testing.T) {
	vs := testSet()
	elements := make([]donor.Element, 25)
	for i := range elements {
		elements[i] = donor.Element{
			ConceptID:       fmt.Sprintf("C91%05d", i),
			GroupingConcept: "C0262926",
		}
	}

	res := Bind(Bindings(), organDonor(elements...), vs)
	if !res.Disabled {
		t.Fatal("slot overflow must disable editing, not drop entries silently")
	}
	var found bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "25") && strings.Contains(w, "20") {
			found = true
		}
	}
	if !found {
		t.Errorf("warning does not report both counts: %v", res.Warnings)
	}

	// The 20 slots hold the first 20 entries in encounter order.
	if got := res.Defaults["medhx_19"]; got != "C9100019" {
		t.Errorf("medhx_19 = %q, want C9100019", got)
	}
	if _, ok := res.Defaults["medhx_20"]; ok {
		t.Error("a 21st slot was populated")
	}
}

func TestBindStoredAgeOutsidePolicyWarnsWithoutDisabling(t *testing.T) {
	vs := testSet()
	current := organDonor(donor.Element{
		ConceptID: "C0001779", GroupingConcept: "C0001779",
		DataValue: "95", Units: "years",
	})

	res := Bind(Bindings(), current, vs)
	if res.Disabled {
		t.Error("a stored age policy violation should warn, not disable the fix path")
	}
	if len(res.Warnings) == 0 {
		t.Error("expected an age policy warning")
	}
	if got := res.Defaults["agevalue"]; got != "95" {
		t.Errorf("agevalue = %q", got)
	}
}
