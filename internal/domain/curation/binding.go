package curation

import "strconv"

// Strategy selects how a form field resolves against stored metadata and
// the vocabulary. The same Binding drives both directions: FormBinder
// (stored metadata -> form defaults) and MetadataBuilder (submitted values
// -> metadata elements), which keeps the two from drifting apart.
type Strategy int

const (
	// StrategySource binds the document variant key itself.
	StrategySource Strategy = iota
	// StrategyAge is the one field whose unit selector encodes the concept:
	// the selected unit concept anchors the element and the age number is
	// its data_value, with units left unset on the element.
	StrategyAge
	// StrategyGroupTerm selects elements whose concept id belongs to the
	// tab and whose grouping_concept matches the declared grouping.
	StrategyGroupTerm
	// StrategyAllowlist filters by an explicit concept id list first,
	// independent of grouping, then by an optional grouping filter. Used
	// where valueset rows share one generic grouping concept (Social
	// History) or legacy rows lack a common grouping.
	StrategyAllowlist
	// StrategyMeasurement is a numeric value with an optional companion
	// unit selector.
	StrategyMeasurement
	// StrategyText is a free-text value anchored to one concept.
	StrategyText
)

// UnitChoice is one entry of a companion unit selector. Keys are the
// stable selector values; labels are the stored unit strings.
type UnitChoice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Conversion declares the one-directional imperial-to-metric rewrite
// applied at build time. The system never persists imperial units.
type Conversion struct {
	ImperialKey string  // selector key that triggers conversion
	Factor      float64 // multiply, or divide when Divide is set
	Divide      bool
	MetricLabel string
}

// Binding is the declarative description of one editable form field.
type Binding struct {
	Name            string
	Label           string
	Tab             string
	Strategy        Strategy
	GroupTerm       string // option-list filter on grouping_concept_preferred_term
	GroupingConcept string // bind-time filter on grouping_concept; empty = derive from tab
	Allowlist       []string
	ConceptID       string // anchor concept for measurement/text fields
	Units           []UnitChoice
	UnitField       string
	DefaultConcept  string // domain default when no stored value exists
	Slots           int    // >1 for repeated-slot fields
	AddPrompt       bool
	Required        bool
	SelfHeal        bool // rewrite data_value to preferred_term on build
	Numeric         bool
	Convert         *Conversion
}

// slotCount normalizes Slots for iteration.
func (b Binding) slotCount() int {
	if b.Slots < 1 {
		return 1
	}
	return b.Slots
}

// slotName returns the submitted field name for slot i of a repeated
// field; single-slot fields keep their bare name.
func (b Binding) slotName(i int) string {
	if b.Slots < 1 {
		return b.Name
	}
	return b.Name + "_" + strconv.Itoa(i)
}

// Well-known concept ids referenced by the binding table.
const (
	ageGroupingConcept   = "C0001779" // age in years; also the default unit concept
	raceRetiredUnknown   = "C0439673" // retired "Unknown" code still present in legacy records
	raceDefaultUnknown   = "C1532697" // current "Unknown"
	sexDefaultUnknown    = "C0421467"
	heightConcept        = "C0005890"
	weightConcept        = "C0005910"
	waistConcept         = "C0455829"
	medicalHistorySlots  = 20
	otherDrugSlots       = 3
)

// unitSynonyms maps unit spellings seen in legacy records to the selector
// labels. Anything not mapped and not already a selector label is a
// manual-review condition, never a guess.
var unitSynonyms = map[string]string{
	"inches": "in",
	"pounds": "lb",
}

var cmInChoices = []UnitChoice{{Key: "0", Label: "cm"}, {Key: "1", Label: "in"}}
var kgLbChoices = []UnitChoice{{Key: "0", Label: "kg"}, {Key: "1", Label: "lb"}}

var inchesToCm = &Conversion{ImperialKey: "1", Factor: 2.54, MetricLabel: "cm"}
var poundsToKg = &Conversion{ImperialKey: "1", Factor: 2.2, Divide: true, MetricLabel: "kg"}

// Bindings is the full declarative field table for the donor curation
// form. Both FormBinder and MetadataBuilder read this table and nothing
// else, so the two directions stay symmetric by construction.
func Bindings() []Binding {
	return []Binding{
		{Name: "source", Label: "Source name", Strategy: StrategySource, Required: true},

		{Name: "agevalue", Label: "Age (value)", Tab: "Age", Strategy: StrategyAge,
			GroupTerm: "Age", GroupingConcept: ageGroupingConcept, UnitField: "ageunit",
			DefaultConcept: ageGroupingConcept},

		{Name: "race", Label: "Race", Tab: "Race", Strategy: StrategyGroupTerm,
			GroupTerm: "Race", DefaultConcept: raceDefaultUnknown, SelfHeal: true},
		{Name: "ethnicity", Label: "Ethnicity", Tab: "Ethnicity", Strategy: StrategyGroupTerm,
			GroupTerm: "Ethnicity", AddPrompt: true},
		{Name: "sex", Label: "Sex", Tab: "Sex", Strategy: StrategyGroupTerm,
			GroupTerm: "Sex", DefaultConcept: sexDefaultUnknown, SelfHeal: true},

		{Name: "cause", Label: "Cause of Death", Tab: "Cause of Death", Strategy: StrategyGroupTerm,
			GroupTerm: "Cause of Death", GroupingConcept: "C0007465", AddPrompt: true},
		{Name: "mechanism", Label: "Mechanism of Injury", Tab: "Mechanism of Injury", Strategy: StrategyGroupTerm,
			GroupTerm: "Mechanism of Injury", GroupingConcept: "C0449413", AddPrompt: true},
		{Name: "event", Label: "Death Event", Tab: "Death Event", Strategy: StrategyGroupTerm,
			GroupTerm: "Death Event", GroupingConcept: "C0011065", AddPrompt: true},

		{Name: "heightvalue", Label: "Height", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: heightConcept, Units: cmInChoices, UnitField: "heightunit",
			Convert: inchesToCm, Numeric: true},
		{Name: "weightvalue", Label: "Weight", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: weightConcept, Units: kgLbChoices, UnitField: "weightunit",
			Convert: poundsToKg, Numeric: true},
		{Name: "bmi", Label: "Body Mass Index (kg/m2)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C1305855", Numeric: true},
		{Name: "waistvalue", Label: "Waist circumference", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: waistConcept, Units: cmInChoices, UnitField: "waistunit",
			Convert: inchesToCm, Numeric: true},
		{Name: "kdpi", Label: "KDPI (%)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C4330523", Numeric: true},
		{Name: "hba1c", Label: "HbA1c (%)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C2707530", Numeric: true},
		{Name: "amylase", Label: "Amylase (U/L)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C0201883", Numeric: true},
		{Name: "lipase", Label: "Lipase (U/L)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C0373670", Numeric: true},
		{Name: "egfr", Label: "eGFR (mL/min/1.73m2)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C3274401", Numeric: true},
		{Name: "secr", Label: "Creatinine (mg/dL)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C0600061", Numeric: true},
		{Name: "agemenarche", Label: "Age at menarche (years)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C1314691", Numeric: true},
		{Name: "agefirstbirth", Label: "Age at first birth (years)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C1510831", Numeric: true},
		{Name: "gestationalage", Label: "Gestational age (weeks)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C0017504", Numeric: true},
		{Name: "cancerrisk", Label: "Cancer Risk (%)", Tab: "Measurements", Strategy: StrategyMeasurement,
			ConceptID: "C0596244", Numeric: true},

		{Name: "pathologynote", Label: "Pathology Note", Tab: "Measurements", Strategy: StrategyText,
			ConceptID: "C0807321"},
		{Name: "apoephenotype", Label: "APOE phenotype", Tab: "Measurements", Strategy: StrategyText,
			ConceptID: "C0428504"},

		// The first cohort of donors with Fitzpatrick scores reused each
		// concept as its own grouping concept, so grouping cannot be
		// trusted; the allowlist is the only reliable filter.
		{Name: "fitzpatrick", Label: "Fitzpatrick Scale", Tab: "Measurements", Strategy: StrategyAllowlist,
			GroupTerm: "Fitzpatrick Classification Scale",
			Allowlist: []string{"C2700185", "C2700186", "C2700187", "C2700188", "C2700189", "C2700190"},
			AddPrompt: true},
		{Name: "other_anatomic", Label: "Other Anatomic", Tab: "Measurements", Strategy: StrategyAllowlist,
			GroupTerm: "Other Anatomic Concept", GroupingConcept: "C1518643",
			Allowlist: []string{"C4331357"}, AddPrompt: true},

		{Name: "bloodtype", Label: "ABO Blood Type", Tab: "Blood Type", Strategy: StrategyGroupTerm,
			GroupTerm: "ABO blood group system", GroupingConcept: "C0000778", AddPrompt: true},
		{Name: "bloodrh", Label: "Rh Blood Group", Tab: "Blood Type", Strategy: StrategyGroupTerm,
			GroupTerm: "Rh Blood Group", GroupingConcept: "C0035406", AddPrompt: true},

		// Social History rows share one grouping concept, so these fields
		// group manually by concept id.
		{Name: "smoking", Label: "Smoking history", Tab: "Social History", Strategy: StrategyAllowlist,
			GroupingConcept: "C0424945",
			Allowlist: []string{"C0337664", "C0337672", "C0337671"}, AddPrompt: true},
		{Name: "tobacco", Label: "Tobacco history", Tab: "Social History", Strategy: StrategyAllowlist,
			GroupingConcept: "C0424945",
			Allowlist: []string{"C3853727"}, AddPrompt: true},
		{Name: "alcohol", Label: "Alcohol history", Tab: "Social History", Strategy: StrategyAllowlist,
			GroupingConcept: "C0424945",
			Allowlist: []string{"C0001948", "C0457801", "C0001969"}, AddPrompt: true},
		{Name: "drug", Label: "Other drug history", Tab: "Social History", Strategy: StrategyAllowlist,
			GroupingConcept: "C0424945",
			Allowlist: []string{"C4518790", "C0524662", "C0242566", "C1456624", "C3266350",
				"C0281875", "C0013146", "C0239076"},
			Slots: otherDrugSlots, AddPrompt: true},

		{Name: "medhx", Label: "Medical History", Tab: "Medical History", Strategy: StrategyGroupTerm,
			GroupTerm: "Medical History", GroupingConcept: "C0262926",
			Slots: medicalHistorySlots, AddPrompt: true, SelfHeal: true},
	}
}
