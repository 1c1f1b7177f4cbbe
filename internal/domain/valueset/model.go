package valueset

// Row is one controlled-vocabulary entry from a tab of the valueset
// spreadsheet. All attributes are strings; numeric metadata values are
// stringified in the donor schema as well.
type Row struct {
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
}

// Option is one (concept id, label) entry for a select control.
type Option struct {
	ConceptID string `json:"concept_id"`
	Label     string `json:"label"`
}

// PromptConceptID is the reserved selection value meaning "no selection
// made yet". Option lists built with a prompt always place it last: the
// consuming select control cannot programmatically pre-select a prompt
// placed first.
const PromptConceptID = "PROMPT"

// PromptLabel is the display text of the prompt option.
const PromptLabel = "Select an option"

// ConfigurationError reports that the vocabulary source could not be
// fetched or parsed. It is fatal for the curation form: no valueset, no
// editing.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return "valueset: " + e.Msg + ": " + e.Err.Error()
	}
	return "valueset: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
