package curation

import (
	"github.com/x-consortia/donor-curator/internal/domain/valueset"
)

// UnitDescriptor describes a companion unit selector.
type UnitDescriptor struct {
	Name    string            `json:"name"`
	Options []valueset.Option `json:"options"`
	Default string            `json:"default"`
}

// FieldDescriptor is the renderable description of one form field:
// option list, default selection, and slot count for repeated fields.
type FieldDescriptor struct {
	Name     string            `json:"name"`
	Label    string            `json:"label"`
	Kind     string            `json:"kind"` // select, number, text
	Options  []valueset.Option `json:"options,omitempty"`
	Default  string            `json:"default,omitempty"`
	Defaults []string          `json:"defaults,omitempty"` // one per slot
	Slots    int               `json:"slots,omitempty"`
	Unit     *UnitDescriptor   `json:"unit,omitempty"`
	Required bool              `json:"required,omitempty"`
}

// FormDescriptor is the full edit form for one donor: every field with
// its options and defaults, plus any manual-review warnings. When
// Disabled is set the client must render the form read-only.
type FormDescriptor struct {
	DonorID    string            `json:"donor_id"`
	Consortium string            `json:"consortium"`
	Fields     []FieldDescriptor `json:"fields"`
	Warnings   []string          `json:"warnings,omitempty"`
	Disabled   bool              `json:"disabled,omitempty"`
}

// Describe assembles the form descriptor from the binding table, the
// vocabulary, and a bind result.
func Describe(donorID, consortium string, bindings []Binding, vs *valueset.Set, bound *BindResult) *FormDescriptor {
	form := &FormDescriptor{
		DonorID:    donorID,
		Consortium: consortium,
		Warnings:   bound.Warnings,
		Disabled:   bound.Disabled,
	}

	for _, b := range bindings {
		fd := FieldDescriptor{Name: b.Name, Label: b.Label, Required: b.Required}

		switch b.Strategy {
		case StrategySource:
			fd.Kind = "select"
			for _, c := range sourceChoices {
				fd.Options = append(fd.Options, valueset.Option{ConceptID: c.Key, Label: c.Label})
			}
			fd.Options = append(fd.Options, valueset.Option{
				ConceptID: valueset.PromptConceptID, Label: valueset.PromptLabel})
			fd.Default = bound.Defaults[b.Name]

		case StrategyAge:
			fd.Kind = "number"
			fd.Default = bound.Defaults[b.Name]
			fd.Unit = &UnitDescriptor{
				Name: b.UnitField,
				Options: vs.OptionList(valueset.OptionListQuery{
					Tab: b.Tab, ValueColumn: "units", GroupingTerm: b.GroupTerm}),
				Default: bound.Defaults[b.UnitField],
			}

		case StrategyGroupTerm, StrategyAllowlist:
			fd.Kind = "select"
			fd.Options = vs.OptionList(valueset.OptionListQuery{
				Tab:              b.Tab,
				GroupingTerm:     b.GroupTerm,
				ConceptAllowlist: b.Allowlist,
				IncludePrompt:    b.AddPrompt,
			})
			if b.Slots > 0 {
				fd.Slots = b.Slots
				for i := 0; i < b.Slots; i++ {
					fd.Defaults = append(fd.Defaults, bound.Defaults[b.slotName(i)])
				}
			} else {
				fd.Default = bound.Defaults[b.Name]
			}

		case StrategyMeasurement:
			fd.Kind = "number"
			fd.Default = bound.Defaults[b.Name]
			if b.UnitField != "" {
				unit := &UnitDescriptor{Name: b.UnitField, Default: bound.Defaults[b.UnitField]}
				for _, c := range b.Units {
					unit.Options = append(unit.Options, valueset.Option{ConceptID: c.Key, Label: c.Label})
				}
				fd.Unit = unit
			}

		case StrategyText:
			fd.Kind = "text"
			fd.Default = bound.Defaults[b.Name]
		}

		form.Fields = append(form.Fields, fd)
	}

	return form
}
