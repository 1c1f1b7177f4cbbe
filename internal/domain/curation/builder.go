package curation

import (
	"math"
	"strconv"
	"strings"

	"github.com/x-consortia/donor-curator/internal/domain/donor"
	"github.com/x-consortia/donor-curator/internal/domain/valueset"
)

// Build reconstructs a donor metadata document from submitted field
// values, the inverse of Bind. A field whose value is the prompt, empty,
// or absent emits nothing: the remote schema has no notion of an explicit
// "no value" element.
func Build(values map[string]string, bindings []Binding, vs *valueset.Set) (*donor.Document, error) {
	variant, err := variantChoice(values, bindings)
	if err != nil {
		return nil, err
	}

	elements := []donor.Element{}
	for _, b := range bindings {
		switch b.Strategy {
		case StrategySource:
			// Consumed above.
		case StrategyAge:
			elem, ok, err := buildAge(b, values, vs)
			if err != nil {
				return nil, err
			}
			if ok {
				elements = append(elements, elem)
			}
		case StrategyGroupTerm, StrategyAllowlist:
			for i := 0; i < b.slotCount(); i++ {
				elem, ok, err := buildSelect(b, values[b.slotName(i)], vs)
				if err != nil {
					return nil, err
				}
				if ok {
					elements = append(elements, elem)
				}
			}
		case StrategyMeasurement, StrategyText:
			elem, ok, err := buildValue(b, values, vs)
			if err != nil {
				return nil, err
			}
			if ok {
				elements = append(elements, elem)
			}
		}
	}

	return donor.NewDocument(variant, elements), nil
}

func variantChoice(values map[string]string, bindings []Binding) (donor.Variant, error) {
	name := "source"
	for _, b := range bindings {
		if b.Strategy == StrategySource {
			name = b.Name
		}
	}

	switch values[name] {
	case "0":
		return donor.VariantLiving, nil
	case "1":
		return donor.VariantOrgan, nil
	default:
		return 0, &ValidationError{Field: name, Msg: "a source name is required"}
	}
}

func buildAge(b Binding, values map[string]string, vs *valueset.Set) (donor.Element, bool, error) {
	value := strings.TrimSpace(values[b.Name])
	if value == "" {
		return donor.Element{}, false, nil
	}

	unitConcept := values[b.UnitField]
	if unitConcept == "" {
		unitConcept = b.DefaultConcept
	}

	if msg := validateAge(value, unitConcept); msg != "" {
		return donor.Element{}, false, &ValidationError{Field: b.Name, Msg: msg}
	}

	row, ok := vs.RowFor(b.Tab, unitConcept)
	if !ok {
		return donor.Element{}, false, &donor.SchemaError{
			Msg: "age unit concept " + unitConcept + " not found in valueset tab " + b.Tab}
	}

	elem := donor.NewElement(row, vs.GraphVersion())
	elem.DataValue = value
	// The unit is encoded by the concept itself; the units attribute
	// stays as the valueset row defines it.
	return elem, true, nil
}

func buildSelect(b Binding, value string, vs *valueset.Set) (donor.Element, bool, error) {
	if omitted(value) {
		return donor.Element{}, false, nil
	}

	row, ok := vs.RowFor(b.Tab, value)
	if !ok {
		return donor.Element{}, false, &ValidationError{
			Field: b.Name, Msg: "selected concept '" + value + "' not in valueset"}
	}

	elem := donor.NewElement(row, vs.GraphVersion())
	if b.SelfHeal {
		// Legacy records for this field carried a code in data_value.
		// Writing the preferred term instead self-heals the record on
		// every edit.
		elem.DataValue = row.PreferredTerm
	}
	return elem, true, nil
}

func buildValue(b Binding, values map[string]string, vs *valueset.Set) (donor.Element, bool, error) {
	value := strings.TrimSpace(values[b.Name])
	if value == "" {
		return donor.Element{}, false, nil
	}

	row, ok := vs.RowFor(b.Tab, b.ConceptID)
	if !ok {
		return donor.Element{}, false, &donor.SchemaError{
			Msg: "concept " + b.ConceptID + " for field " + b.Name + " not found in valueset tab " + b.Tab}
	}

	if b.Numeric {
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return donor.Element{}, false, &ValidationError{Field: b.Name, Msg: "must be a number"}
		}
	}

	elem := donor.NewElement(row, vs.GraphVersion())
	elem.DataValue = value

	if b.UnitField != "" {
		unitKey := values[b.UnitField]
		if unitKey == "" {
			unitKey = b.Units[0].Key
		}
		label, ok := unitLabel(b.Units, unitKey)
		if !ok {
			return donor.Element{}, false, &ValidationError{Field: b.UnitField, Msg: "unknown unit selection"}
		}
		elem.Units = label

		// Imperial values are converted to metric at write time; the
		// system never persists imperial units. Conversion triggers only
		// on the imperial selector choice, so re-running a metric value
		// through here is a no-op.
		if b.Convert != nil && unitKey == b.Convert.ImperialKey {
			converted, err := convert(value, b.Convert)
			if err != nil {
				return donor.Element{}, false, &ValidationError{Field: b.Name, Msg: "must be a number"}
			}
			elem.DataValue = converted
			elem.Units = b.Convert.MetricLabel
		}
	}

	return elem, true, nil
}

func omitted(value string) bool {
	return value == "" || value == valueset.PromptConceptID
}

func unitLabel(choices []UnitChoice, key string) (string, bool) {
	for _, c := range choices {
		if c.Key == key {
			return c.Label, true
		}
	}
	return "", false
}

// convert applies an imperial-to-metric conversion, rounded to two
// decimals, and returns the stringified result.
func convert(value string, c *Conversion) (string, error) {
	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", err
	}
	if c.Divide {
		num /= c.Factor
	} else {
		num *= c.Factor
	}
	num = math.Round(num*100) / 100
	return strconv.FormatFloat(num, 'f', -1, 64), nil
}
