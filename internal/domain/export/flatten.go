// Package export flattens donor metadata documents into tabular files:
// per-donor TSV, consortium-wide CSV, and the DOI demographic comparison.
package export

import "github.com/x-consortia/donor-curator/internal/domain/donor"

// elementColumns is the fixed output order of the metadata element
// attributes. Stable column order is part of the export contract:
// downstream spreadsheets key on position.
var elementColumns = []string{
	"concept_id",
	"code",
	"sab",
	"data_type",
	"data_value",
	"numeric_operator",
	"units",
	"preferred_term",
	"grouping_concept",
	"grouping_concept_preferred_term",
	"grouping_code",
	"grouping_sab",
	"start_datetime",
	"end_datetime",
	"graph_version",
}

// Table is a flattened export: one header row and one data row per
// metadata element.
type Table struct {
	Header []string
	Rows   [][]string
}

// Flatten turns one donor's elements into rows of id + element columns.
func Flatten(recordID string, elements []donor.Element) *Table {
	t := &Table{Header: append([]string{"id"}, elementColumns...)}
	for _, e := range elements {
		t.Rows = append(t.Rows, append([]string{recordID}, elementValues(e)...))
	}
	return t
}

// BulkRecord is one donor in a consortium-wide export.
type BulkRecord struct {
	ID         string
	SourceName string
	Elements   []donor.Element
}

// FlattenBulk turns many donors into rows of id + source_name + element
// columns, in the order given.
func FlattenBulk(records []BulkRecord) *Table {
	t := &Table{Header: append([]string{"id", "source_name"}, elementColumns...)}
	for _, rec := range records {
		for _, e := range rec.Elements {
			t.Rows = append(t.Rows, append([]string{rec.ID, rec.SourceName}, elementValues(e)...))
		}
	}
	return t
}

func elementValues(e donor.Element) []string {
	return []string{
		e.ConceptID,
		e.Code,
		e.SAB,
		e.DataType,
		e.DataValue,
		e.NumericOperator,
		e.Units,
		e.PreferredTerm,
		e.GroupingConcept,
		e.GroupingConceptPreferredTerm,
		e.GroupingCode,
		e.GroupingSAB,
		e.StartDatetime,
		e.EndDatetime,
		e.GraphVersion,
	}
}
