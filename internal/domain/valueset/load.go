package valueset

import (
	"context"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/x-consortia/donor-curator/internal/platform/remote"
)

// Load downloads the valueset spreadsheet to destinationPath and parses
// every tab. Any fetch or parse failure is a *ConfigurationError; there is
// no partial load.
func Load(ctx context.Context, client *remote.Client, url, destinationPath string) (*Set, error) {
	raw, err := client.Download(ctx, url)
	if err != nil {
		return nil, &ConfigurationError{Msg: "download valueset document", Err: err}
	}
	if err := os.WriteFile(destinationPath, raw, 0o644); err != nil {
		return nil, &ConfigurationError{Msg: "write valueset document to " + destinationPath, Err: err}
	}
	return LoadFile(destinationPath)
}

// LoadFile parses an already-downloaded valueset spreadsheet.
func LoadFile(path string) (*Set, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ConfigurationError{Msg: "open valueset document " + path, Err: err}
	}
	defer f.Close()

	tabs := make(map[string][]Row)
	graphVersion := ""

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, &ConfigurationError{Msg: "read tab " + sheet, Err: err}
		}
		if len(rows) == 0 {
			tabs[sheet] = nil
			continue
		}

		cols := headerIndex(rows[0])
		var parsed []Row
		for _, cells := range rows[1:] {
			r := Row{
				ConceptID:                    cell(cells, cols, "concept_id"),
				Code:                         cell(cells, cols, "code"),
				SAB:                          cell(cells, cols, "sab"),
				DataType:                     cell(cells, cols, "data_type"),
				DataValue:                    cell(cells, cols, "data_value"),
				NumericOperator:              cell(cells, cols, "numeric_operator"),
				Units:                        cell(cells, cols, "units"),
				PreferredTerm:                cell(cells, cols, "preferred_term"),
				GroupingConcept:              cell(cells, cols, "grouping_concept"),
				GroupingConceptPreferredTerm: cell(cells, cols, "grouping_concept_preferred_term"),
				GroupingCode:                 cell(cells, cols, "grouping_code"),
				GroupingSAB:                  cell(cells, cols, "grouping_sab"),
			}
			parsed = append(parsed, r)

			if sheet == GraphVersionTab && graphVersion == "" {
				graphVersion = cell(cells, cols, "graph_version")
			}
		}
		tabs[sheet] = parsed
	}

	return New(tabs, graphVersion), nil
}

// headerIndex maps lower-cased column names to cell positions. The sheet
// capitalizes a few headers (SAB) inconsistently across tabs.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func cell(cells []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}
