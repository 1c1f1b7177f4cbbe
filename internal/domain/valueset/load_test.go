package valueset

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFixtureSheet(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	// Sex tab with a padded concept id, mirroring the data-quality hazard
	// in the source sheet.
	f.SetSheetName("Sheet1", "Sex")
	header := []interface{}{"concept_id", "code", "SAB", "data_type", "data_value",
		"numeric_operator", "units", "preferred_term", "grouping_concept",
		"grouping_concept_preferred_term", "grouping_code", "grouping_sab"}
	_ = f.SetSheetRow("Sex", "A1", &header)
	_ = f.SetSheetRow("Sex", "A2", &[]interface{}{" C0086582 ", "M", "UMLS", "Nominal", "",
		"", "", "Male", "C1522384", "Sex", "SEX", "UMLS"})
	_ = f.SetSheetRow("Sex", "A3", &[]interface{}{"C0086287", "F", "UMLS", "Nominal", "",
		"", "", "Female", "C1522384", "Sex", "SEX", "UMLS"})

	_, _ = f.NewSheet(GraphVersionTab)
	_ = f.SetSheetRow(GraphVersionTab, "A1", &[]interface{}{"graph_version"})
	_ = f.SetSheetRow(GraphVersionTab, "A2", &[]interface{}{"2024AA"})

	path := filepath.Join(t.TempDir(), "valuesets.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFixtureSheet(t)

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if s.GraphVersion() != "2024AA" {
		t.Errorf("graph version = %q, want 2024AA", s.GraphVersion())
	}

	// Load-time trim: the padded id must be queryable untrimmed and trimmed.
	row, ok := s.RowFor("Sex", "C0086582")
	if !ok {
		t.Fatal("expected row for C0086582")
	}
	if row.PreferredTerm != "Male" || row.GroupingConcept != "C1522384" {
		t.Errorf("row = %+v", row)
	}

	opts := s.OptionList(OptionListQuery{Tab: "Sex", GroupingTerm: "Sex"})
	if len(opts) != 2 {
		t.Fatalf("options = %d, want 2", len(opts))
	}
	if opts[0].Label != "Female" {
		t.Errorf("first option = %+v, want Female first (sorted)", opts[0])
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.xlsx"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("err = %T, want *ConfigurationError", err)
	}
}
