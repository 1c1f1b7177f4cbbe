package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/x-consortia/donor-curator/internal/domain/donor"
)

func sampleElement() donor.Element {
	return donor.Element{
		ConceptID:                    "C0005890",
		Code:                         "50373000",
		SAB:                          "SNOMEDCT_US",
		DataType:                     "Numeric",
		DataValue:                    "177.8",
		Units:                        "cm",
		PreferredTerm:                "Body Height",
		GroupingConcept:              "C0005890",
		GroupingConceptPreferredTerm: "Body Height",
		GraphVersion:                 "2023AA",
	}
}

func TestFlattenColumnOrder(t *testing.T) {
	table := Flatten("HBM123.ABCD.456", []donor.Element{sampleElement()})

	wantHeader := "id,concept_id,code,sab,data_type,data_value,numeric_operator,units," +
		"preferred_term,grouping_concept,grouping_concept_preferred_term,grouping_code," +
		"grouping_sab,start_datetime,end_datetime,graph_version"
	if got := strings.Join(table.Header, ","); got != wantHeader {
		t.Errorf("header = %s", got)
	}

	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d", len(table.Rows))
	}
	row := table.Rows[0]
	if row[0] != "HBM123.ABCD.456" {
		t.Errorf("id column = %q", row[0])
	}
	if row[1] != "C0005890" || row[5] != "177.8" || row[7] != "cm" {
		t.Errorf("row = %v", row)
	}
	if len(row) != len(table.Header) {
		t.Errorf("row width %d != header width %d", len(row), len(table.Header))
	}
}

func TestFlattenBulkInjectsSourceName(t *testing.T) {
	table := FlattenBulk([]BulkRecord{
		{ID: "HBM111.AAAA.111", SourceName: donor.OrganDonorKey, Elements: []donor.Element{sampleElement()}},
		{ID: "SNT222.BBBB.222", SourceName: donor.LivingDonorKey, Elements: []donor.Element{sampleElement(), sampleElement()}},
	})

	if table.Header[0] != "id" || table.Header[1] != "source_name" {
		t.Errorf("header = %v", table.Header[:2])
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d", len(table.Rows))
	}
	if table.Rows[0][1] != donor.OrganDonorKey || table.Rows[2][1] != donor.LivingDonorKey {
		t.Errorf("source_name column = %q, %q", table.Rows[0][1], table.Rows[2][1])
	}
}

func TestWriteTSVAndCSV(t *testing.T) {
	table := Flatten("HBM123.ABCD.456", []donor.Element{sampleElement()})

	var tsv bytes.Buffer
	if err := WriteTSV(&tsv, table); err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	lines := strings.Split(strings.TrimRight(tsv.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("tsv lines = %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id\tconcept_id\t") {
		t.Errorf("tsv header = %q", lines[0])
	}

	var csvBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, table); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(csvBuf.String(), "id,concept_id,") {
		t.Errorf("csv header = %q", csvBuf.String())
	}
}
