package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/x-consortia/donor-curator/internal/platform/remote"
	"github.com/x-consortia/donor-curator/internal/upstream/entity"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rc := remote.NewClient(zerolog.Nop(), 5*time.Second)
	return NewClient(Config{BaseOverride: srv.URL}, rc, zerolog.Nop())
}

func TestAllDonorMetadataSkipsDonorsWithoutMetadata(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"hubmap_id": "HBM111.AAAA.111"},
			{"hubmap_id": "HBM222.BBBB.222", "metadata": map[string]interface{}{
				"organ_donor_data": []map[string]string{{"concept_id": "C0001779"}},
			}},
		})
	}))

	records, err := client.AllDonorMetadata(context.Background(), entity.ConsortiumHuBMAP, "tok")
	if err != nil {
		t.Fatalf("AllDonorMetadata: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].ID != "HBM222.BBBB.222" {
		t.Errorf("id = %q", records[0].ID)
	}
	if len(records[0].Metadata.OrganDonorData) != 1 {
		t.Errorf("metadata not decoded: %+v", records[0].Metadata)
	}
}

func TestAllDonorMetadataUsesSenNetID(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-SenNet-Application") == "" {
			t.Error("X-SenNet-Application header missing")
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"sennet_id": "SNT333.CCCC.333", "hubmap_id": "ignored", "metadata": map[string]interface{}{
				"living_donor_data": []map[string]string{{"concept_id": "C0001779"}},
			}},
		})
	}))

	records, err := client.AllDonorMetadata(context.Background(), entity.ConsortiumSenNet, "tok")
	if err != nil {
		t.Fatalf("AllDonorMetadata: %v", err)
	}
	if len(records) != 1 || records[0].ID != "SNT333.CCCC.333" {
		t.Fatalf("records = %+v", records)
	}
}

func TestAllDonorMetadataNotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.AllDonorMetadata(context.Background(), entity.ConsortiumHuBMAP, "tok")
	if !remote.NotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
