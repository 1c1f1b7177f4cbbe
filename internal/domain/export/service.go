package export

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/x-consortia/donor-curator/internal/domain/curation"
	"github.com/x-consortia/donor-curator/internal/domain/donor"
	"github.com/x-consortia/donor-curator/internal/platform/remote"
	"github.com/x-consortia/donor-curator/internal/upstream/entity"
	"github.com/x-consortia/donor-curator/internal/upstream/registry"
	"github.com/x-consortia/donor-curator/internal/upstream/search"
)

// Searcher is the slice of the search client the bulk export needs.
type Searcher interface {
	AllDonorMetadata(ctx context.Context, consortium entity.Consortium, token string) ([]search.Record, error)
}

// Registry is the slice of the DataCite client the DOI export needs.
type Registry interface {
	AllTitles(ctx context.Context, consortium entity.Consortium) ([]registry.DOITitle, error)
}

// Service assembles export tables from the upstream APIs.
type Service struct {
	curation *curation.Service
	search   Searcher
	registry Registry
	log      zerolog.Logger
}

func NewService(cur *curation.Service, searcher Searcher, reg Registry, logger zerolog.Logger) *Service {
	return &Service{
		curation: cur,
		search:   searcher,
		registry: reg,
		log:      logger.With().Str("component", "export").Logger(),
	}
}

// DonorTable flattens one donor's stored metadata. The returned filename
// follows the consortium naming convention for manual curation uploads.
func (s *Service) DonorTable(ctx context.Context, donorID, token string) (*Table, string, error) {
	current, err := s.curation.Metadata(ctx, donorID, token)
	if err != nil {
		return nil, "", err
	}
	if current == nil {
		return nil, "", &remote.Error{Kind: remote.KindNotFound, Status: http.StatusNotFound,
			Message: fmt.Sprintf("donor %s has no metadata to export", donorID)}
	}

	return Flatten(donorID, current.Elements), donorID + ".tsv", nil
}

// ConsortiumTable flattens every donor with metadata in the consortium.
func (s *Service) ConsortiumTable(ctx context.Context, consortium entity.Consortium, token string) (*Table, string, error) {
	records, err := s.search.AllDonorMetadata(ctx, consortium, token)
	if err != nil {
		return nil, "", err
	}

	bulk := make([]BulkRecord, 0, len(records))
	for _, rec := range records {
		n, err := donor.Normalize(&rec.Metadata)
		if err != nil {
			// A malformed stored document must not sink the whole export;
			// flag it and keep going.
			s.log.Warn().Str("donor_id", rec.ID).Err(err).Msg("skipping donor with malformed metadata")
			continue
		}
		bulk = append(bulk, BulkRecord{ID: rec.ID, SourceName: n.SourceName(), Elements: n.Elements})
	}

	filename := fmt.Sprintf("%s_metadata.csv", consortium.ShortName())
	return FlattenBulk(bulk), filename, nil
}

// doiColumns is the header of the DOI demographic comparison export.
var doiColumns = []string{"doi", "title", "age", "ageunit", "race", "sex"}

// DOITable fetches every DOI title registered for the consortium and
// parses the embedded donor demographics for offline comparison against
// curated metadata.
func (s *Service) DOITable(ctx context.Context, consortium entity.Consortium) (*Table, string, error) {
	titles, err := s.registry.AllTitles(ctx, consortium)
	if err != nil {
		return nil, "", err
	}

	t := &Table{Header: doiColumns}
	for _, dt := range titles {
		parsed := registry.ParseTitle(dt.Title)
		t.Rows = append(t.Rows, []string{
			dt.DOI, dt.Title, parsed.Age, parsed.AgeUnit, parsed.Race, parsed.Sex,
		})
	}

	filename := fmt.Sprintf("%s_doi_metadata.csv", consortium.ShortName())
	return t, filename, nil
}
