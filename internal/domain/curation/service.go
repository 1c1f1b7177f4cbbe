package curation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/x-consortia/donor-curator/internal/domain/donor"
	"github.com/x-consortia/donor-curator/internal/domain/valueset"
	"github.com/x-consortia/donor-curator/internal/upstream/entity"
)

// EntityAPI is the slice of the entity client the curation workflow needs.
type EntityAPI interface {
	GetDonor(ctx context.Context, donorID, token string) (*entity.Donor, error)
	UpdateMetadata(ctx context.Context, donorID, token string, doc *donor.Document) error
	PublishedDatasets(ctx context.Context, donorID, token string) (bool, int, error)
}

// Recorder receives a change record after a successful write-back. A nil
// Recorder on the Service disables audit recording.
type Recorder interface {
	RecordUpdate(ctx context.Context, donorID, actor string, delta *donor.Delta)
}

// Service orchestrates the curation workflow: fetch, bind, review, write.
type Service struct {
	entities EntityAPI
	vs       *valueset.Set
	bindings []Binding
	audit    Recorder
	log      zerolog.Logger
}

func NewService(entities EntityAPI, vs *valueset.Set, audit Recorder, logger zerolog.Logger) *Service {
	return &Service{
		entities: entities,
		vs:       vs,
		bindings: Bindings(),
		audit:    audit,
		log:      logger.With().Str("component", "curation").Logger(),
	}
}

// Form fetches the donor and binds its current metadata onto the editing
// form: field descriptors with options, defaults from the stored document,
// and any manual-review warnings raised during binding.
func (s *Service) Form(ctx context.Context, donorID, token string) (*FormDescriptor, error) {
	d, err := s.entities.GetDonor(ctx, donorID, token)
	if err != nil {
		return nil, err
	}

	current, err := s.normalized(d)
	if err != nil {
		return nil, err
	}

	bound := Bind(s.bindings, current, s.vs)
	form := Describe(donorID, string(d.Consortium), s.bindings, s.vs, bound)
	s.log.Info().Str("donor_id", donorID).Int("warnings", len(form.Warnings)).Msg("form bound")
	return form, nil
}

// ReviewResult carries the would-be document and its delta against the
// stored record, for user confirmation before any write happens.
type ReviewResult struct {
	DonorID  string          `json:"donor_id"`
	Document *donor.Document `json:"document"`
	Delta    *donor.Delta    `json:"delta"`
}

// Review builds the metadata document from submitted form values and diffs
// it against the donor's stored record. Nothing is written.
func (s *Service) Review(ctx context.Context, donorID, token string, values map[string]string) (*ReviewResult, error) {
	d, err := s.entities.GetDonor(ctx, donorID, token)
	if err != nil {
		return nil, err
	}

	doc, err := Build(values, s.bindings, s.vs)
	if err != nil {
		return nil, err
	}

	original, err := s.normalized(d)
	if err != nil {
		return nil, err
	}

	delta, err := donor.Diff(original, doc)
	if err != nil {
		return nil, err
	}

	return &ReviewResult{DonorID: donorID, Document: doc, Delta: delta}, nil
}

// UpdateResult reports the outcome of a confirmed write.
type UpdateResult struct {
	DonorID string       `json:"donor_id"`
	Written bool         `json:"written"`
	Delta   *donor.Delta `json:"delta"`
}

// Update builds, diffs, and writes the metadata document back through the
// entity API. Donors with published datasets are refused before the write
// is attempted. A no-change submission is not written.
//
// The workflow is optimistic: the stored record may change between the
// review the user confirmed and this write, and that race is not detected.
func (s *Service) Update(ctx context.Context, donorID, token, actor string, values map[string]string) (*UpdateResult, error) {
	review, err := s.Review(ctx, donorID, token, values)
	if err != nil {
		return nil, err
	}

	if review.Delta.Empty() {
		s.log.Info().Str("donor_id", donorID).Msg("no metadata changes, write skipped")
		return &UpdateResult{DonorID: donorID, Written: false, Delta: review.Delta}, nil
	}

	published, count, err := s.entities.PublishedDatasets(ctx, donorID, token)
	if err != nil {
		return nil, err
	}
	if published {
		s.log.Warn().Str("donor_id", donorID).Int("descendants", count).
			Msg("write refused: donor has published datasets")
		return nil, lockedError(donorID)
	}

	if err := s.entities.UpdateMetadata(ctx, donorID, token, review.Document); err != nil {
		return nil, err
	}

	if s.audit != nil {
		s.audit.RecordUpdate(ctx, donorID, actor, review.Delta)
	}

	s.log.Info().Str("donor_id", donorID).Str("actor", actor).Msg("donor metadata written")
	return &UpdateResult{DonorID: donorID, Written: true, Delta: review.Delta}, nil
}

// Metadata returns the donor's stored metadata in normalized form, for the
// export path. Donors without metadata return nil.
func (s *Service) Metadata(ctx context.Context, donorID, token string) (*donor.Normalized, error) {
	d, err := s.entities.GetDonor(ctx, donorID, token)
	if err != nil {
		return nil, err
	}
	return s.normalized(d)
}

func (s *Service) normalized(d *entity.Donor) (*donor.Normalized, error) {
	if d.Metadata == nil {
		return nil, nil
	}
	return donor.Normalize(d.Metadata)
}
