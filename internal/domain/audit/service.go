package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/x-consortia/donor-curator/internal/domain/donor"
	"github.com/x-consortia/donor-curator/pkg/pagination"
)

// Service records and lists donor metadata changes. Recording is best
// effort: a failed insert logs and moves on, because the remote write has
// already happened and must not be reported as failed.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger.With().Str("component", "audit").Logger()}
}

func (s *Service) RecordUpdate(ctx context.Context, donorID, actor string, delta *donor.Delta) {
	raw, err := json.Marshal(delta)
	if err != nil {
		s.log.Error().Err(err).Str("donor_id", donorID).Msg("marshal audit delta")
		return
	}

	entry := &Entry{DonorID: donorID, Actor: actor, Action: ActionUpdate, Delta: raw}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("donor_id", donorID).Msg("record audit entry")
	}
}

func (s *Service) History(ctx context.Context, donorID string, p pagination.Params) ([]*Entry, int, error) {
	return s.repo.ListByDonor(ctx, donorID, p.Limit, p.Offset)
}
