// Package search queries the consortium search API for donor records in
// bulk. The per-donor path stays on the entity API; search exists only for
// consortium-wide export.
package search

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/x-consortia/donor-curator/internal/domain/donor"
	"github.com/x-consortia/donor-curator/internal/platform/remote"
	"github.com/x-consortia/donor-curator/internal/upstream/entity"
)

// Record is one donor returned by the search API that carries metadata.
type Record struct {
	ID       string
	Metadata donor.Document
}

type Config struct {
	// EndpointBase is the scheme+host prefix without the consortium part,
	// e.g. "https://search.api". The full URL is
	// {EndpointBase}.{consortium}.org/v3.
	EndpointBase string
	// BaseOverride, when set, replaces the derived base URL entirely.
	BaseOverride string
}

type Client struct {
	cfg  Config
	http *remote.Client
	log  zerolog.Logger
}

func NewClient(cfg Config, httpClient *remote.Client, logger zerolog.Logger) *Client {
	return &Client{cfg: cfg, http: httpClient, log: logger.With().Str("component", "search-api").Logger()}
}

func (c *Client) baseURL(consortium entity.Consortium) string {
	if c.cfg.BaseOverride != "" {
		return c.cfg.BaseOverride
	}
	return fmt.Sprintf("%s.%s.org/v3", c.cfg.EndpointBase, consortium)
}

// searchDonor is the subset of a search hit this service reads. The id
// field name differs per consortium.
type searchDonor struct {
	HuBMAPID string          `json:"hubmap_id"`
	SenNetID string          `json:"sennet_id"`
	Metadata *donor.Document `json:"metadata"`
}

// AllDonorMetadata returns every donor in the consortium that has a
// metadata document. Donors without metadata are skipped, not errors.
func (c *Client) AllDonorMetadata(ctx context.Context, consortium entity.Consortium, token string) ([]Record, error) {
	url := c.baseURL(consortium) + "/param-search/donors"

	headers := map[string]string{"Authorization": "Bearer " + token}
	if consortium == entity.ConsortiumSenNet {
		headers["X-SenNet-Application"] = "portal-ui"
	}

	var hits []searchDonor
	status, raw, err := c.http.DoJSON(ctx, http.MethodGet, url, headers, nil, &hits)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &remote.Error{Kind: remote.KindNotFound, Status: status,
			Message: fmt.Sprintf("no donors found in provenance for %s", consortium)}
	case http.StatusBadRequest:
		return nil, &remote.Error{Kind: remote.KindBadRequest, Status: status, Message: remote.ErrorMessage(raw)}
	case http.StatusUnauthorized:
		return nil, &remote.Error{Kind: remote.KindUnauthorized, Status: status, Message: "token rejected by search API"}
	default:
		return nil, &remote.Error{Kind: remote.KindRemote, Status: status,
			Message: fmt.Sprintf("search API error for %s: %s", consortium, remote.ErrorMessage(raw))}
	}

	records := make([]Record, 0, len(hits))
	for _, hit := range hits {
		if hit.Metadata == nil {
			continue
		}
		id := hit.HuBMAPID
		if consortium == entity.ConsortiumSenNet {
			id = hit.SenNetID
		}
		records = append(records, Record{ID: id, Metadata: *hit.Metadata})
	}

	c.log.Info().Str("consortium", string(consortium)).Int("donors", len(records)).
		Msg("bulk donor metadata fetched")
	return records, nil
}
