package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/x-consortia/donor-curator/internal/domain/donor"
	"github.com/x-consortia/donor-curator/internal/platform/remote"
)

// miscodedNotFound is the error-message substring some deployments return
// with a 400 when the real condition is an unknown id. Callers must see a
// 404 in that case.
const miscodedNotFound = "is not a valid id format"

// Donor is a donor entity as returned by the entity API, with the
// metadata document already decoded. Metadata is nil when the donor has
// no metadata recorded yet.
type Donor struct {
	ID         string
	Consortium Consortium
	EntityType string
	SourceType string
	Metadata   *donor.Document
}

// Config carries the endpoint base and the optional update-override
// header that permits edits to donors with published datasets.
type Config struct {
	// EndpointBase is the scheme+host prefix without the consortium part,
	// e.g. "https://entity.api". The full URL is
	// {EndpointBase}.{consortium}.org.
	EndpointBase string
	// BaseOverride, when set, is used verbatim as the base URL for every
	// consortium. Single-host deployments and tests set this.
	BaseOverride        string
	OverrideHeaderName  string
	OverrideHeaderValue string
}

// Client talks to the entity APIs of both consortia. It is stateless and
// safe for concurrent use; the caller's bearer token travels per request.
type Client struct {
	cfg  Config
	http *remote.Client
	log  zerolog.Logger
}

func NewClient(cfg Config, httpClient *remote.Client, logger zerolog.Logger) *Client {
	return &Client{cfg: cfg, http: httpClient, log: logger.With().Str("component", "entity-api").Logger()}
}

func (c *Client) baseURL(consortium Consortium) string {
	if c.cfg.BaseOverride != "" {
		return c.cfg.BaseOverride
	}
	return fmt.Sprintf("%s.%s.org", c.cfg.EndpointBase, consortium)
}

func (c *Client) headers(consortium Consortium, token string) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + token}
	if consortium == ConsortiumSenNet {
		h["X-SenNet-Application"] = "portal-ui"
	}
	if c.cfg.OverrideHeaderName != "" {
		h[c.cfg.OverrideHeaderName] = c.cfg.OverrideHeaderValue
	}
	return h
}

// entityResponse is the subset of the entity API payload this service
// reads. Metadata stays raw until the entity type checks pass.
type entityResponse struct {
	EntityType string          `json:"entity_type"`
	SourceType string          `json:"source_type"`
	Status     string          `json:"status"`
	Metadata   json.RawMessage `json:"metadata"`
}

// GetDonor fetches one donor record. Non-donor entities and non-human
// SenNet sources are rejected: this tool curates human donors only.
func (c *Client) GetDonor(ctx context.Context, donorID, token string) (*Donor, error) {
	consortium, err := ConsortiumForID(donorID)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/entities/%s", c.baseURL(consortium), donorID)
	var resp entityResponse
	status, raw, err := c.http.DoJSON(ctx, http.MethodGet, url, c.headers(consortium, token), nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.classifyGet(status, raw, donorID, consortium)
	}

	if resp.EntityType != "Donor" && resp.EntityType != "Source" {
		return nil, &remote.Error{
			Kind:   remote.KindBadRequest,
			Status: http.StatusBadRequest,
			Message: fmt.Sprintf("id %s is an entity of type %s; this application works only with donors",
				donorID, resp.EntityType),
		}
	}
	if consortium == ConsortiumSenNet && resp.SourceType != "Human" {
		return nil, &remote.Error{
			Kind:   remote.KindBadRequest,
			Status: http.StatusBadRequest,
			Message: fmt.Sprintf("id %s is a source of type %s; this application works only with human sources",
				donorID, resp.SourceType),
		}
	}

	d := &Donor{ID: donorID, Consortium: consortium, EntityType: resp.EntityType, SourceType: resp.SourceType}
	if consortium == ConsortiumHuBMAP {
		d.SourceType = "Human"
	}

	if len(resp.Metadata) > 0 && string(resp.Metadata) != "null" {
		var doc donor.Document
		if err := json.Unmarshal(resp.Metadata, &doc); err != nil {
			return nil, &remote.Error{Kind: remote.KindRemote, Status: status,
				Message: fmt.Sprintf("decode metadata for donor %s: %v", donorID, err)}
		}
		d.Metadata = &doc
	}

	return d, nil
}

// UpdateMetadata writes a new metadata document back through the entity
// API. A 403 means the record is locked because of a published dataset;
// the caller should direct the user to manual export instead.
func (c *Client) UpdateMetadata(ctx context.Context, donorID, token string, doc *donor.Document) error {
	consortium, err := ConsortiumForID(donorID)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/entities/%s", c.baseURL(consortium), donorID)
	body := map[string]interface{}{"metadata": doc}
	status, raw, err := c.http.DoJSON(ctx, http.MethodPut, url, c.headers(consortium, token), body, nil)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		c.log.Info().Str("donor_id", donorID).Msg("donor metadata updated")
		return nil
	case status == http.StatusForbidden:
		return &remote.Error{
			Kind:   remote.KindLocked,
			Status: status,
			Message: fmt.Sprintf("donor %s is locked, most likely because it is associated with a published dataset; "+
				"export to TSV for manual update", donorID),
		}
	default:
		return c.classifyGet(status, raw, donorID, consortium)
	}
}

// Descendant is one provenance descendant of a donor.
type Descendant struct {
	UUID       string `json:"uuid"`
	EntityType string `json:"entity_type"`
	Status     string `json:"status"`
}

// PublishedDatasets reports whether the donor has published dataset
// descendants, along with the descendant count. Published datasets gate
// write eligibility.
func (c *Client) PublishedDatasets(ctx context.Context, donorID, token string) (bool, int, error) {
	consortium, err := ConsortiumForID(donorID)
	if err != nil {
		return false, 0, err
	}

	url := fmt.Sprintf("%s/descendants/%s", c.baseURL(consortium), donorID)
	var descendants []Descendant
	status, raw, err := c.http.DoJSON(ctx, http.MethodGet, url, c.headers(consortium, token), nil, &descendants)
	if err != nil {
		return false, 0, err
	}
	if status != http.StatusOK {
		return false, 0, c.classifyGet(status, raw, donorID, consortium)
	}

	for _, d := range descendants {
		if d.EntityType == "Dataset" && strings.EqualFold(d.Status, "published") {
			return true, len(descendants), nil
		}
	}
	return false, len(descendants), nil
}

// classifyGet maps a non-200 entity API status onto the typed upstream
// error contract, reclassifying the known miscoded 400 as a 404.
func (c *Client) classifyGet(status int, raw []byte, donorID string, consortium Consortium) error {
	msg := remote.ErrorMessage(raw)

	switch status {
	case http.StatusNotFound:
		return &remote.Error{Kind: remote.KindNotFound, Status: status,
			Message: fmt.Sprintf("no donor with id %s found in provenance for %s", donorID, consortium)}
	case http.StatusBadRequest:
		if strings.Contains(msg, miscodedNotFound) {
			return &remote.Error{Kind: remote.KindNotFound, Status: http.StatusNotFound,
				Message: fmt.Sprintf("no donor with id %s found in provenance for %s", donorID, consortium)}
		}
		return &remote.Error{Kind: remote.KindBadRequest, Status: status, Message: msg}
	case http.StatusUnauthorized:
		return &remote.Error{Kind: remote.KindUnauthorized, Status: status, Message: "token rejected by entity API"}
	default:
		return &remote.Error{Kind: remote.KindRemote, Status: status,
			Message: fmt.Sprintf("entity API error for donor %s: %s", donorID, msg)}
	}
}
