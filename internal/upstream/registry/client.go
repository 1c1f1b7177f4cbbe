// Package registry reads DOI records from the DataCite REST API. Titles of
// published-dataset DOIs embed donor demographics in a fixed sentence
// template; this package fetches titles and extracts those tokens for
// comparison against curated metadata.
package registry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/x-consortia/donor-curator/internal/platform/remote"
	"github.com/x-consortia/donor-curator/internal/upstream/entity"
)

const defaultBaseURL = "https://api.datacite.org/dois"

// pageSize is DataCite's maximum page[size].
const pageSize = 1000

// DOITitle pairs a DOI with the first title DataCite records for it.
type DOITitle struct {
	DOI   string
	Title string
}

type Config struct {
	// BaseURL defaults to the public DataCite API when empty.
	BaseURL string
}

type Client struct {
	base string
	http *remote.Client
	log  zerolog.Logger
}

func NewClient(cfg Config, httpClient *remote.Client, logger zerolog.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{base: base, http: httpClient, log: logger.With().Str("component", "datacite").Logger()}
}

// clientID maps a consortium to its DataCite client account.
func clientID(consortium entity.Consortium) string {
	if consortium == entity.ConsortiumSenNet {
		return "psc.sennet"
	}
	return "psc.hubmap"
}

type doiAttributes struct {
	Titles []struct {
		Title string `json:"title"`
	} `json:"titles"`
}

type doiRecord struct {
	ID         string        `json:"id"`
	Attributes doiAttributes `json:"attributes"`
}

// Title returns the first title of a single DOI. doi may be either a bare
// DOI or a full https://doi.org/ URL.
func (c *Client) Title(ctx context.Context, doi string) (string, error) {
	url := fmt.Sprintf("%s/%s", c.base, TrimDOIURL(doi))

	var payload struct {
		Data doiRecord `json:"data"`
	}
	status, raw, err := c.http.DoJSON(ctx, http.MethodGet, url, nil, nil, &payload)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", &remote.Error{Kind: remote.KindNotFound, Status: status,
			Message: fmt.Sprintf("DOI %s not registered", doi)}
	}
	if status != http.StatusOK {
		return "", &remote.Error{Kind: remote.KindRemote, Status: status,
			Message: fmt.Sprintf("DataCite error for DOI %s: %s", doi, remote.ErrorMessage(raw))}
	}

	if len(payload.Data.Attributes.Titles) == 0 {
		return "", nil
	}
	return payload.Data.Attributes.Titles[0].Title, nil
}

// AllTitles pages through every DOI registered under the consortium's
// DataCite client and returns their titles.
func (c *Client) AllTitles(ctx context.Context, consortium entity.Consortium) ([]DOITitle, error) {
	var titles []DOITitle

	page := 1
	totalPages := 1
	for page <= totalPages {
		url := fmt.Sprintf("%s/?client-id=%s&fields[dois]=titles&page[size]=%d&page[number]=%d",
			c.base, clientID(consortium), pageSize, page)

		var payload struct {
			Data []doiRecord `json:"data"`
			Meta struct {
				TotalPages int `json:"totalPages"`
			} `json:"meta"`
		}
		status, raw, err := c.http.DoJSON(ctx, http.MethodGet, url, nil, nil, &payload)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, &remote.Error{Kind: remote.KindRemote, Status: status,
				Message: fmt.Sprintf("DataCite error on page %d: %s", page, remote.ErrorMessage(raw))}
		}

		for _, rec := range payload.Data {
			title := ""
			if len(rec.Attributes.Titles) > 0 {
				title = rec.Attributes.Titles[0].Title
			}
			titles = append(titles, DOITitle{DOI: rec.ID, Title: title})
		}

		totalPages = payload.Meta.TotalPages
		c.log.Debug().Int("page", page).Int("total_pages", totalPages).Msg("DataCite page fetched")
		page++
	}

	return titles, nil
}
