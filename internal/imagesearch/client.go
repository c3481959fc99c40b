// Package imagesearch finds the first image for a query through the Google
// Custom Search JSON API, with a SQLite cache and request deduplication.
package imagesearch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/garyellow/whattoeat-linebot/internal/apiclient"
	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
	"github.com/garyellow/whattoeat-linebot/internal/storage"
)

// DefaultBaseURL is the Custom Search JSON API endpoint.
const DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// CacheName labels menu cache metrics.
const CacheName = "menu"

// Store persists query to link mappings. *storage.DB implements it.
type Store interface {
	GetMenuLink(ctx context.Context, query string) (*storage.MenuLink, error)
	SaveMenuLink(ctx context.Context, query, link string) error
}

type searchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
}

// Client is a Custom Search image client.
type Client struct {
	api            *apiclient.Client
	apiKey         string
	searchEngineID string
	baseURL        string
	store          Store // nil disables caching
	metrics        *metrics.Metrics
	group          singleflight.Group
}

// NewClient creates an image search client. store and m may be nil.
func NewClient(api *apiclient.Client, apiKey, searchEngineID, baseURL string, store Store, m *metrics.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		api:            api,
		apiKey:         apiKey,
		searchEngineID: searchEngineID,
		baseURL:        baseURL,
		store:          store,
		metrics:        m,
	}
}

// SearchImage returns the link of the first image result for query.
// Zero results yield errors.ErrNoResults.
func (c *Client) SearchImage(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: empty image query", domerrors.ErrInvalidInput)
	}

	if link, ok := c.cached(ctx, query); ok {
		return link, nil
	}

	v, err, shared := c.group.Do(query, func() (any, error) {
		link, err := c.fetch(ctx, query)
		if err != nil {
			return "", err
		}
		c.save(ctx, query, link)
		return link, nil
	})
	if shared && c.metrics != nil {
		c.metrics.RecordSingleflightDedup("imagesearch")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) fetch(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.searchEngineID)
	q.Set("q", query)
	q.Set("searchType", "image")
	q.Set("num", "1")
	q.Set("alt", "json")

	var resp searchResponse
	if err := c.api.GetJSON(ctx, c.baseURL+"?"+q.Encode(), &resp); err != nil {
		return "", fmt.Errorf("image search: %w", err)
	}
	for _, item := range resp.Items {
		if item.Link != "" {
			return item.Link, nil
		}
	}
	return "", fmt.Errorf("image search %q: %w", query, domerrors.ErrNoResults)
}

func (c *Client) cached(ctx context.Context, query string) (string, bool) {
	if c.store == nil {
		return "", false
	}
	ml, err := c.store.GetMenuLink(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "Menu link cache read failed", "query", query, "error", err)
	}
	if ml == nil {
		c.recordCache(false)
		return "", false
	}
	c.recordCache(true)
	return ml.Link, true
}

func (c *Client) save(ctx context.Context, query, link string) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveMenuLink(ctx, query, link); err != nil {
		slog.WarnContext(ctx, "Menu link cache write failed", "query", query, "error", err)
	}
}

func (c *Client) recordCache(hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.RecordCacheHit(CacheName)
	} else {
		c.metrics.RecordCacheMiss(CacheName)
	}
}

// SearchPageURL links to a Google Images results page for query. Used when
// the API has no result so the user can still browse.
func SearchPageURL(query string) string {
	q := url.Values{}
	q.Set("tbm", "isch")
	q.Set("q", query)
	return "https://www.google.com/search?" + q.Encode()
}
