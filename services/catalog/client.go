// Package catalog talks to the external catalog provider. The provider owns
// all content metadata (titles, artwork, genres); this engine only reads it.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"reelay/models"
)

// Provider is the catalog surface the aggregators consume. Implemented by
// *Client; tests substitute fakes.
type Provider interface {
	Details(ctx context.Context, contentID string, contentType models.ContentType) (*models.Title, error)
	Trending(ctx context.Context, contentType models.ContentType) ([]models.Title, error)
	DiscoverByGenre(ctx context.Context, genre string, contentType models.ContentType) ([]models.Title, error)
}

var ErrNotConfigured = errors.New("catalog api key not configured")

// Client is an HTTP client for the catalog provider's REST API.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	httpc    *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

var _ Provider = (*Client)(nil)

func NewClient(baseURL, apiKey, language string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:      strings.TrimSpace(apiKey),
		language:    strings.TrimSpace(language),
		httpc:       httpc,
		minInterval: 20 * time.Millisecond,
	}
}

func (c *Client) isConfigured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

type retryableStatusError struct {
	status string
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("catalog request failed: %s", e.status)
}

// doGET performs a rate-limited GET, retrying 429s and server errors with
// backoff. 4xx responses other than 429 fail immediately.
func (c *Client) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	if !c.isConfigured() {
		return ErrNotConfigured
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if c.language != "" {
		query.Set("language", c.language)
	}

	return retry.Do(
		func() error {
			c.throttleMu.Lock()
			since := time.Since(c.lastRequest)
			if since < c.minInterval {
				time.Sleep(c.minInterval - since)
			}
			c.lastRequest = time.Now()
			c.throttleMu.Unlock()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return &retryableStatusError{status: resp.Status}
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("catalog request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

type titlePayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Overview    string   `json:"overview"`
	MediaType   string   `json:"mediaType"`
	Year        int      `json:"year"`
	Genres      []string `json:"genres"`
	PosterURL   string   `json:"posterUrl"`
	BackdropURL string   `json:"backdropUrl"`
	Popularity  float64  `json:"popularity"`
}

type listPayload struct {
	Results []titlePayload `json:"results"`
}

// Details fetches a single title by the catalog's content id.
func (c *Client) Details(ctx context.Context, contentID string, contentType models.ContentType) (*models.Title, error) {
	endpoint, err := url.JoinPath(c.baseURL, "titles", string(contentType), contentID)
	if err != nil {
		return nil, err
	}

	var payload titlePayload
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	title := mapTitle(payload, contentType)
	return &title, nil
}

// Trending fetches the provider's generic trending list for one media type.
func (c *Client) Trending(ctx context.Context, contentType models.ContentType) ([]models.Title, error) {
	endpoint, err := url.JoinPath(c.baseURL, "trending", string(contentType))
	if err != nil {
		return nil, err
	}

	var payload listPayload
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	return mapTitles(payload.Results, contentType), nil
}

// DiscoverByGenre queries the provider for titles carrying the given genre.
func (c *Client) DiscoverByGenre(ctx context.Context, genre string, contentType models.ContentType) ([]models.Title, error) {
	endpoint, err := url.JoinPath(c.baseURL, "discover", string(contentType))
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("genre", strings.TrimSpace(genre))

	var payload listPayload
	if err := c.doGET(ctx, endpoint, query, &payload); err != nil {
		return nil, err
	}
	return mapTitles(payload.Results, contentType), nil
}

func mapTitles(payloads []titlePayload, contentType models.ContentType) []models.Title {
	titles := make([]models.Title, 0, len(payloads))
	for _, p := range payloads {
		titles = append(titles, mapTitle(p, contentType))
	}
	return titles
}

func mapTitle(p titlePayload, fallbackType models.ContentType) models.Title {
	mediaType := fallbackType
	if parsed, ok := models.ParseContentType(p.MediaType); ok {
		mediaType = parsed
	}

	title := models.Title{
		ID:         p.ID,
		Name:       p.Name,
		Overview:   p.Overview,
		MediaType:  mediaType,
		Year:       p.Year,
		Genres:     p.Genres,
		Popularity: p.Popularity,
	}
	if poster := strings.TrimSpace(p.PosterURL); poster != "" {
		title.Poster = &models.Image{URL: poster, Type: "poster"}
	}
	if backdrop := strings.TrimSpace(p.BackdropURL); backdrop != "" {
		title.Backdrop = &models.Image{URL: backdrop, Type: "backdrop"}
	}
	return title
}
