package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/reelrate/internal/domain"
)

// Messages carried by APIError for failures that have no HTTP status text.
const (
	MessageEmptyResponse = "empty response"
	MessageUnprocessable = "could not process response"
	MessageNotFound      = "movie not found"
)

// ErrMovieNotFound is returned by Details when OMDb has no such title.
var ErrMovieNotFound = &APIError{Message: MessageNotFound}

// TransportError means the request never completed: DNS, dial, timeout or a
// dropped connection. Retrying later may succeed.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "omdb: network error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError means OMDb answered but the answer is a failure. StatusCode is
// zero when the failure was signalled inside a 200 body.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return "omdb: " + e.Message
	}
	return fmt.Sprintf("omdb: %s (status %d)", e.Message, e.StatusCode)
}

// Is matches APIErrors by message and code so ErrMovieNotFound works with
// errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Message == t.Message && e.StatusCode == t.StatusCode
}

// Client queries the OMDb movie database.
type Client interface {
	Search(ctx context.Context, title string) ([]domain.SearchResult, error)
	Details(ctx context.Context, imdbID string) (*domain.MovieDetails, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient constructs a new HTTP-backed OMDb client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger.With(zap.String("component", "omdb")),
	}, nil
}

// Search returns the titles matching title. No match is an empty result,
// not an error.
func (c *HTTPClient) Search(ctx context.Context, title string) ([]domain.SearchResult, error) {
	var payload searchResponse
	if err := c.get(ctx, "s", title, &payload); err != nil {
		return nil, err
	}
	return convertSearch(payload), nil
}

// Details returns the full record of imdbID, or ErrMovieNotFound.
func (c *HTTPClient) Details(ctx context.Context, imdbID string) (*domain.MovieDetails, error) {
	var payload detailsResponse
	if err := c.get(ctx, "i", imdbID, &payload); err != nil {
		return nil, err
	}
	if !payload.ok() {
		return nil, ErrMovieNotFound
	}
	return convertDetails(payload), nil
}

func (c *HTTPClient) get(ctx context.Context, param, value string, into any) error {
	endpoint := *c.baseURL
	if endpoint.Path == "" {
		endpoint.Path = "/"
	}
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set(param, value)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build omdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("omdb request failed", zap.String(param, value), zap.Error(err))
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("unexpected omdb status", zap.Int("status", resp.StatusCode), zap.String(param, value))
		return &APIError{Message: statusMessage(resp), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return &APIError{Message: MessageEmptyResponse, StatusCode: resp.StatusCode}
	}
	if err := json.Unmarshal(body, into); err != nil {
		c.logger.Warn("undecodable omdb response", zap.String(param, value), zap.Error(err))
		return &APIError{Message: MessageUnprocessable, StatusCode: resp.StatusCode}
	}
	return nil
}

func statusMessage(resp *http.Response) string {
	// resp.Status is "404 Not Found"; keep the reason phrase.
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return "unknown error"
}

// OMDb capitalizes its field names and encodes absent values as "N/A".
type searchResponse struct {
	Search       []searchItem `json:"Search"`
	TotalResults string       `json:"totalResults"`
	Response     string       `json:"Response"`
	Error        string       `json:"Error"`
}

type searchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type detailsResponse struct {
	ImdbID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes"`
	Type       string `json:"Type"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

func (d detailsResponse) ok() bool {
	return strings.EqualFold(d.Response, "True")
}

func convertSearch(payload searchResponse) []domain.SearchResult {
	results := []domain.SearchResult{}
	if !strings.EqualFold(payload.Response, "True") {
		return results
	}
	for _, item := range payload.Search {
		results = append(results, domain.SearchResult{
			ImdbID: item.ImdbID,
			Title:  item.Title,
			Year:   item.Year,
			Type:   item.Type,
			Poster: poster(item.Poster),
		})
	}
	return results
}

func convertDetails(d detailsResponse) *domain.MovieDetails {
	return &domain.MovieDetails{
		ImdbID:     d.ImdbID,
		Title:      d.Title,
		Year:       d.Year,
		Rated:      d.Rated,
		Released:   d.Released,
		Runtime:    d.Runtime,
		Genre:      d.Genre,
		Director:   d.Director,
		Writer:     d.Writer,
		Actors:     d.Actors,
		Plot:       d.Plot,
		Language:   d.Language,
		Country:    d.Country,
		Poster:     poster(d.Poster),
		ImdbRating: d.ImdbRating,
		ImdbVotes:  d.ImdbVotes,
		Type:       d.Type,
	}
}

func poster(v string) string {
	if v == "N/A" {
		return ""
	}
	return v
}

var _ Client = (*HTTPClient)(nil)

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
