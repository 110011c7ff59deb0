package sleeper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	BaseURL                  = "https://api.sleeper.app/v1"
	DefaultTimeout           = 10 * time.Second
	DefaultRequestsPerMinute = 600
)

// Client defines the interface for interacting with the Sleeper API
type Client interface {
	GetLeague(ctx context.Context, leagueID string) (*League, error)
	GetLeagueUsers(ctx context.Context, leagueID string) ([]User, error)
	GetLeagueRosters(ctx context.Context, leagueID string) ([]Roster, error)
	GetMatchups(ctx context.Context, leagueID string, week int) ([]Matchup, error)
}

// ClientOptions configures an HTTPClient. Zero values select the defaults.
type ClientOptions struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// HTTPClient implements the Client interface using HTTP requests
type HTTPClient struct {
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *logrus.Logger
}

// NewHTTPClient creates a new HTTP client for the Sleeper API. Requests are
// rate limited and pass through a circuit breaker that opens after repeated
// server-side failures.
func NewHTTPClient(opts ClientOptions, logger *logrus.Logger) *HTTPClient {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sleeper-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing league is the caller's problem, not the API's.
		IsSuccessful: func(err error) bool {
			var sleeperErr *SleeperError
			if errors.As(err, &sleeperErr) {
				return sleeperErr.StatusCode < http.StatusInternalServerError && sleeperErr.Type != ErrTypeAPI
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Sleeper API circuit breaker state changed")
		},
	})

	return &HTTPClient{
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:        rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		circuitBreaker: cb,
		logger:         logger,
	}
}

// makeRequest performs an HTTP GET request to the Sleeper API
func (c *HTTPClient) makeRequest(ctx context.Context, endpoint string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, endpoint, result)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &SleeperError{
			Type:       ErrTypeUnavailable,
			Message:    fmt.Sprintf("Sleeper API temporarily unavailable: %v", err),
			StatusCode: http.StatusServiceUnavailable,
		}
	}
	return err
}

func (c *HTTPClient) do(ctx context.Context, endpoint string, result interface{}) error {
	url := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	c.logger.WithField("url", url).Debug("Making API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("HTTP request failed")
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.WithError(err).Error("Failed to read response body")
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &SleeperError{
			Type:       ErrTypeNotFound,
			Message:    fmt.Sprintf("resource not found: %s", endpoint),
			StatusCode: resp.StatusCode,
		}
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("API request failed")

		return &SleeperError{
			Type:       ErrTypeAPI,
			Message:    fmt.Sprintf("API request failed with status %d: %s", resp.StatusCode, string(body)),
			StatusCode: resp.StatusCode,
		}
	}

	// Sleeper answers unknown IDs with 200 and a null body.
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return &SleeperError{
			Type:       ErrTypeNotFound,
			Message:    fmt.Sprintf("resource not found: %s", endpoint),
			StatusCode: http.StatusNotFound,
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		c.logger.WithError(err).WithField("body", string(body)).Error("Failed to unmarshal response")
		return &SleeperError{
			Type:       ErrTypeInvalidData,
			Message:    fmt.Sprintf("failed to unmarshal response: %v", err),
			StatusCode: resp.StatusCode,
		}
	}

	c.logger.Debug("API request completed successfully")
	return nil
}

// GetLeague retrieves comprehensive league information
func (c *HTTPClient) GetLeague(ctx context.Context, leagueID string) (*League, error) {
	endpoint := fmt.Sprintf("/league/%s", leagueID)
	var league League

	if err := c.makeRequest(ctx, endpoint, &league); err != nil {
		return nil, fmt.Errorf("failed to get league %s: %w", leagueID, withLeague(err, leagueID))
	}

	return &league, nil
}

// GetLeagueUsers retrieves all users in a league
func (c *HTTPClient) GetLeagueUsers(ctx context.Context, leagueID string) ([]User, error) {
	endpoint := fmt.Sprintf("/league/%s/users", leagueID)
	var users []User

	if err := c.makeRequest(ctx, endpoint, &users); err != nil {
		return nil, fmt.Errorf("failed to get users for league %s: %w", leagueID, withLeague(err, leagueID))
	}

	return users, nil
}

// GetLeagueRosters retrieves all rosters in a league
func (c *HTTPClient) GetLeagueRosters(ctx context.Context, leagueID string) ([]Roster, error) {
	endpoint := fmt.Sprintf("/league/%s/rosters", leagueID)
	var rosters []Roster

	if err := c.makeRequest(ctx, endpoint, &rosters); err != nil {
		return nil, fmt.Errorf("failed to get rosters for league %s: %w", leagueID, withLeague(err, leagueID))
	}

	return rosters, nil
}

// GetMatchups retrieves matchups for a specific week
func (c *HTTPClient) GetMatchups(ctx context.Context, leagueID string, week int) ([]Matchup, error) {
	endpoint := fmt.Sprintf("/league/%s/matchups/%d", leagueID, week)
	var matchups []Matchup

	if err := c.makeRequest(ctx, endpoint, &matchups); err != nil {
		return nil, fmt.Errorf("failed to get matchups for league %s week %d: %w", leagueID, week, withLeague(err, leagueID))
	}

	return matchups, nil
}

func withLeague(err error, leagueID string) error {
	var sleeperErr *SleeperError
	if errors.As(err, &sleeperErr) && sleeperErr.LeagueID == "" {
		sleeperErr.LeagueID = leagueID
	}
	return err
}
