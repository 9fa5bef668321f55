/*

This file fetches monitored position snapshots. The pool API supplies the
agent's positions and pool reserves; the price API supplies the oracle
price ratios, which are joined in before validation. Every data point is
validated strictly before it reaches the IL engine; bad upstream data must
fail loudly, never flow into a decision.

*/

package datafetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/shieldvault/ilguard/internal/logger"
	"github.com/shieldvault/ilguard/internal/types"
)

var (
	ErrInvalidSnapshot = errors.New("invalid position snapshot received")
	ErrAPIFailure      = errors.New("upstream API request failed")
	ErrMissingPrice    = errors.New("no oracle price for pool")
)

const (
	MAX_RETRIES     = 3
	TIMEOUT_SECONDS = 30
)

// MonitoredPosition bundles everything one evaluation needs: the position,
// the pool it sits in, and the current oracle price ratio.
type MonitoredPosition struct {
	Position     types.LPPosition `json:"position"`
	Pool         types.PoolState  `json:"pool"`
	CurrentRatio types.AssetRatio `json:"current_ratio"`
}

type positionsResponse struct {
	Agent     string              `json:"agent"`
	Positions []MonitoredPosition `json:"positions"`
}

// Client fetches snapshots from the pool and price APIs over HTTP.
type Client struct {
	poolURL    string
	priceURL   string
	agent      string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a snapshot client for the given agent address.
func NewClient(poolURL, priceURL, agent string) (*Client, error) {
	if poolURL == "" {
		return nil, errors.New("pool API base URL cannot be empty")
	}
	if priceURL == "" {
		return nil, errors.New("price API base URL cannot be empty")
	}
	if agent == "" {
		return nil, errors.New("agent address cannot be empty")
	}
	return &Client{
		poolURL:  poolURL,
		priceURL: priceURL,
		agent:    agent,
		httpClient: &http.Client{
			Timeout: TIMEOUT_SECONDS * time.Second,
		},
		log: logger.GetForComponent("position_fetcher"),
	}, nil
}

// FetchMonitoredPositions retrieves the agent's positions from the pool
// API, joins in the oracle price ratios from the price API, and validates
// the combined snapshots.
func (c *Client) FetchMonitoredPositions() ([]MonitoredPosition, error) {
	body, err := c.getWithRetries(fmt.Sprintf("%s/v1/positions?agent=%s", c.poolURL, c.agent))
	if err != nil {
		return nil, err
	}

	var parsed positionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse positions response: %w", err)
	}

	ratios, err := c.fetchCurrentRatios()
	if err != nil {
		return nil, err
	}

	for i := range parsed.Positions {
		poolID := parsed.Positions[i].Position.PoolID
		ratio, ok := ratios[poolID]
		if !ok {
			return nil, fmt.Errorf("%w %d", ErrMissingPrice, poolID)
		}
		parsed.Positions[i].CurrentRatio = ratio
	}

	for i, mp := range parsed.Positions {
		if err := validateMonitoredPosition(mp); err != nil {
			c.log.Error().
				Err(err).
				Int("positionIndex", i).
				Uint64("poolID", uint64(mp.Position.PoolID)).
				Msg("Invalid position snapshot")
			return nil, errors.Join(ErrInvalidSnapshot, err)
		}
	}

	c.log.Info().
		Str("agent", parsed.Agent).
		Int("positions", len(parsed.Positions)).
		Msg("Position snapshots retrieved and validated")

	return parsed.Positions, nil
}

// getWithRetries performs a GET with linear backoff between attempts and
// returns the response body of the first successful attempt.
func (c *Client) getWithRetries(url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		c.log.Debug().
			Str("url", url).
			Int("attempt", attempt).
			Int("maxRetries", MAX_RETRIES).
			Msg("Requesting upstream data")

		body, err := c.getOnce(url)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if attempt < MAX_RETRIES {
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("Upstream request failed, will retry")
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	c.log.Error().Err(lastErr).Int("maxRetries", MAX_RETRIES).Msg("All retry attempts failed")
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrAPIFailure, MAX_RETRIES, lastErr)
}

func (c *Client) getOnce(url string) ([]byte, error) {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}
	return body, nil
}

// validateMonitoredPosition enforces the structural invariants the IL
// engine assumes: positive prices, positive reserves, positive LP supply,
// and a position no larger than the pool.
func validateMonitoredPosition(mp MonitoredPosition) error {
	if mp.Position.PoolID == 0 {
		return errors.New("pool ID cannot be zero")
	}
	for name, ratio := range map[string]types.AssetRatio{
		"initial": mp.Position.InitialRatio,
		"current": mp.CurrentRatio,
	} {
		if ratio.AssetAAmount.IsNil() || ratio.AssetBAmount.IsNil() {
			return fmt.Errorf("%s ratio has nil price component", name)
		}
		if !ratio.AssetAAmount.IsPositive() || !ratio.AssetBAmount.IsPositive() {
			return fmt.Errorf("%s ratio prices must be strictly positive", name)
		}
	}
	if mp.Position.InitialDeposit.IsNil() || !mp.Position.InitialDeposit.IsPositive() {
		return errors.New("initial deposit must be positive")
	}
	if mp.Position.LPTokens.IsNil() || mp.Position.LPTokens.IsNegative() {
		return errors.New("LP tokens cannot be negative")
	}
	if mp.Pool.ReserveA.IsNil() || mp.Pool.ReserveB.IsNil() || mp.Pool.ReserveA.IsNegative() || mp.Pool.ReserveB.IsNegative() {
		return errors.New("pool reserves must be non-negative")
	}
	if mp.Pool.TotalLPTokens.IsNil() || !mp.Pool.TotalLPTokens.IsPositive() {
		return errors.New("pool total LP tokens must be positive")
	}
	if mp.Position.LPTokens.GT(mp.Pool.TotalLPTokens) {
		return errors.New("position LP tokens exceed pool total")
	}
	return nil
}
