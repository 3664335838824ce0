package adjutor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Verdict is the outcome of a blacklist check. Unknown means the check could
// not be completed; the caller's policy decides how to treat it rather than
// this client silently failing open.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictClear
	VerdictBlocked
)

const (
	cachePrefix     = "adjutor:karma:v1:"
	cacheValBlocked = "blocked"
	cacheValClear   = "clear"
	requestTimeout  = 5 * time.Second
)

type karmaResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		KarmaIdentity      string  `json:"karma_identity"`
		AmountInContention float64 `json:"amount_in_contention"`
		Reason             string  `json:"reason"`
	} `json:"data"`
}

// Client checks identities against the Adjutor Karma blacklist. Definitive
// verdicts are cached in Redis so repeated registrations for the same
// identity do not re-hit the upstream API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewClient builds a Karma client. cache may be nil to disable caching.
func NewClient(baseURL, apiKey string, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Check returns the blacklist verdict for the identity (usually an email).
func (c *Client) Check(ctx context.Context, identity string) Verdict {
	if v, ok := c.cached(ctx, identity); ok {
		return v
	}

	endpoint := fmt.Sprintf("%s/v2/verification/karma/%s", c.baseURL, url.PathEscape(identity))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VerdictUnknown
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("adjutor request failed", "identity", identity, "error", err)
		return VerdictUnknown
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Identity found in the blacklist.
		var body karmaResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Data != nil {
			c.logger.Warn("blacklisted identity",
				"identity", identity,
				"reason", body.Data.Reason,
				"amount_in_contention", body.Data.AmountInContention)
		} else {
			c.logger.Warn("blacklisted identity", "identity", identity)
		}
		c.store(ctx, identity, VerdictBlocked)
		return VerdictBlocked
	case resp.StatusCode == http.StatusNotFound:
		c.store(ctx, identity, VerdictClear)
		return VerdictClear
	default:
		c.logger.Error("adjutor API error", "identity", identity, "status", resp.StatusCode)
		return VerdictUnknown
	}
}

func (c *Client) cached(ctx context.Context, identity string) (Verdict, bool) {
	if c.cache == nil {
		return VerdictUnknown, false
	}
	val, err := c.cache.Get(ctx, cachePrefix+identity).Result()
	if err != nil {
		return VerdictUnknown, false
	}
	switch val {
	case cacheValBlocked:
		return VerdictBlocked, true
	case cacheValClear:
		return VerdictClear, true
	default:
		return VerdictUnknown, false
	}
}

func (c *Client) store(ctx context.Context, identity string, v Verdict) {
	if c.cache == nil {
		return
	}
	val := cacheValClear
	if v == VerdictBlocked {
		val = cacheValBlocked
	}
	if err := c.cache.Set(ctx, cachePrefix+identity, val, c.cacheTTL).Err(); err != nil {
		c.logger.Warn("adjutor verdict cache write failed", "identity", identity, "error", err)
	}
}
