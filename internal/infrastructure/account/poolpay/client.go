// Package poolpay talks to the PoolPay collaborator service. PoolPay owns
// account identity and season settlement state; this engine only verifies
// tokens against it and reads payout statuses from it.
package poolpay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/gridpool/pickem-league/internal/domain/settlement"
	"github.com/gridpool/pickem-league/internal/domain/user"
	"github.com/gridpool/pickem-league/internal/platform/cache"
	"github.com/gridpool/pickem-league/internal/platform/logging"
	"github.com/gridpool/pickem-league/internal/platform/resilience"
	"github.com/gridpool/pickem-league/internal/usecase"
)

const maxResponseBytes = 1 << 20

type Client struct {
	httpClient     *http.Client
	introspectURL  string
	settlementsURL string
	apiKey         string
	breaker        *resilience.CircuitBreaker
	breakerEnabled bool
	tokenCache     *cache.Store
	logger         *logging.Logger
}

func NewClient(httpClient *http.Client, baseURL, apiKey string, breakerCfg resilience.CircuitBreakerConfig, tokenCacheTTL time.Duration, logger *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg = resilience.NormalizeCircuitBreakerConfig(breakerCfg)

	return &Client{
		httpClient:     httpClient,
		introspectURL:  buildURL(baseURL, "/v1/auth/introspect"),
		settlementsURL: buildURL(baseURL, "/v1/settlements"),
		apiKey:         apiKey,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		breakerEnabled: breakerCfg.Enabled,
		tokenCache:     cache.NewStore(tokenCacheTTL),
		logger:         logger,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	cacheKey := "token:" + hashToken(token)
	if cached, ok := c.tokenCache.Get(ctx, cacheKey); ok {
		if principal, ok := cached.(user.Principal); ok {
			return principal, nil
		}
	}

	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, crerr.Wrap(err, "marshal introspect request")
	}

	body, status, err := c.post(ctx, c.introspectURL, encoded)
	if err != nil {
		return user.Principal{}, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}
	if status != http.StatusOK {
		c.logger.WarnContext(ctx, "poolpay introspection non-200", "status_code", status)
		return user.Principal{}, fmt.Errorf("%w: poolpay introspection status=%d", usecase.ErrDependencyUnavailable, status)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, crerr.Wrap(err, "unmarshal introspect response")
	}
	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, crerr.New("invalid introspect response: user_id is empty")
	}

	principal := user.Principal{
		UserID:      decoded.UserID,
		DisplayName: decoded.DisplayName,
	}
	c.tokenCache.Set(ctx, cacheKey, principal)
	return principal, nil
}

func (c *Client) StatusesBySeason(ctx context.Context, season int) (map[string]settlement.Status, error) {
	url := c.settlementsURL + "?season=" + strconv.Itoa(season)

	body, status, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.logger.WarnContext(ctx, "poolpay settlements non-200",
			"season", season,
			"status_code", status,
		)
		return nil, fmt.Errorf("%w: poolpay settlements status=%d", usecase.ErrDependencyUnavailable, status)
	}

	var decoded settlementsResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return nil, crerr.Wrap(err, "unmarshal settlements response")
	}

	out := make(map[string]settlement.Status, len(decoded.Entries))
	for _, entry := range decoded.Entries {
		if entry.UserID == "" {
			continue
		}
		out[entry.UserID] = normalizeStatus(entry.Status)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte) ([]byte, int, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf.B))
	if err != nil {
		return nil, 0, crerr.Wrap(err, "create poolpay request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, crerr.Wrap(err, "create poolpay request")
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	if c.breakerEnabled {
		if err := c.breaker.Allow(); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		return nil, 0, fmt.Errorf("%w: request poolpay: %v", usecase.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.recordFailure()
		return nil, resp.StatusCode, crerr.Wrap(err, "read poolpay response")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure()
	} else {
		c.recordSuccess()
	}
	return body, resp.StatusCode, nil
}

func (c *Client) recordFailure() {
	if c.breakerEnabled {
		c.breaker.RecordFailure()
	}
}

func (c *Client) recordSuccess() {
	if c.breakerEnabled {
		c.breaker.RecordSuccess()
	}
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active      bool   `json:"active"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type settlementsResponse struct {
	Season  int               `json:"season"`
	Entries []settlementEntry `json:"entries"`
}

type settlementEntry struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}
