// Package oracle implements ports.OracleAPI against the remote validation
// service's HTTP surface.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
	"github.com/halcyra/oracle-validator-cli/internal/ports"
)

const maxResponseBytes = 1 << 20

// Client talks to the auth and API hosts of the oracle service. One Client
// is shared by all accounts; per-proxy HTTP clients are cached internally.
type Client struct {
	AuthBaseURL    string
	APIBaseURL     string
	RequestTimeout time.Duration
	UserAgent      string

	mu          sync.Mutex
	proxyClient map[string]*http.Client
}

var _ ports.OracleAPI = (*Client)(nil)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type authErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"msg"`
}

type meResponse struct {
	Data struct {
		Email string `json:"email"`
		ID    string `json:"id"`
		Stats struct {
			ValidCount   int64 `json:"stork_signed_prices_valid_count"`
			InvalidCount int64 `json:"stork_signed_prices_invalid_count"`
		} `json:"stats"`
		LastVerifiedAt string `json:"last_verified_at"`
	} `json:"data"`
}

type signedPriceEntry struct {
	Price                json.Number `json:"price"`
	TimestampedSignature struct {
		MsgHash   string `json:"msg_hash"`
		Timestamp int64  `json:"timestamp"`
	} `json:"timestamped_signature"`
}

type signedPricesResponse struct {
	Data map[string]signedPriceEntry `json:"data"`
}

func (c *Client) Login(ctx context.Context, account domain.Account, proxy string) (domain.Session, error) {
	payload := map[string]string{"email": account.Email, "password": account.Password}
	return c.tokenGrant(ctx, "password", payload, proxy)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string, proxy string) (domain.Session, error) {
	payload := map[string]string{"refresh_token": refreshToken}
	return c.tokenGrant(ctx, "refresh_token", payload, proxy)
}

func (c *Client) tokenGrant(ctx context.Context, grantType string, payload map[string]string, proxy string) (domain.Session, error) {
	endpoint := strings.TrimRight(c.AuthBaseURL, "/") + "/token?grant_type=" + grantType

	body, status, err := c.doJSON(ctx, http.MethodPost, endpoint, payload, "", proxy)
	if err != nil {
		return domain.Session{}, err
	}
	if status < 200 || status > 299 {
		return domain.Session{}, classifyAuthStatus(grantType, status, body)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return domain.Session{}, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return domain.Session{}, errors.New("token response missing access_token")
	}

	session := domain.Session{
		AccessToken:  token.AccessToken,
		IDToken:      token.IDToken,
		RefreshToken: token.RefreshToken,
	}
	if token.ExpiresIn > 0 {
		session.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return session, nil
}

func (c *Client) AccountInfo(ctx context.Context, accessToken string, proxy string) (domain.AccountInfo, error) {
	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/v1/me"

	body, status, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, accessToken, proxy)
	if err != nil {
		return domain.AccountInfo{}, err
	}
	if status < 200 || status > 299 {
		return domain.AccountInfo{}, classifyAPIStatus(status, body)
	}

	var me meResponse
	if err := json.Unmarshal(body, &me); err != nil {
		return domain.AccountInfo{}, fmt.Errorf("decode me response: %w", err)
	}

	info := domain.AccountInfo{
		Email:  me.Data.Email,
		UserID: me.Data.ID,
		Stats: domain.StatsSnapshot{
			ValidCount:   me.Data.Stats.ValidCount,
			InvalidCount: me.Data.Stats.InvalidCount,
			CapturedAt:   time.Now(),
		},
	}
	if me.Data.LastVerifiedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, me.Data.LastVerifiedAt); err == nil {
			info.LastVerifiedAt = parsed
		}
	}
	return info, nil
}

func (c *Client) SignedPrices(ctx context.Context, accessToken string, proxy string) ([]domain.PriceRecord, error) {
	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/v1/stork_signed_prices"

	body, status, err := c.doJSON(ctx, http.MethodGet, endpoint, nil, accessToken, proxy)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, classifyAPIStatus(status, body)
	}

	var prices signedPricesResponse
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, fmt.Errorf("decode signed prices response: %w", err)
	}

	records := make([]domain.PriceRecord, 0, len(prices.Data))
	for asset, entry := range prices.Data {
		price, _ := entry.Price.Float64()
		records = append(records, domain.PriceRecord{
			Asset:     asset,
			MsgHash:   entry.TimestampedSignature.MsgHash,
			Price:     price,
			Timestamp: parseRecordTimestamp(entry.TimestampedSignature.Timestamp),
		})
	}
	return records, nil
}

func (c *Client) SubmitValidation(ctx context.Context, accessToken string, msgHash string, valid bool, proxy string) error {
	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/v1/stork_signed_prices/validations"
	payload := map[string]any{"msg_hash": msgHash, "valid": valid}

	body, status, err := c.doJSON(ctx, http.MethodPost, endpoint, payload, accessToken, proxy)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return classifyAPIStatus(status, body)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any, accessToken, proxy string) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request payload: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", c.userAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	client, err := c.clientForProxy(proxy)
	if err != nil {
		return nil, 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", domain.ErrNetworkTransient)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *Client) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return "ov/validator"
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("request timed out: %w", domain.ErrNetworkTransient)
	}
	return fmt.Errorf("perform request: %v: %w", err, domain.ErrNetworkTransient)
}

func classifyAuthStatus(grantType string, status int, body []byte) error {
	detail := authErrorDetail(body)
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s grant: %s: %w", grantType, detail, domain.ErrRateLimited)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s grant: %s: %w", grantType, detail, domain.ErrUnauthorized)
	case status == http.StatusBadRequest && grantType == "password":
		// The auth service answers invalid credentials and exceeded
		// password attempts with 400 on the password grant.
		return fmt.Errorf("%s grant: %s: %w", grantType, detail, domain.ErrCredentialRejected)
	case status >= 500:
		return fmt.Errorf("%s grant: status %d: %w", grantType, status, domain.ErrNetworkTransient)
	default:
		return fmt.Errorf("%s grant: status %d: %s", grantType, status, detail)
	}
}

func classifyAPIStatus(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %w", status, domain.ErrRateLimited)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", status, domain.ErrUnauthorized)
	case status >= 500:
		return fmt.Errorf("status %d: %w", status, domain.ErrNetworkTransient)
	default:
		return fmt.Errorf("status %d: %s", status, detail)
	}
}

func authErrorDetail(body []byte) string {
	var authErr authErrorResponse
	if err := json.Unmarshal(body, &authErr); err == nil {
		if authErr.ErrorDescription != "" {
			return authErr.ErrorDescription
		}
		if authErr.Message != "" {
			return authErr.Message
		}
		if authErr.Error != "" {
			return authErr.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// parseRecordTimestamp accepts the epoch value the API reports. Signatures
// carry nanosecond precision; older payloads used seconds.
func parseRecordTimestamp(raw int64) time.Time {
	if raw <= 0 {
		return time.Time{}
	}
	if raw > 1e15 {
		return time.Unix(0, raw)
	}
	if raw > 1e12 {
		return time.UnixMilli(raw)
	}
	return time.Unix(raw, 0)
}

// proxyBase is set by clientForProxy; split out for tests.
func parseProxyURL(proxy string) (*url.URL, error) {
	parsed, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", proxy, err)
	}
	return parsed, nil
}
