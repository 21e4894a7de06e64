// Package daraja is a client for the Safaricom Daraja API: OAuth token
// acquisition and STK push (push-payment) initiation.
package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/vict-okello/coffee-shop/internal/clock"
	"github.com/vict-okello/coffee-shop/internal/domain"
)

const (
	SandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	ProductionBaseURL = "https://api.safaricom.co.ke"

	tokenPath = "/oauth/v1/generate?grant_type=client_credentials"
	pushPath  = "/mpesa/stkpush/v1/processrequest"

	// Tokens are refetched this long before their reported expiry so an
	// in-flight push never rides an about-to-expire token.
	tokenExpiryMargin = 30 * time.Second
)

// BaseURLForEnv maps the MPESA_ENV setting to a gateway base URL.
func BaseURLForEnv(env string) string {
	if env == "production" {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	CallbackURL    string
	// AccountRef and TransactionDesc override the defaults sent with
	// each push ("ORDER-<id>" and "Order payment").
	AccountRef      string
	TransactionDesc string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	clock      clock.Clock

	mu          sync.Mutex
	cachedToken string
	tokenExpiry time.Time
}

// NewClient builds a gateway client. The http.Client is injected so
// callers control timeouts and tests can point at a local server.
func NewClient(cfg Config, httpClient *http.Client, clk clock.Clock) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		clock:      clk,
	}
}

// Timestamp formats t the way the gateway expects (YYYYMMDDHHMMSS).
func Timestamp(t time.Time) string {
	return t.Format("20060102150405")
}

// Password derives the push request password: base64 of
// shortcode || passkey || timestamp.
func Password(shortcode, passkey string, t time.Time) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + Timestamp(t)))
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// AccessToken exchanges the consumer key/secret for a bearer token.
// A single cached token is reused until close to its expiry; the cache
// is safe for concurrent use and refetches transparently.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.cachedToken != "" && now.Before(c.tokenExpiry) {
		return c.cachedToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+tokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	body, status, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayAuth, err)
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrGatewayAuth, status, body)
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", domain.ErrGatewayAuth, err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", domain.ErrGatewayAuth)
	}

	ttl := 60 * time.Second
	if secs, err := resp.ExpiresIn.Int64(); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	if ttl > tokenExpiryMargin {
		ttl -= tokenExpiryMargin
	}
	c.cachedToken = resp.AccessToken
	c.tokenExpiry = now.Add(ttl)

	return c.cachedToken, nil
}

// PushInput is what a push needs beyond the client's own config: the
// normalized payer number, the rounded amount and the order id used in
// the account reference.
type PushInput struct {
	Phone   string
	Amount  int64
	OrderID string
}

type pushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type pushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKPush asks the gateway to prompt the payer's phone for PIN entry.
// The returned ack means "request accepted for processing", not "paid";
// the outcome arrives later on the callback URL.
func (c *Client) STKPush(ctx context.Context, token string, in PushInput) (domain.PushAck, error) {
	accountRef := c.cfg.AccountRef
	if accountRef == "" {
		accountRef = "ORDER-" + in.OrderID
	}
	desc := c.cfg.TransactionDesc
	if desc == "" {
		desc = "Order payment"
	}

	now := c.clock.Now()
	payload := pushPayload{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          Password(c.cfg.Shortcode, c.cfg.Passkey, now),
		Timestamp:         Timestamp(now),
		TransactionType:   "CustomerPayBillOnline",
		Amount:            in.Amount,
		PartyA:            in.Phone,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       in.Phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   desc,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PushAck{}, fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+pushPath, bytes.NewReader(body))
	if err != nil {
		return domain.PushAck{}, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	respBody, status, err := c.do(req)
	if err != nil {
		return domain.PushAck{}, fmt.Errorf("%w: %v", domain.ErrGatewayPush, err)
	}
	if status < 200 || status > 299 {
		return domain.PushAck{}, fmt.Errorf("%w: status %d: %s", domain.ErrGatewayPush, status, respBody)
	}

	var resp pushResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return domain.PushAck{}, fmt.Errorf("%w: decode push response: %v", domain.ErrGatewayPush, err)
	}

	message := resp.CustomerMessage
	if message == "" {
		message = resp.ResponseDescription
	}
	return domain.PushAck{
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		CustomerMessage:   message,
	}, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("httpClient.Do: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	if cerr := resp.Body.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
