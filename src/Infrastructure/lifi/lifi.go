// Package lifi implements a strongly-typed HTTP client for the LI.FI bridge
// aggregator REST API.
//
// Coverage: route discovery (/v1/advanced/routes), same-chain and cross-chain
// quotes with executable calldata (/v1/quote), and transfer status
// (/v1/status).
//
// Notes:
//   - Routes are requested with the CHEAPEST ordering so callers can take the
//     head of the list as the best candidate.
//   - Error responses carry a {message, code} body; this client returns an
//     error enriched with that message.
//   - An API key is optional and sent as x-lifi-api-key when configured.
package lifi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Default HTTP timeouts tuned for server-side usage
var (
	DefaultHTTPClient = &http.Client{Timeout: 30 * time.Second}
)

// NewClient constructs a new API client. base should be like "https://li.quest".
func NewClient(base string, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, errors.New("base url is required")
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c := &Client{
		BaseURL:   u,
		HTTP:      DefaultHTTPClient,
		UserAgent: "spread-lifi/1.0",
		Logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Option functional options
type Option func(*Client)

func WithAPIKey(key string) Option         { return func(c *Client) { c.APIKey = key } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }
func WithUserAgent(ua string) Option       { return func(c *Client) { c.UserAgent = ua } }
func WithLogger(l zerolog.Logger) Option   { return func(c *Client) { c.Logger = l } }

type Client struct {
	BaseURL   *url.URL
	HTTP      *http.Client
	APIKey    string
	UserAgent string
	Logger    zerolog.Logger
}

type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	ChainID  int64  `json:"chainId"`
}

type Action struct {
	FromChainID int64   `json:"fromChainId"`
	ToChainID   int64   `json:"toChainId"`
	FromToken   Token   `json:"fromToken"`
	ToToken     Token   `json:"toToken"`
	FromAmount  string  `json:"fromAmount"`
	FromAddress string  `json:"fromAddress"`
	ToAddress   string  `json:"toAddress"`
	Slippage    float64 `json:"slippage"`
}

type Estimate struct {
	Tool              string  `json:"tool"`
	FromAmount        string  `json:"fromAmount"`
	ToAmount          string  `json:"toAmount"`
	ToAmountMin       string  `json:"toAmountMin"`
	ApprovalAddress   string  `json:"approvalAddress"`
	ExecutionDuration float64 `json:"executionDuration"`
}

// TransactionRequest is the calldata payload a step executes with.
type TransactionRequest struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	GasLimit string `json:"gasLimit"`
	ChainID  int64  `json:"chainId"`
}

// Step is one chain-bound execution unit of a route.
type Step struct {
	ID                 string              `json:"id"`
	Type               string              `json:"type"` // "swap", "cross", "lifi"
	Tool               string              `json:"tool"`
	Action             Action              `json:"action"`
	Estimate           Estimate            `json:"estimate"`
	TransactionRequest *TransactionRequest `json:"transactionRequest,omitempty"`
}

// Route is an ordered list of steps realizing one conversion.
type Route struct {
	ID          string   `json:"id"`
	FromChainID int64    `json:"fromChainId"`
	ToChainID   int64    `json:"toChainId"`
	FromAmount  string   `json:"fromAmount"`
	ToAmount    string   `json:"toAmount"`
	ToAmountMin string   `json:"toAmountMin"`
	Steps       []Step   `json:"steps"`
	Tags        []string `json:"tags"`
}

// Validate rejects malformed aggregator payloads before anything upstream
// inspects them.
func (r Route) Validate() error {
	if r.ID == "" {
		return errors.New("route id missing")
	}
	if len(r.Steps) == 0 {
		return errors.New("route has no steps")
	}
	if r.ToAmount == "" || r.ToAmountMin == "" {
		return errors.New("route amounts missing")
	}
	for i, s := range r.Steps {
		if s.Estimate.ApprovalAddress == "" && s.Type != "custom" {
			return fmt.Errorf("step %d: approval address missing", i)
		}
	}
	return nil
}

type RoutesRequest struct {
	FromChainID      int64          `json:"fromChainId"`
	ToChainID        int64          `json:"toChainId"`
	FromTokenAddress string         `json:"fromTokenAddress"`
	ToTokenAddress   string         `json:"toTokenAddress"`
	FromAmount       string         `json:"fromAmount"`
	FromAddress      string         `json:"fromAddress,omitempty"`
	ToAddress        string         `json:"toAddress,omitempty"`
	Options          *RouteOptions  `json:"options,omitempty"`
}

type RouteOptions struct {
	Order    string  `json:"order,omitempty"` // CHEAPEST | FASTEST
	Slippage float64 `json:"slippage,omitempty"`
}

type routesResponse struct {
	Routes []Route `json:"routes"`
}

// GetRoutes queries candidate routes, cheapest first. A successful call with
// zero routes is a normal outcome the caller maps to its own "no route"
// error.
func (c *Client) GetRoutes(ctx context.Context, req RoutesRequest) ([]Route, error) {
	if req.Options == nil {
		req.Options = &RouteOptions{Order: "CHEAPEST"}
	} else if req.Options.Order == "" {
		req.Options.Order = "CHEAPEST"
	}
	var out routesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/advanced/routes", nil, req, &out); err != nil {
		return nil, err
	}
	for _, r := range out.Routes {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("invalid route %s: %w", r.ID, err)
		}
	}
	return out.Routes, nil
}

type QuoteRequest struct {
	FromChainID int64
	ToChainID   int64
	FromToken   string
	ToToken     string
	FromAmount  string
	FromAddress string
	Slippage    float64
}

// GetQuote returns a single executable step (including calldata) for the
// requested conversion. Also used for same-chain swaps, where fromChain ==
// toChain.
func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (*Step, error) {
	q := url.Values{}
	q.Set("fromChain", fmt.Sprintf("%d", req.FromChainID))
	q.Set("toChain", fmt.Sprintf("%d", req.ToChainID))
	q.Set("fromToken", req.FromToken)
	q.Set("toToken", req.ToToken)
	q.Set("fromAmount", req.FromAmount)
	q.Set("fromAddress", req.FromAddress)
	if req.Slippage > 0 {
		q.Set("slippage", fmt.Sprintf("%g", req.Slippage))
	}

	var step Step
	if err := c.do(ctx, http.MethodGet, "/v1/quote", q, nil, &step); err != nil {
		return nil, err
	}
	if step.TransactionRequest == nil {
		return nil, errors.New("quote missing transaction request")
	}
	return &step, nil
}

type StatusResponse struct {
	Status     string `json:"status"` // PENDING | DONE | FAILED
	SubStatus  string `json:"substatus"`
	Tool       string `json:"tool"`
	Sending    TxInfo `json:"sending"`
	Receiving  TxInfo `json:"receiving"`
}

type TxInfo struct {
	TxHash  string `json:"txHash"`
	ChainID int64  `json:"chainId"`
	Amount  string `json:"amount"`
}

// GetStatus reports delivery progress of a bridge transfer's destination leg.
func (c *Client) GetStatus(ctx context.Context, tool string, fromChainID, toChainID int64, txHash string) (*StatusResponse, error) {
	q := url.Values{}
	q.Set("bridge", tool)
	q.Set("fromChain", fmt.Sprintf("%d", fromChainID))
	q.Set("toChain", fmt.Sprintf("%d", toChainID))
	q.Set("txHash", txHash)

	var out StatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/status", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (c *Client) do(ctx context.Context, method, p string, q url.Values, body, out any) error {
	u := *c.BaseURL
	u.Path = path.Join(u.Path, p)
	u.RawQuery = q.Encode()

	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("x-lifi-api-key", c.APIKey)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	evt := c.Logger.Info().
		Str("method", method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Str("duration", time.Since(start).String())
	// Truncating raw JSON at a byte boundary would corrupt the log line, so
	// oversized bodies are logged as a plain string instead.
	if len(b) > maxLoggedBody {
		evt = evt.Str("response", string(b[:maxLoggedBody])+"...").Int("response_bytes", len(b))
	} else {
		evt = evt.RawJSON("response", b)
	}
	evt.Msg("lifi response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("lifi api error %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("http error %d: %s", resp.StatusCode, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("unmarshal result: %w", err)
	}
	return nil
}

// maxLoggedBody bounds how much of a response body ends up in one log line.
const maxLoggedBody = 2048
