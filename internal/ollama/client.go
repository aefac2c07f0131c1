// Package ollama is a thin client for an Ollama-compatible inference server.
// It performs one synchronous POST per operation; deadlines ride the context.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reviewd/pkg/types"
)

// DefaultEndpoint is where a stock Ollama install listens.
const DefaultEndpoint = "http://localhost:11434"

// Config carries the injected connection settings.
type Config struct {
	// Endpoint is the base URL of the inference server, e.g. http://localhost:11434.
	Endpoint string
	// Model is the model name sent with every request.
	Model string
	// RequestTimeout bounds a whole chat call. Zero disables the bound.
	RequestTimeout time.Duration
	// ConnectTimeout bounds dialing the server.
	ConnectTimeout time.Duration
}

// Client talks to the inference server. Safe for concurrent use: the
// configuration is immutable and the transport pools connections.
type Client struct {
	baseURL    string
	model      string
	reqTimeout time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

// New constructs a Client from cfg. Empty Endpoint falls back to
// DefaultEndpoint; ConnectTimeout defaults to 10s.
func New(cfg Config, log zerolog.Logger) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0 on the client: every request carries a context-based
	// deadline applied in Chat, so a hung server cannot block forever while
	// callers remain free to set longer budgets per call.
	cli := &http.Client{Transport: tr, Timeout: 0}
	return &Client{
		baseURL:    strings.TrimRight(endpoint, "/"),
		model:      cfg.Model,
		reqTimeout: cfg.RequestTimeout,
		httpClient: cli,
		log:        log,
	}
}

// Chat sends the ordered turns to the server and returns the reply content.
// Exactly one POST is issued; the body is the JSON serialization of the
// payload. Transport failures and non-2xx statuses come back as upstream
// errors.
func (c *Client) Chat(ctx context.Context, messages []types.ChatMessage) (string, error) {
	if c.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.reqTimeout)
		defer cancel()
	}

	payload := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Translate context timeouts/cancels
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.log.Error().Err(err).Str("url", req.URL.String()).Msg("chat request failed")
		return "", ErrUpstream("inference server unreachable: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error().Int("status", resp.StatusCode).Str("body", string(b)).Msg("chat request rejected")
		return "", ErrUpstream("inference server http error: " + resp.Status + ": " + string(b))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.log.Error().Err(err).Msg("chat response decode failed")
		return "", ErrUpstream("decoding inference response: " + err.Error())
	}
	if out.Error != "" {
		return "", ErrUpstream("inference server error: " + out.Error)
	}
	c.log.Debug().Str("model", out.Model).Dur("dur", time.Since(start)).Msg("chat ok")
	return out.Message.Content, nil
}

// Ping checks that the server answers at its base URL. Ollama replies 200
// with a short banner; any 2xx counts as alive.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ErrUpstream("inference server unreachable: " + err.Error())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ErrUpstream("inference server status: " + resp.Status)
	}
	return nil
}

// Generate wraps prompt in a single user turn and returns the reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []types.ChatMessage{{Role: types.RoleUser, Content: prompt}})
}
