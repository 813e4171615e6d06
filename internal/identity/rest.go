package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"authgate/internal/platform/config"
)

// RESTClient talks to the external identity provider over HTTPS. Decisions
// come back as JSON; failed ones carry an error envelope whose code feeds the
// gateway's translator. With a JWKS URL configured, ID tokens on successful
// responses are verified before the subject is trusted.
type RESTClient struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	verifier *Verifier
	logger   *slog.Logger
	tracer   trace.Tracer
}

// RESTOption customizes the REST client.
type RESTOption func(*RESTClient)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(r *RESTClient) { r.client = c }
}

// WithVerifier installs a pre-built ID token verifier, mainly for tests.
func WithVerifier(v *Verifier) RESTOption {
	return func(r *RESTClient) { r.verifier = v }
}

// NewRESTClient builds a provider client from config. The context bounds the
// initial JWKS fetch when a JWKS URL is configured.
func NewRESTClient(ctx context.Context, cfg config.Provider, logger *slog.Logger, opts ...RESTOption) (*RESTClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("provider url required")
	}

	c := &RESTClient{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		tracer:  otel.Tracer("authgate/internal/identity"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.verifier == nil && cfg.JWKSURL != "" {
		v, err := NewVerifier(ctx, cfg.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("build token verifier: %w", err)
		}
		c.verifier = v
	}

	return c, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type federatedRequest struct {
	Provider string `json:"provider"`
}

type revokeRequest struct {
	UserID string `json:"user_id"`
}

// accountResponse is the provider's success envelope.
type accountResponse struct {
	UserID  string `json:"user_id"`
	IDToken string `json:"id_token"`
}

// errorEnvelope is the provider's failure envelope. Code values line up with
// FailureCode; unknown codes pass through for the translator to default.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *RESTClient) Register(ctx context.Context, email, password string) (Identity, error) {
	return c.account(ctx, "register", "/v1/accounts/register", credentialsRequest{Email: email, Password: password})
}

func (c *RESTClient) AuthenticatePassword(ctx context.Context, email, password string) (Identity, error) {
	return c.account(ctx, "authenticate", "/v1/accounts/authenticate", credentialsRequest{Email: email, Password: password})
}

func (c *RESTClient) AuthenticateFederated(ctx context.Context) (Identity, error) {
	return c.account(ctx, "authenticate_federated", "/v1/accounts/federated", federatedRequest{Provider: "google"})
}

func (c *RESTClient) RevokeSession(ctx context.Context, userID string) error {
	var sink struct{}
	return c.post(ctx, "revoke_session", "/v1/sessions/revoke", revokeRequest{UserID: userID}, &sink)
}

// account runs one credential operation and resolves the returned identity.
func (c *RESTClient) account(ctx context.Context, op, path string, payload any) (Identity, error) {
	var resp accountResponse
	if err := c.post(ctx, op, path, payload, &resp); err != nil {
		return Identity{}, err
	}

	userID := resp.UserID
	if c.verifier != nil {
		sub, err := c.verifier.Subject(resp.IDToken)
		if err != nil {
			c.logger.WarnContext(ctx, "provider id token rejected", "operation", op, "error", err)
			return Identity{}, WrapProviderError(err, FailureUnavailable, "identity provider returned an unverifiable token")
		}
		if userID == "" {
			userID = sub
		} else if sub != userID {
			return Identity{}, NewProviderError(FailureUnavailable, "identity provider token subject mismatch")
		}
	}

	if userID == "" {
		return Identity{}, NewProviderError(FailureUnavailable, "identity provider response missing user id")
	}
	return Identity{UserID: userID}, nil
}

// post sends one JSON request and decodes the reply into out. Failed provider
// decisions come back as *ProviderError; transport trouble maps to
// FailureUnavailable.
func (c *RESTClient) post(ctx context.Context, op, path string, payload, out any) error {
	ctx, span := c.tracer.Start(ctx, "identity."+op,
		trace.WithAttributes(attribute.String("identity.operation", op)))
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return WrapProviderError(err, FailureUnavailable, "encode provider request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return WrapProviderError(err, FailureUnavailable, "build provider request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		c.logger.WarnContext(ctx, "identity provider unreachable", "operation", op, "error", err)
		return WrapProviderError(err, FailureUnavailable, "identity provider unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		span.RecordError(err)
		return WrapProviderError(err, FailureUnavailable, "read provider response")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.Unmarshal(raw, out); err != nil {
			span.RecordError(err)
			return WrapProviderError(err, FailureUnavailable, "decode provider response")
		}
		return nil
	}

	span.SetAttributes(attribute.Int("identity.status", resp.StatusCode))

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" || resp.StatusCode >= 500 {
		c.logger.WarnContext(ctx, "identity provider error", "operation", op, "status", resp.StatusCode)
		return NewProviderError(FailureUnavailable, "identity provider error")
	}

	return NewProviderError(FailureCode(envelope.Error.Code), envelope.Error.Message)
}

var _ Provider = (*RESTClient)(nil)
