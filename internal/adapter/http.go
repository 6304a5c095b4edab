// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MarcoDecco/spacefy-mobile/internal/config"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/utils"
	"github.com/MarcoDecco/spacefy-mobile/models"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const requestIDHeader = "X-Request-ID"

type httpServerAdapter struct {
	client    *utils.HTTPClient
	requestID *utils.UUIDGenerator

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of [ServerAdapter].
// It normalises and validates the base URL from adapterCfg.HTTPAddress and
// configures the underlying HTTP client with the resolved base URL and request
// timeout.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, log *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	return &httpServerAdapter{
		client:    utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout),
		requestID: utils.NewUUIDGenerator(),
		logger:    log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerAdapter]. It stores token (whitespace-trimmed) for
// use in the Authorization header of later authenticated requests.
func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [ServerAdapter].
func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Login implements [ServerAdapter]. It POSTs the credentials to
// POST /auth/login. The token is read from the response body, or from the
// Authorization response header when the body has none. The user id is read
// from the body, or from the "sub" claim of the token.
func (h *httpServerAdapter) Login(ctx context.Context, creds models.Credentials) (models.AuthResult, error) {
	var body models.LoginResponse

	resp, err := h.request(ctx, "").
		SetHeader("Content-Type", "application/json").
		SetBody(models.LoginRequest(creds)).
		Post("/auth/login")
	if err != nil {
		return models.AuthResult{}, mapTransportError("login", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.AuthResult{}, err
	}
	if err = decodeBody(resp, &body); err != nil {
		return models.AuthResult{}, fmt.Errorf("decode login response: %w", err)
	}

	token := strings.TrimSpace(body.Token)
	if token == "" {
		if token, err = utils.ParseBearerToken(resp.Header().Get("Authorization")); err != nil {
			return models.AuthResult{}, fmt.Errorf("login: %w", ErrMissingToken)
		}
	}

	userID := strings.TrimSpace(body.User.ID)
	if userID == "" {
		if userID, err = utils.SubjectFromJWT(token); err != nil {
			h.logger.Err(err).Str("func", "httpServerAdapter.Login").Msg("no user id in login response")
			return models.AuthResult{}, fmt.Errorf("login user id: %w", err)
		}
	}

	email := body.User.Email
	if email == "" {
		email = creds.Email
	}

	h.SetToken(token)
	return models.AuthResult{UserID: userID, Email: email, Token: token}, nil
}

// GetFavorites implements [ServerAdapter].
func (h *httpServerAdapter) GetFavorites(ctx context.Context, userID, token string) ([]models.Space, error) {
	var favorites []models.RemoteFavorite

	resp, err := h.request(ctx, token).
		SetPathParam("userId", userID).
		Get("/users/favorites/{userId}")
	if err != nil {
		return nil, mapTransportError("get favorites", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	if err = decodeBody(resp, &favorites); err != nil {
		return nil, fmt.Errorf("decode favorites response: %w", err)
	}

	spaces := make([]models.Space, 0, len(favorites))
	for _, f := range favorites {
		if f.SpaceID.ID == "" {
			continue
		}
		spaces = append(spaces, f.SpaceID)
	}
	return spaces, nil
}

// ToggleFavorite implements [ServerAdapter].
func (h *httpServerAdapter) ToggleFavorite(ctx context.Context, userID, spaceID, token string) (bool, error) {
	var result models.ToggleFavoriteResponse

	resp, err := h.request(ctx, token).
		SetHeader("Content-Type", "application/json").
		SetPathParam("userId", userID).
		SetBody(models.ToggleFavoriteRequest{SpaceID: spaceID}).
		Post("/users/{userId}/favorite")
	if err != nil {
		return false, mapTransportError("toggle favorite", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return false, err
	}
	if err = decodeBody(resp, &result); err != nil {
		return false, fmt.Errorf("decode toggle favorite response: %w", err)
	}

	return result.IsFavorited, nil
}

// ListSpaces implements [ServerAdapter].
func (h *httpServerAdapter) ListSpaces(ctx context.Context) ([]models.Space, error) {
	var spaces []models.Space

	resp, err := h.request(ctx, "").
		Get("/spaces")
	if err != nil {
		return nil, mapTransportError("list spaces", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}
	if err = decodeBody(resp, &spaces); err != nil {
		return nil, fmt.Errorf("decode spaces response: %w", err)
	}

	return spaces, nil
}

// GetSpace implements [ServerAdapter].
func (h *httpServerAdapter) GetSpace(ctx context.Context, id string) (models.Space, error) {
	var space models.Space

	resp, err := h.request(ctx, "").
		SetPathParam("id", id).
		Get("/spaces/{id}")
	if err != nil {
		return models.Space{}, mapTransportError("get space", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Space{}, err
	}
	if err = decodeBody(resp, &space); err != nil {
		return models.Space{}, fmt.Errorf("decode space response: %w", err)
	}

	return space, nil
}

// request prepares a request carrying a fresh X-Request-ID and, when
// available, the bearer token. An empty token falls back to the stored one.
func (h *httpServerAdapter) request(ctx context.Context, token string) *resty.Request {
	req := h.client.R().
		SetContext(ctx).
		SetHeader(requestIDHeader, h.requestID.Generate())

	if token = strings.TrimSpace(token); token == "" {
		token = h.Token()
	}
	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// decodeBody unmarshals a JSON response body into v. An empty body leaves v
// untouched.
func decodeBody(resp *resty.Response, v any) error {
	if len(resp.Body()) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Body(), v)
}
