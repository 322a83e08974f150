// Package api talks to the blog backend over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"edublog/internal/domain"
)

const maxBodySize = 4 << 20

// Config holds backend client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// TokenSource yields the bearer token for outgoing requests. An empty token
// means the request is sent anonymously.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client is a thin request/response wrapper around the backend REST API.
// It never retries: every retry is a user action.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	tokens     TokenSource
	logger     *slog.Logger
}

// New creates a new backend client. tokens may be nil for anonymous use.
func New(cfg Config, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		tokens:    tokens,
		logger:    logger.With("component", "api"),
	}
}

// ListPosts fetches the post listing. page is sent as a hint only; the
// backend may ignore it. A body that is not a list yields no posts.
func (c *Client) ListPosts(ctx context.Context, page int) ([]domain.Post, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}

	body, err := c.do(ctx, http.MethodGet, "/posts", query, nil)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	payloads, ok := decodeList[postPayload](body)
	if !ok {
		c.logger.Warn("listing is not a post array, treating as empty",
			"page", page,
			"bytes", len(body),
		)
		return []domain.Post{}, nil
	}

	c.logger.Debug("fetched posts", "page", page, "posts", len(payloads))

	return c.transformPosts(payloads), nil
}

func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var p postPayload
	if err := c.doJSON(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("get post %s: %w", id, notFound("post not found"))
	}

	post := c.transformPost(p)
	return &post, nil
}

func (c *Client) CreatePost(ctx context.Context, title, body, author string) (*domain.Post, error) {
	req := createPostRequest{Title: title, Body: body, Author: author}

	var p postPayload
	if err := c.doJSON(ctx, http.MethodPost, "/posts", req, &p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	post := c.transformPost(p)
	return &post, nil
}

func (c *Client) UpdatePost(ctx context.Context, id, title, body string) (*domain.Post, error) {
	req := updatePostRequest{Title: title, Body: body}

	var p postPayload
	if err := c.doJSON(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), req, &p); err != nil {
		return nil, fmt.Errorf("update post %s: %w", id, err)
	}

	post := c.transformPost(p)
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return nil
}

// LikePost increments the like counter and returns the new value.
func (c *Client) LikePost(ctx context.Context, id string) (int, error) {
	var resp likeResponse
	if err := c.doJSON(ctx, http.MethodPatch, "/posts/"+url.PathEscape(id)+"/like", nil, &resp); err != nil {
		return 0, fmt.Errorf("like post %s: %w", id, err)
	}
	return resp.Likes, nil
}

func (c *Client) AddComment(ctx context.Context, id, body string) (*domain.Comment, error) {
	var resp commentPayload
	if err := c.doJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(id)+"/comments", commentPayload{Body: body}, &resp); err != nil {
		return nil, fmt.Errorf("comment on post %s: %w", id, err)
	}
	if resp.Body == "" {
		resp.Body = body
	}
	return &domain.Comment{Body: resp.Body}, nil
}

func (c *Client) Login(ctx context.Context, email, secret string) (*domain.LoginResult, error) {
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/accounts/login", loginRequest{Email: email, Secret: secret}, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login: %w", &domain.APIError{
			Kind:    domain.ErrServer,
			Status:  http.StatusOK,
			Message: "login response carried no token",
		})
	}

	return &domain.LoginResult{
		Token: resp.Token,
		Name:  resp.Name,
		Email: resp.Email,
	}, nil
}

func (c *Client) Register(ctx context.Context, name, email, secret string) (*domain.Account, error) {
	req := accountRequest{Name: name, Email: email, Secret: &secret}

	var a accountPayload
	if err := c.doJSON(ctx, http.MethodPost, "/accounts/register", req, &a); err != nil {
		return nil, fmt.Errorf("register account: %w", err)
	}

	account := transformAccount(a)
	return &account, nil
}

// ListAccounts fetches every account. A body that is not a list yields none.
func (c *Client) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	body, err := c.do(ctx, http.MethodGet, "/accounts", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	payloads, ok := decodeList[accountPayload](body)
	if !ok {
		c.logger.Warn("listing is not an account array, treating as empty",
			"bytes", len(body),
		)
		return []domain.Account{}, nil
	}

	accounts := make([]domain.Account, 0, len(payloads))
	for _, a := range payloads {
		accounts = append(accounts, transformAccount(a))
	}
	return accounts, nil
}

func (c *Client) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var a accountPayload
	if err := c.doJSON(ctx, http.MethodGet, "/accounts/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	if a.ID == "" {
		return nil, fmt.Errorf("get account %s: %w", id, notFound("account not found"))
	}

	account := transformAccount(a)
	return &account, nil
}

// UpdateAccount patches name and email; secret is only sent when non-nil.
func (c *Client) UpdateAccount(ctx context.Context, id, name, email string, secret *string) (*domain.Account, error) {
	req := accountRequest{Name: name, Email: email, Secret: secret}

	var a accountPayload
	if err := c.doJSON(ctx, http.MethodPatch, "/accounts/"+url.PathEscape(id), req, &a); err != nil {
		return nil, fmt.Errorf("update account %s: %w", id, err)
	}

	account := transformAccount(a)
	return &account, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/accounts/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return nil
}

// doJSON performs the request and decodes a JSON body into out. A body that
// cannot be decoded is reported as not found.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := c.do(ctx, method, path, nil, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("malformed response",
			"method", method,
			"path", path,
			"error", err,
		)
		return notFound("malformed response")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("read session token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.APIError{Kind: domain.ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, &domain.APIError{Kind: domain.ErrNetwork, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxBodySize {
		c.logger.Warn("response too large",
			"method", method,
			"path", path,
			"limit", maxBodySize,
		)
		return nil, &domain.APIError{Kind: domain.ErrServer, Status: resp.StatusCode, Message: "response too large"}
	}

	c.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, statusError(resp.StatusCode, body)
	}

	return body, nil
}

func statusError(status int, body []byte) *domain.APIError {
	var payload errorResponse
	_ = json.Unmarshal(body, &payload)

	apiErr := &domain.APIError{Status: status, Message: payload.Message}
	switch {
	case status == http.StatusUnauthorized:
		apiErr.Kind = domain.ErrUnauthorized
	case status == http.StatusNotFound:
		apiErr.Kind = domain.ErrNotFound
	case status < http.StatusInternalServerError:
		apiErr.Kind = domain.ErrValidation
	default:
		apiErr.Kind = domain.ErrServer
	}
	return apiErr
}

func notFound(message string) *domain.APIError {
	return &domain.APIError{Kind: domain.ErrNotFound, Message: message}
}

// IsUnauthorized reports whether err means the caller must log in again.
func IsUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
