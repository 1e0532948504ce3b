// Package client is a typed Go client for the gaming community API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// transportError marks failures where no HTTP response was received.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Message == "" {
			payload.Message = fmt.Sprintf("API error: %d", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: payload.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsTransportError reports whether err means the server was never reached.
func IsTransportError(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

type messageResponse struct {
	Message string `json:"message"`
}

// Auth

func (c *Client) Signup(ctx context.Context, in SignupInput) (string, error) {
	var res messageResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", in, &res)
	return res.Message, err
}

// Login stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/user", nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *Client) UpdateMe(ctx context.Context, in UpdateUserInput) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/auth/updateUser", in, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// DeleteMe removes the account and clears the stored token.
func (c *Client) DeleteMe(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/auth/deleteUser", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Games

// ListGames falls back to the bundled sample catalog when the server cannot
// be reached. HTTP errors are returned as is.
func (c *Client) ListGames(ctx context.Context, f GameFilter) ([]Game, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Genre != "" {
		q.Set("genre", f.Genre)
	}
	if f.Platform != "" {
		q.Set("platform", f.Platform)
	}
	path := "/games"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var games []Game
	err := c.do(ctx, http.MethodGet, path, nil, &games)
	if IsTransportError(err) && ctx.Err() == nil {
		return SampleGames(), nil
	}
	return games, err
}

func (c *Client) GetGame(ctx context.Context, id string) (*Game, error) {
	var g Game
	if err := c.do(ctx, http.MethodGet, "/games/"+url.PathEscape(id), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) CreateGame(ctx context.Context, in GameInput) (*Game, error) {
	var g Game
	if err := c.do(ctx, http.MethodPost, "/games", in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) UpdateGame(ctx context.Context, id string, in GameInput) (*Game, error) {
	var g Game
	if err := c.do(ctx, http.MethodPut, "/games/"+url.PathEscape(id), in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *Client) DeleteGame(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/games/"+url.PathEscape(id), nil, nil)
}

// Communities

func (c *Client) ListCommunities(ctx context.Context) ([]Community, error) {
	var communities []Community
	err := c.do(ctx, http.MethodGet, "/community", nil, &communities)
	if IsTransportError(err) && ctx.Err() == nil {
		return SampleCommunities(), nil
	}
	return communities, err
}

func (c *Client) GetCommunity(ctx context.Context, id string) (*Community, error) {
	var res Community
	if err := c.do(ctx, http.MethodGet, "/community/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreateCommunity(ctx context.Context, in CommunityInput) (*Community, error) {
	var res Community
	if err := c.do(ctx, http.MethodPost, "/community", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) JoinCommunity(ctx context.Context, id string) (string, error) {
	var res messageResponse
	err := c.do(ctx, http.MethodPost, "/community/"+url.PathEscape(id)+"/join", nil, &res)
	return res.Message, err
}

func (c *Client) LeaveCommunity(ctx context.Context, id string) (string, error) {
	var res messageResponse
	err := c.do(ctx, http.MethodPost, "/community/"+url.PathEscape(id)+"/leave", nil, &res)
	return res.Message, err
}

// Blogs

func (c *Client) ListBlogs(ctx context.Context) ([]Blog, error) {
	var blogs []Blog
	err := c.do(ctx, http.MethodGet, "/blogs", nil, &blogs)
	if IsTransportError(err) && ctx.Err() == nil {
		return SampleBlogs(), nil
	}
	return blogs, err
}

func (c *Client) GetBlog(ctx context.Context, id string) (*Blog, error) {
	var b Blog
	if err := c.do(ctx, http.MethodGet, "/blogs/"+url.PathEscape(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) CreateBlog(ctx context.Context, in BlogInput) (*Blog, error) {
	var b Blog
	if err := c.do(ctx, http.MethodPost, "/blogs", in, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) UpdateBlog(ctx context.Context, id string, in BlogInput) (*Blog, error) {
	var b Blog
	if err := c.do(ctx, http.MethodPut, "/blogs/"+url.PathEscape(id), in, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) DeleteBlog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/blogs/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CommentBlog(ctx context.Context, id, text string) (*Comment, error) {
	var res Comment
	if err := c.do(ctx, http.MethodPost, "/blogs/"+url.PathEscape(id)+"/comment", map[string]string{"text": text}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) LikeBlog(ctx context.Context, id string) (int, error) {
	var res struct {
		Likes int `json:"likes"`
	}
	if err := c.do(ctx, http.MethodPost, "/blogs/"+url.PathEscape(id)+"/like", nil, &res); err != nil {
		return 0, err
	}
	return res.Likes, nil
}

// Admin

func (c *Client) AdminStats(ctx context.Context) (*Stats, error) {
	var res struct {
		Stats Stats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &res); err != nil {
		return nil, err
	}
	return &res.Stats, nil
}

func (c *Client) AdminUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) SetUserAdmin(ctx context.Context, id string, isAdmin bool) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	body := map[string]bool{"isAdmin": isAdmin}
	if err := c.do(ctx, http.MethodPatch, "/admin/users/"+url.PathEscape(id)+"/admin", body, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *Client) AdminDeleteGame(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/games/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AdminDeleteBlog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/blogs/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AdminDeleteCommunity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/communities/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AdminJobs(ctx context.Context) ([]string, error) {
	var res struct {
		Jobs []string `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/jobs", nil, &res); err != nil {
		return nil, err
	}
	return res.Jobs, nil
}

// AdminRunJob returns once the server has finished the job.
func (c *Client) AdminRunJob(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/admin/jobs/"+url.PathEscape(name)+"/run", nil, nil)
}

// Search returns raw hits; their shape depends on kind.
func (c *Client) Search(ctx context.Context, query, kind string) ([]json.RawMessage, error) {
	q := url.Values{"q": {query}}
	if kind != "" {
		q.Set("type", kind)
	}
	var res struct {
		Hits []json.RawMessage `json:"hits"`
	}
	if err := c.do(ctx, http.MethodGet, "/search?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	return res.Hits, nil
}
