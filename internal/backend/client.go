// Package backend is the HTTP client for the career-platform REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kmercer/greenroom/internal/feedback"
	"github.com/kmercer/greenroom/internal/plan"
)

// ErrUnauthorized indicates the stored token was missing or rejected.
var ErrUnauthorized = errors.New("backend rejected credentials; run `greenroom login`")

// Client talks to the platform backend. All methods surface errors to the
// caller; none of them is allowed to take the process down.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// New builds a client for baseURL. token may be empty for login-only use.
func New(baseURL string, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// BaseURL reports the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoginResult is the login response consumed by the CLI.
type LoginResult struct {
	Token    string `json:"token"`
	Redirect string `json:"redirect"`
	User     struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	var result LoginResult
	err := c.postJSON(ctx, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return LoginResult{}, err
	}
	if strings.TrimSpace(result.Token) == "" {
		return LoginResult{}, fmt.Errorf("login response contained no token")
	}
	return result, nil
}

// RegisterResult is the register response. Older backend iterations return a
// bare message; newer ones include a token so the account is signed in
// immediately.
type RegisterResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// Register creates an account. A returned token, if any, is the caller's to
// persist.
func (c *Client) Register(ctx context.Context, name string, email string, password string) (RegisterResult, error) {
	var result RegisterResult
	err := c.postJSON(ctx, "/api/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return RegisterResult{}, err
	}
	return result, nil
}

// Profile is the subset of profile fields the interview session consumes.
type Profile struct {
	Name         string `json:"name"`
	Ambition     string `json:"ambition"`
	DreamCompany string `json:"dream_company"`
}

// Target returns the candidate's practice target, preferring the dream
// company over the free-text ambition.
func (p Profile) Target() string {
	if company := strings.TrimSpace(p.DreamCompany); company != "" {
		return company
	}
	return strings.TrimSpace(p.Ambition)
}

// FetchProfile loads the authenticated candidate's profile.
func (c *Client) FetchProfile(ctx context.Context) (Profile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/profile", nil)
	if err != nil {
		return Profile{}, err
	}

	body, err := c.do(req)
	if err != nil {
		return Profile{}, err
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}

// LoadPlan requests a multi-round interview plan for the target. The request
// shape is pinned to num_rounds; decode failures are returned to the caller,
// which owns the fallback policy.
func (c *Client) LoadPlan(ctx context.Context, target string, rounds int) (plan.Plan, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/generate-questions", map[string]any{
		"type":       target,
		"num_rounds": rounds,
	})
	if err != nil {
		return plan.Plan{}, err
	}

	body, err := c.do(req)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("fetch questions: %w", err)
	}

	decoded, err := plan.Decode(body)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("fetch questions: %w", err)
	}
	return decoded, nil
}

// SaveFeedback persists the session report. Best-effort from the session's
// perspective; the caller logs failures and moves on.
func (c *Client) SaveFeedback(ctx context.Context, target string, report feedback.Report) error {
	payload := map[string]any{
		"type": target,
		"feedback": map[string]any{
			"transcript":          report.Transcript,
			"code":                report.Code,
			"feedbackItems":       report.Items,
			"questionsAndAnswers": report.QuestionsAnswers,
		},
	}
	if err := c.postJSON(ctx, "/api/save-interview-feedback", payload, nil); err != nil {
		return fmt.Errorf("save interview feedback: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, path string, payload any) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("backend base URL is not configured")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.logger != nil {
			c.logger.Warn("backend request failed",
				"path", req.URL.Path,
				"status", resp.StatusCode,
			)
		}
		return nil, fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}
