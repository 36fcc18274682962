package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIClient drives the server as one browser would, session cookie included.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a client with its own cookie jar
func NewAPIClient(baseURL string) (*APIClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 60 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Response types matching backend

type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Tokens int    `json:"tokens"`
}

type Completion struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
	Tokens int    `json:"tokens"`
}

type WritingPage struct {
	User              User         `json:"user"`
	RecentCompletions []Completion `json:"recentCompletions"`
}

type SubmitResponse struct {
	Completion Completion `json:"completion"`
	Tokens     int        `json:"tokens"`
}

// FormError is a rejected form submission.
type FormError struct {
	Status int
	Fields map[string]string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("rejected (status %d): %v", e.Status, e.Fields)
}

// Signup creates an account and keeps the session cookie.
func (c *APIClient) Signup(email, password string) error {
	return c.authenticate("signup", email, password)
}

// Login opens a session for an existing account.
func (c *APIClient) Login(email, password string) error {
	return c.authenticate("login", email, password)
}

func (c *APIClient) authenticate(mode, email, password string) error {
	resp, err := c.postForm("/auth?mode="+mode, url.Values{
		"email":    {email},
		"password": {password},
	})
	if err != nil {
		return fmt.Errorf("%s request failed: %w", mode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		return formError(resp)
	}
	return nil
}

// Writing fetches the balance and recent completions.
func (c *APIClient) Writing() (*WritingPage, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/writing")
	if err != nil {
		return nil, fmt.Errorf("writing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("writing failed (status %d): %s", resp.StatusCode, string(body))
	}

	var page WritingPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &page, nil
}

// Submit asks for a completion costing tokens.
func (c *APIClient) Submit(prompt string, tokens int) (*SubmitResponse, error) {
	resp, err := c.postForm("/writing", url.Values{
		"prompt": {prompt},
		"tokens": {strconv.Itoa(tokens)},
	})
	if err != nil {
		return nil, fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, formError(resp)
	}

	var result SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

func (c *APIClient) postForm(path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.httpClient.Do(req)
}

// formError turns a rejected submission into a *FormError. Anything that is
// not a 4xx field map, such as a 500 or a redirect to login, is a plain error.
func formError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		fields := map[string]string{}
		if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
			return &FormError{Status: resp.StatusCode, Fields: fields}
		}
	}

	if loc := resp.Header.Get("Location"); loc != "" {
		return fmt.Errorf("unexpected status %d (redirect to %s)", resp.StatusCode, loc)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
