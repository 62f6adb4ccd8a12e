// Package jira implements the tracker port against the Jira Cloud REST API.
package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/t2p/internal/ports/secondary"
)

const maxErrorBody = 500

// Client talks to a Jira Cloud instance with basic auth.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	apiVersion int
	httpClient *http.Client
}

// NewClient creates a tracker client. apiVersion selects the REST API
// generation (3 for Cloud, 2 for older servers).
func NewClient(baseURL, email, apiToken string, apiVersion int) *Client {
	if apiVersion == 0 {
		apiVersion = 3
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      email,
		apiToken:   apiToken,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type searchResponse struct {
	Issues []struct {
		Key    string         `json:"key"`
		Fields map[string]any `json:"fields"`
	} `json:"issues"`
}

// Search runs a JQL query. Newer Jira Cloud deployments only accept the
// /search/jql endpoint; older ones only /search. The primary endpoint is
// tried first and the legacy ones are fallbacks on 404/405/410.
func (c *Client) Search(query string, fields []string, limit int) ([]secondary.Issue, error) {
	payload := map[string]any{
		"jql":        query,
		"fields":     fields,
		"maxResults": limit,
	}

	body, status, err := c.post(fmt.Sprintf("/rest/api/%d/search/jql", c.apiVersion), payload)
	if err == nil && isEndpointGone(status) {
		body, status, err = c.post(fmt.Sprintf("/rest/api/%d/search", c.apiVersion), payload)
	}
	if err == nil && isEndpointGone(status) {
		body, status, err = c.getSearch(query, fields, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("jira search failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("jira search failed: HTTP %d: %s", status, truncate(body, maxErrorBody))
	}

	var parsed searchResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("jira search returned malformed JSON: %w", err)
	}

	issues := make([]secondary.Issue, 0, len(parsed.Issues))
	for _, raw := range parsed.Issues {
		issues = append(issues, secondary.Issue{Key: raw.Key, Fields: raw.Fields})
	}
	return issues, nil
}

// AddComment posts a plain-text comment on the ticket. API v3 wants the
// Atlassian document format; v2 accepts a bare body string.
func (c *Client) AddComment(ticketKey, text string) error {
	var payload map[string]any
	if c.apiVersion >= 3 {
		payload = map[string]any{
			"body": map[string]any{
				"type":    "doc",
				"version": 1,
				"content": []any{
					map[string]any{
						"type": "paragraph",
						"content": []any{
							map[string]any{"type": "text", "text": text},
						},
					},
				},
			},
		}
	} else {
		payload = map[string]any{"body": text}
	}

	body, status, err := c.post(fmt.Sprintf("/rest/api/%d/issue/%s/comment", c.apiVersion, url.PathEscape(ticketKey)), payload)
	if err != nil {
		return fmt.Errorf("jira comment failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("jira comment failed: HTTP %d: %s", status, truncate(body, maxErrorBody))
	}
	return nil
}

func (c *Client) post(path string, payload any) (string, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return "", 0, err
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// getSearch is the oldest fallback: GET /search with query parameters.
func (c *Client) getSearch(query string, fields []string, limit int) (string, int, error) {
	params := url.Values{}
	params.Set("jql", query)
	params.Set("fields", strings.Join(fields, ","))
	params.Set("maxResults", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/rest/api/%d/search?%s", c.baseURL, c.apiVersion, params.Encode())
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return "", 0, err
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (string, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

func isEndpointGone(status int) bool {
	return status == http.StatusNotFound || status == http.StatusMethodNotAllowed || status == http.StatusGone
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Ensure Client implements the interface
var _ secondary.TrackerClient = (*Client)(nil)
