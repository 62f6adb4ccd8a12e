package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/t2p/internal/ports/secondary"
)

const defaultAPIBase = "https://api.github.com"

// RESTClient drives pull requests through the GitHub REST API. Used when
// the gh CLI is not available or disabled.
type RESTClient struct {
	apiBase    string
	owner      string
	token      string
	httpClient *http.Client
}

// NewRESTClient creates a token-authenticated PR host.
func NewRESTClient(owner, token string) *RESTClient {
	return &RESTClient{
		apiBase:    defaultAPIBase,
		owner:      owner,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type pullEntry struct {
	HTMLURL string `json:"html_url"`
}

type searchResult struct {
	Items []struct {
		HTMLURL     string `json:"html_url"`
		PullRequest *struct {
			URL string `json:"url"`
		} `json:"pull_request"`
	} `json:"items"`
}

// FindPRByBranch lists open PRs filtered by head ref.
func (c *RESTClient) FindPRByBranch(repo, branch string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/pulls?state=open&head=%s",
		c.apiBase, c.owner, repo, url.QueryEscape(c.owner+":"+branch))

	body, err := c.request(http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	var pulls []pullEntry
	if err := json.Unmarshal(body, &pulls); err != nil {
		return "", fmt.Errorf("failed to parse pull list: %w", err)
	}
	if len(pulls) == 0 {
		return "", nil
	}
	return pulls[0].HTMLURL, nil
}

// FindPRByKeyword uses the issue search API scoped to open PRs in the repo.
func (c *RESTClient) FindPRByKeyword(repo, keyword string) (string, error) {
	query := fmt.Sprintf("repo:%s/%s is:pr is:open %s", c.owner, repo, keyword)
	endpoint := fmt.Sprintf("%s/search/issues?q=%s", c.apiBase, url.QueryEscape(query))

	body, err := c.request(http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	var result searchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse search result: %w", err)
	}
	for _, item := range result.Items {
		if item.PullRequest != nil {
			return item.HTMLURL, nil
		}
	}
	return "", nil
}

// CreatePR opens a pull request. Reviewers and labels are attached with
// follow-up calls; their failure does not fail the PR creation.
func (c *RESTClient) CreatePR(req secondary.CreatePRRequest) (string, error) {
	payload := map[string]any{
		"title": req.Title,
		"body":  req.Body,
		"base":  req.Base,
		"head":  req.Head,
		"draft": req.Draft,
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/pulls", c.apiBase, c.owner, req.Repo)
	body, err := c.request(http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}

	var created struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to parse created PR: %w", err)
	}

	if len(req.Reviewers) > 0 {
		endpoint := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/requested_reviewers", c.apiBase, c.owner, req.Repo, created.Number)
		c.request(http.MethodPost, endpoint, map[string]any{"reviewers": req.Reviewers})
	}
	if len(req.Labels) > 0 {
		endpoint := fmt.Sprintf("%s/repos/%s/%s/issues/%d/labels", c.apiBase, c.owner, req.Repo, created.Number)
		c.request(http.MethodPost, endpoint, map[string]any{"labels": req.Labels})
	}

	return created.HTMLURL, nil
}

func (c *RESTClient) request(method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if len(msg) > 500 {
			msg = msg[:500]
		}
		return nil, fmt.Errorf("github request failed: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(msg))
	}
	return body, nil
}

// Ensure RESTClient implements the interface
var _ secondary.PRHost = (*RESTClient)(nil)
