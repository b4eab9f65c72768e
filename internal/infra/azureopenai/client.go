package azureopenai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to one Azure OpenAI chat-completion deployment. It holds no
// state beyond its settings; every Complete call negotiates the request
// schema from scratch.
type Client struct {
	endpoint     string
	apiKey       string
	deployment   string
	apiVersion   string
	systemPrompt string
	search       *SearchSettings

	httpClient  *http.Client
	probeClient *http.Client
	logger      *slog.Logger
}

// SearchSettings enables retrieval grounding on an Azure AI Search index.
// Nil disables the search-enabled request variants entirely.
type SearchSettings struct {
	Endpoint string
	APIKey   string
	Index    string
}

type Settings struct {
	Endpoint     string
	APIKey       string
	Deployment   string
	APIVersion   string
	SystemPrompt string
	Search       *SearchSettings
}

func NewClient(s Settings, logger *slog.Logger) *Client {
	endpoint, recognized := NormalizeEndpoint(s.Endpoint)
	if !recognized {
		logger.Warn("endpoint host does not look like an Azure OpenAI domain", "endpoint", endpoint)
	}
	return &Client{
		endpoint:     endpoint,
		apiKey:       s.APIKey,
		deployment:   s.Deployment,
		apiVersion:   s.APIVersion,
		systemPrompt: s.SystemPrompt,
		search:       s.Search,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		probeClient:  &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

// NormalizeEndpoint strips a trailing slash and prepends https:// when the
// value carries no scheme. The boolean reports whether the host resembles a
// standard Azure OpenAI domain; custom domains are legitimate, so callers
// should treat false as a diagnostic, not a failure.
func NormalizeEndpoint(raw string) (string, bool) {
	endpoint := strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint, false
	}
	return endpoint, strings.HasSuffix(u.Hostname(), ".openai.azure.com")
}

// Attempt records the outcome of one request variant. Status is zero when the
// request never produced an HTTP response (timeout, connection failure).
type Attempt struct {
	Variant string `json:"variant"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

// ExhaustedError reports that every request variant failed, carrying the
// per-variant attempts in the order they were made.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("all %d request variants failed, last: %s", len(e.Attempts), last.Message)
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) completionURL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)
}

// Complete submits the query under each candidate schema in priority order
// and returns the first successful reply. Failures on individual variants are
// recorded and skipped; only full exhaustion surfaces as *ExhaustedError.
func (c *Client) Complete(ctx context.Context, query string) (string, error) {
	variants := c.buildVariants(query)
	requestURL := c.completionURL()

	var attempts []Attempt
	for i, v := range variants {
		c.logger.Info("attempting request variant", "index", i+1, "variant", v.name)

		content, attempt := c.tryVariant(ctx, requestURL, v)
		if attempt != nil {
			c.logger.Warn("request variant failed",
				"variant", v.name, "status", attempt.Status, "message", attempt.Message)
			attempts = append(attempts, *attempt)
			continue
		}

		if !v.search && len(variants) > 1 {
			c.logger.Warn("degraded mode: completion succeeded without search grounding",
				"failed_variants", len(attempts))
		}
		return content, nil
	}

	return "", &ExhaustedError{Attempts: attempts}
}

// tryVariant posts one candidate body. A nil attempt means success.
func (c *Client) tryVariant(ctx context.Context, requestURL string, v variant) (string, *Attempt) {
	body, err := json.Marshal(v.body)
	if err != nil {
		return "", &Attempt{Variant: v.name, Message: fmt.Sprintf("marshaling request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return "", &Attempt{Variant: v.name, Message: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Attempt{Variant: v.name, Message: classifyTransportError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &Attempt{
			Variant: v.name,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &Attempt{Variant: v.name, Status: resp.StatusCode, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	if len(result.Choices) == 0 {
		return "", &Attempt{Variant: v.name, Status: resp.StatusCode, Message: "response carried no choices"}
	}

	return result.Choices[0].Message.Content, nil
}

// Probe sends a minimal completion request to verify connectivity and
// credentials without touching the search integration. The common failure
// statuses map to actionable guidance.
func (c *Client) Probe(ctx context.Context) error {
	body, err := json.Marshal(chatRequest{
		Messages:  []chatMessage{{Role: "user", Content: "Hello"}},
		MaxTokens: 10,
	})
	if err != nil {
		return fmt.Errorf("marshaling probe request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating probe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection test failed: %s", classifyTransportError(err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("resource not found (404): check deployment name %q and endpoint URL", c.deployment)
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication failed (401): check your API key")
	case http.StatusForbidden:
		return fmt.Errorf("access forbidden (403): check your API key permissions")
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("connection test failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
}

func classifyTransportError(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("request timed out: %v", err)
	}
	return fmt.Sprintf("connection failed: %v", err)
}
