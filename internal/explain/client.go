// Package explain talks to the external explanation text service. The
// service is opaque: this client assembles the guidance prompt, sends it,
// and degrades to a deterministic fallback when the service is absent,
// failing, or circuit-broken. Text generation itself happens elsewhere.
package explain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/coursecompass/decision-engine/internal/criteria"
	"github.com/coursecompass/decision-engine/internal/weights"
)

// FallbackText is served when no explanation service is reachable.
const FallbackText = "Based on your preferences, this course offers a strong match with your " +
	"desired stability, analytical depth, and long-term career growth. " +
	"It balances study duration with future opportunities and is likely to " +
	"provide a healthy income trajectory over time."

// #region types

// Request carries the ranking context handed to the text service.
type Request struct {
	TopCourse          string
	TopCriteria        []criteria.Criterion
	UserWeights        weights.Vector
	SubjectCombination string
}

// Response pairs the assembled prompt with the generated (or fallback) text.
type Response struct {
	Prompt      string `json:"prompt"`
	Explanation string `json:"explanation"`
	Fallback    bool   `json:"fallback,omitempty"`
}

// #endregion types

// #region client

// Client wraps the HTTP connection to the explanation service behind a
// circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient builds a client for the given service base URL. An empty URL
// is valid and means every request resolves to the fallback text.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "explanation-service",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(_ string, from, to gobreaker.State) {
				logger.Warn("explanation breaker state change",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: logger,
	}
}

// #endregion client

// #region explain

// Explain returns generated text for the ranking context. Service failures
// are absorbed: the prompt is always returned, with Fallback set when the
// canned text substituted for a live generation.
func (c *Client) Explain(ctx context.Context, req Request) Response {
	prompt := BuildPrompt(req)
	if c.baseURL == "" {
		return Response{Prompt: prompt, Explanation: FallbackText, Fallback: true}
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("explanation service unavailable, using fallback", zap.Error(err))
		return Response{Prompt: prompt, Explanation: FallbackText, Fallback: true}
	}
	return Response{Prompt: prompt, Explanation: text}
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		body, err := json.Marshal(map[string]string{"prompt": prompt})
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("call explanation service: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("explanation service returned %d", resp.StatusCode)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		var parsed struct {
			Explanation string `json:"explanation"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
		if parsed.Explanation == "" {
			return nil, fmt.Errorf("explanation service returned empty text")
		}
		return parsed.Explanation, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// #endregion explain

// #region prompt

// BuildPrompt assembles the guidance prompt from the ranking context.
// Weights are listed in descending order so the service sees the most
// influential criteria first.
func BuildPrompt(req Request) string {
	type entry struct {
		criterion criteria.Criterion
		weight    float64
	}
	entries := make([]entry, 0, len(req.UserWeights))
	for c, w := range req.UserWeights {
		entries = append(entries, entry{c, w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].criterion < entries[j].criterion
	})

	var weighted strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&weighted, "- %s: %.2f\n", e.criterion, e.weight)
	}

	topCriteria := make([]string, len(req.TopCriteria))
	for i, c := range req.TopCriteria {
		topCriteria[i] = string(c)
	}

	return fmt.Sprintf(
		"You are a career guidance expert explaining recommendations to a +2 student.\n\n"+
			"Top recommended course: %s\n"+
			"Subject combination: %s\n"+
			"Most influential criteria: %s\n\n"+
			"User preference weights (higher means more important):\n%s\n"+
			"Explain in clear, encouraging language:\n"+
			"1. Why this course fits the student based on their preferences.\n"+
			"2. How the course aligns with their strengths and study commitment.\n"+
			"3. Career stability and growth outlook.\n"+
			"4. Financial and income potential in simple terms.\n"+
			"Keep it concise (3-5 short paragraphs) and avoid jargon.",
		req.TopCourse,
		req.SubjectCombination,
		strings.Join(topCriteria, ", "),
		weighted.String(),
	)
}

// #endregion prompt
