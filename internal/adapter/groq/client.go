// Package groq implements the AI insight generator against the Groq
// OpenAI-compatible chat completion API.
package groq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/SeeSense-AK/dublin-dashboard/internal/domain"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

const systemPrompt = "You are a road safety analyst reviewing cycling sensor data and " +
	"user-submitted incident reports for a city dashboard. Be specific and practical; " +
	"avoid speculation beyond the data provided."

// Client implements domain.Insighter using the Groq chat completion API.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a Groq insight client.
func NewClient(apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		api:     newAPI(apiKey, defaultBaseURL),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func newAPI(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return openai.NewClientWithConfig(cfg)
}

// HotspotInsight asks the model for a structured safety insight about one
// hotspot. The response must carry SUMMARY, THEMES, and RECOMMENDATIONS
// sections; anything else is an error so the caller can fall back.
func (c *Client) HotspotInsight(ctx context.Context, s domain.HotspotSummary) (domain.Insight, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(s)},
		},
		MaxTokens:   500,
		Temperature: 0.4,
	})
	if err != nil {
		return domain.Insight{}, fmt.Errorf("groq chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return domain.Insight{}, fmt.Errorf("groq returned no choices for hotspot %s", s.HotspotID)
	}

	insight, err := parseInsight(resp.Choices[0].Message.Content)
	if err != nil {
		return domain.Insight{}, fmt.Errorf("parse insight for hotspot %s: %w", s.HotspotID, err)
	}
	insight.Method = "ai"
	insight.Model = c.model
	return insight, nil
}

// buildPrompt renders the hotspot summary into the analyst prompt. The
// section headers in the requested format are what parseInsight keys on.
func buildPrompt(s domain.HotspotSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this road safety hotspot near (%.5f, %.5f).\n\n", s.Centroid.Lat, s.Centroid.Lon)
	fmt.Fprintf(&b, "Sensor data: %d abnormal cycling events from %d devices between %s and %s.\n",
		s.EventCount, s.DeviceCount, s.FirstSeen.Format("2006-01-02"), s.LastSeen.Format("2006-01-02"))
	fmt.Fprintf(&b, "Average severity %.1f/10, maximum %.1f/10, risk level %s.\n", s.MeanSeverity, s.MaxSeverity, s.RiskLevel)

	if len(s.EventTypes) > 0 {
		fmt.Fprintf(&b, "Event types: %s.\n", formatCounts(s.EventTypes))
	}

	if s.ReportCount > 0 {
		fmt.Fprintf(&b, "\n%d user perception reports within matching distance", s.ReportCount)
		if s.DominantTheme != "" {
			fmt.Fprintf(&b, ", dominant theme %q", s.DominantTheme)
		}
		if s.SentimentScore > 0 {
			fmt.Fprintf(&b, ", average incident rating %.1f/5", s.SentimentScore)
		}
		b.WriteString(".\n")
		for _, comment := range s.Comments {
			fmt.Fprintf(&b, "- %q\n", comment)
		}
	} else {
		b.WriteString("\nNo user perception reports were matched to this location.\n")
	}

	b.WriteString("\nRespond in exactly this format:\n")
	b.WriteString("SUMMARY: <2-3 sentences on what is happening here and why it matters>\n")
	b.WriteString("THEMES: <comma-separated safety themes>\n")
	b.WriteString("RECOMMENDATIONS:\n- <concrete intervention>\n- <concrete intervention>\n")
	return b.String()
}

func formatCounts(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, name := range sortedKeys(counts) {
		parts = append(parts, fmt.Sprintf("%s (%d)", name, counts[name]))
	}
	return strings.Join(parts, ", ")
}
