package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"MoodPulse/internal/domain/models"
	domsvc "MoodPulse/internal/domain/service"
	applogger "MoodPulse/pkg/logger"
)

const systemPrompt = `You are the voice of a crypto market commentary bot.
You receive a market mood, a tone to write in, and a digest of current
market statistics. Write ONE short post (max 280 characters) in that tone.
Mention concrete assets and directions from the digest. No hashtags, no
financial advice, no emoji spam (one emoji at most).`

// ClientConfig tunes the completion client.
type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client implements Completion over an OpenAI-compatible chat API.
type Client struct {
	client openai.Client
	cfg    ClientConfig
	logger *applogger.Logger
}

func NewClient(cfg ClientConfig, logger *applogger.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Client) Generate(ctx context.Context, req models.CommentaryRequest) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	p := personaFor(req.Mood)
	userPrompt := buildUserPrompt(req, p)

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(c.cfg.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion: empty content")
	}
	c.logger.Debug("commentary generated",
		applogger.String("mood", string(req.Mood)),
		applogger.Int("chars", len(text)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return text, nil
}

func buildUserPrompt(req models.CommentaryRequest, p persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mood: %s\nTone: %s\nGuidance: %s\nTrigger: %s\n", req.Mood, p.Tone, p.Guidance, req.Trigger)

	if short := req.State.Shortest(); short != nil {
		b.WriteString("\nAssets (short window):\n")
		assets := make([]string, 0, len(short.Assets))
		for a := range short.Assets {
			assets = append(assets, a)
		}
		sort.Strings(assets)
		for _, a := range assets {
			st := short.Assets[a]
			fmt.Fprintf(&b, "- %s: price %.2f, return %.2f%%, volatility %.4f, trend %s, volume %s\n",
				a, st.LastPrice, st.CumulativeRet*100, st.Volatility, st.Trend, st.VolumeTrend)
		}

		if len(short.Pairs) > 0 {
			b.WriteString("\nCorrelations:\n")
			pairs := make([]string, 0, len(short.Pairs))
			for k := range short.Pairs {
				pairs = append(pairs, k)
			}
			sort.Strings(pairs)
			for _, k := range pairs {
				ps := short.Pairs[k]
				if ps.Value == nil {
					fmt.Fprintf(&b, "- %s: insufficient data\n", k)
				} else {
					fmt.Fprintf(&b, "- %s: %.2f\n", k, *ps.Value)
				}
			}
		}
	}
	return b.String()
}

var _ domsvc.Completion = (*Client)(nil)
