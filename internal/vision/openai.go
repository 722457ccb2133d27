package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrEmptyResponse = errors.New("vision model returned no choices")

// APIError is a provider failure with the HTTP status it carried.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vision api error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) HTTPStatus() int { return e.StatusCode }

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client sends chart images to an OpenAI-compatible chat completions API.
type Client struct {
	tracer trace.Tracer
	client openai.Client
	model  string
}

func NewClient(tracer trace.Tracer, cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// retries are owned by the analyzer's rate limit policy
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &Client{
		tracer: tracer,
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "vision.generate")
	defer span.End()
	span.SetAttributes(attribute.String("model", c.model), attribute.String("mime_type", mimeType))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: DataURL(mimeType, image),
				}),
			}),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// DataURL encodes raw image bytes as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
