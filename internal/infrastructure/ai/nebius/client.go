package nebius

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible chat completions endpoint. The
// municipality runs against Nebius AI Studio, but any server speaking
// the same dialect works, which is also how the tests stub it.
type Client struct {
	baseURL     string
	apiKey      string
	textModel   string
	visionModel string
	maxTokens   int
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	MaxTokens          int
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey, textModel, visionModel string) *Client {
	return NewWithOptions(baseURL, apiKey, textModel, visionModel, Options{})
}

func NewWithOptions(baseURL, apiKey, textModel, visionModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		textModel:   textModel,
		visionModel: visionModel,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.ResilienceExecutor,
	}
}

func (c *Client) ModelID(m domain.Modality) string {
	if m == domain.ModalityVision {
		return c.visionModel
	}
	return c.textModel
}

func (c *Client) CompleteText(ctx context.Context, prompt string) (string, error) {
	messages := []chatMessage{{Role: "user", Content: prompt}}
	return c.complete(ctx, "nebius.chat.text", c.textModel, messages)
}

func (c *Client) CompleteVision(ctx context.Context, prompt string, image []byte, mediaType string) (string, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(image))
	messages := []chatMessage{{
		Role: "user",
		Content: []any{
			contentText{Type: "text", Text: prompt},
			contentImage{Type: "image_url", ImageURL: imageURL{URL: dataURI}},
		},
	}}
	return c.complete(ctx, "nebius.chat.vision", c.visionModel, messages)
}

func (c *Client) complete(ctx context.Context, operation, model string, messages []chatMessage) (string, error) {
	request := chatRequest{
		Model:          model,
		Messages:       messages,
		Temperature:    0,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var response chatResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/chat/completions", request, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyChatError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", operation)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type contentImage struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
