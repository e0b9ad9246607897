package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"ceritaku/internal/media"
)

const (
	defaultOpenAIModel = openai.GPT4oMini
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 2
)

// OpenAI generates content through any OpenAI-compatible chat completion API.
type OpenAI struct {
	llmGenerator
}

type openAIClient struct {
	client     *openai.Client
	model      string
	imageModel string
	uploader   media.Uploader
}

func NewOpenAI(cfg Config, logger *zap.Logger) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai generator: api key is required")
	}
	clientCfg := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	c := &openAIClient{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		imageModel: strings.TrimSpace(cfg.ImageModel),
		uploader:   cfg.Uploader,
	}
	g := &OpenAI{llmGenerator: newLLMGenerator(c, cfg, logger)}
	if c.imageModel != "" {
		g.images = c
	}
	return g, nil
}

func newLLMGenerator(c completer, cfg Config, logger *zap.Logger) llmGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	return llmGenerator{
		completer:  c,
		timeout:    timeout,
		maxRetries: retries,
		logger:     logger.Named("generator"),
	}
}

func (c *openAIClient) complete(ctx context.Context, system string, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   1200,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrInvalidResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *openAIClient) illustrate(ctx context.Context, prompt string) (string, error) {
	format := openai.CreateImageResponseFormatURL
	if c.uploader != nil {
		format = openai.CreateImageResponseFormatB64JSON
	}
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.imageModel,
		N:              1,
		Size:           openai.CreateImageSize512x512,
		ResponseFormat: format,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", ErrInvalidResponse
	}
	if c.uploader == nil {
		return resp.Data[0].URL, nil
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil || len(data) == 0 {
		return "", fmt.Errorf("%w: image payload", ErrInvalidResponse)
	}
	return c.uploader.Upload(ctx, data, "illustration.png", "image/png")
}
