// Package gemini implements the remote generation client on top of the
// Google Gen AI SDK: a Gemini text model writes the prompt and an Imagen
// model renders it.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"wallpaper/internal/domain"
	"wallpaper/internal/infra"
	"wallpaper/internal/providers/prompt"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"

	promptTemperature  = float32(1.0)
	statusExhausted    = "RESOURCE_EXHAUSTED"
	defaultHTTPTimeout = 90 * time.Second
)

// Options controls how the client is configured.
type Options struct {
	APIKey     string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// models is the subset of *genai.Models the client calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Client generates prompt text and wallpaper images.
type Client struct {
	models     models
	textModel  string
	imageModel string
	logger     *infra.Logger
}

// NewClient constructs a client bound to the Gemini API backend.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newClient(sdk.Models, opts), nil
}

func newClient(m models, opts Options) *Client {
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = DefaultTextModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{
		models:     m,
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}
}

// GeneratePromptText asks the text model for one wallpaper prompt sentence.
func (c *Client) GeneratePromptText(ctx context.Context, category string, opts domain.PromptOptions) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.textModel, genai.Text(prompt.BuildCreativePrompt(category, opts)), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(promptTemperature),
	})
	if err != nil {
		return "", classify("generate prompt", err)
	}
	if resp == nil {
		return "", fmt.Errorf("generate prompt: %w: no response", domain.ErrGenerationFailed)
	}
	text := prompt.CleanPromptText(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generate prompt: %w: empty text", domain.ErrGenerationFailed)
	}

	c.logger.Debug().
		Str("model", c.textModel).
		Str("category", category).
		Msg("gemini: generated prompt text")

	return text, nil
}

// GenerateImage renders one PNG image for the prompt at the given aspect ratio.
func (c *Client) GenerateImage(ctx context.Context, text string, aspect domain.AspectRatio) (domain.ImageHandle, error) {
	resp, err := c.models.GenerateImages(ctx, c.imageModel, prompt.BuildImagePrompt(text, aspect), &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    string(aspect),
		OutputMIMEType: domain.DefaultImageMIME,
	})
	if err != nil {
		return domain.ImageHandle{}, classify("generate image", err)
	}
	if resp != nil {
		for _, generated := range resp.GeneratedImages {
			if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
				continue
			}
			c.logger.Debug().
				Str("model", c.imageModel).
				Str("aspect_ratio", string(aspect)).
				Int("bytes", len(generated.Image.ImageBytes)).
				Msg("gemini: generated image")
			return domain.ImageHandle{
				MIMEType: generated.Image.MIMEType,
				Data:     generated.Image.ImageBytes,
			}, nil
		}
	}
	return domain.ImageHandle{}, fmt.Errorf("generate image: %w: no image was generated", domain.ErrEmptyResult)
}

// classify maps SDK failures onto the domain taxonomy using the structured
// error code and status instead of the message text.
func classify(op string, err error) error {
	if isQuotaError(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRateLimited, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrGenerationFailed, err)
}

func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == statusExhausted
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == statusExhausted
	}
	return false
}
