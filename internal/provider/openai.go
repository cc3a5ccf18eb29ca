// Package provider talks to the external image and conversation API.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/liliang-cn/imagestudio/internal/domain"
	"github.com/liliang-cn/imagestudio/internal/logging"
)

// Output item types of the responses API
const (
	outputTypeMessage         = "message"
	outputTypeImageGeneration = "image_generation_call"
	contentTypeOutputText     = "output_text"
)

// OpenAIConfig configures the OpenAI client
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

// OpenAI wraps the OpenAI client for image generation and multi-turn chat
type OpenAI struct {
	client openai.Client
	logger *zap.Logger
}

// NewOpenAI creates a client. SDK retries are disabled: a failed call is
// reported to the caller as is.
func NewOpenAI(cfg OpenAIConfig, logger *zap.Logger) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		logger: logger,
	}
}

// GenerateImage calls the images endpoint for a single image
func (o *OpenAI) GenerateImage(ctx context.Context, p domain.ImageGenerationParams) (*domain.GeneratedImage, error) {
	log := logging.For(ctx, o.logger)
	log.Info("Calling OpenAI images API",
		zap.String("model", p.Model),
		zap.String("size", p.Size),
		zap.String("quality", p.Quality),
	)
	start := time.Now()

	res, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:  p.Prompt,
		Model:   openai.ImageModel(p.Model),
		Size:    openai.ImageGenerateParamsSize(p.Size),
		Quality: openai.ImageGenerateParamsQuality(p.Quality),
		N:       openai.Int(1),
	})
	if err != nil {
		log.Error("OpenAI images API failed", zap.Error(err))
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	log.Info("OpenAI images API completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("images", len(res.Data)),
	)

	if len(res.Data) == 0 {
		return &domain.GeneratedImage{}, nil
	}
	return &domain.GeneratedImage{
		URL:     res.Data[0].URL,
		B64JSON: res.Data[0].B64JSON,
	}, nil
}

// Respond sends one conversational turn with the image generation tool
// enabled, continuing from PreviousResponseID when set.
func (o *OpenAI) Respond(ctx context.Context, req domain.ConversationRequest) (*domain.ConversationReply, error) {
	log := logging.For(ctx, o.logger)
	log.Info("Calling OpenAI responses API",
		zap.String("model", req.Model),
		zap.Bool("has_previous_response", req.PreviousResponseID != ""),
		zap.String("previous_response_id", req.PreviousResponseID),
	)
	start := time.Now()

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(req.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(req.Input),
		},
		Tools: []responses.ToolUnionParam{{
			OfImageGeneration: &responses.ToolImageGenerationParam{
				Quality:      req.ImageQuality,
				Size:         req.ImageSize,
				OutputFormat: "png",
				Moderation:   "low",
			},
		}},
	}
	if req.PreviousResponseID != "" {
		params.PreviousResponseID = openai.String(req.PreviousResponseID)
	}

	res, err := o.client.Responses.New(ctx, params)
	if err != nil {
		log.Error("OpenAI responses API failed", zap.Error(err))
		// Returned as is: the chat transcript shows the provider's message
		return nil, err
	}

	reply := &domain.ConversationReply{ResponseID: res.ID}
	for _, item := range res.Output {
		switch item.Type {
		case outputTypeMessage:
			for _, c := range item.AsMessage().Content {
				if c.Type == contentTypeOutputText && c.Text != "" {
					reply.Items = append(reply.Items, domain.TextOutput{Text: c.Text})
				}
			}
		case outputTypeImageGeneration:
			call := item.AsImageGenerationCall()
			reply.Items = append(reply.Items, domain.ImageGenerationOutput{
				ID:     call.ID,
				Status: string(call.Status),
				Result: call.Result,
			})
		}
	}

	log.Info("OpenAI responses API completed",
		zap.String("response_id", res.ID),
		zap.Int("outputs", len(res.Output)),
		zap.Duration("duration", time.Since(start)),
	)

	return reply, nil
}
