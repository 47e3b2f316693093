package adapter

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

// aspectSize maps the spec's logical aspect ratios to the nearest pixel
// dimensions the generator actually supports (spec §6 image_generate
// contract: {url, width, height, seed}). 4:3/3:4 have no dedicated
// generator size and round to the nearest landscape/portrait the
// provider offers.
var aspectSize = map[string][2]int{
	"1:1":  {1024, 1024},
	"16:9": {1792, 1024},
	"4:3":  {1792, 1024},
	"3:4":  {1024, 1792},
}

// ImageGenerateAdapter requests one generated image per call (spec §6
// image_generate contract). One SDK (sashabaranov/go-openai) covers both
// the llm_complete and image_generate roles, the same pairing the teacher
// already depends on.
type ImageGenerateAdapter struct {
	client *openai.Client
}

// NewImageGenerateAdapter builds an ImageGenerateAdapter using apiKey.
func NewImageGenerateAdapter(apiKey string) *ImageGenerateAdapter {
	return &ImageGenerateAdapter{client: openai.NewClient(apiKey)}
}

// Generate executes one image_generate call.
func (a *ImageGenerateAdapter) Generate(ctx context.Context, req ImageGenerateRequest) (ImageGenerateResponse, error) {
	dims, ok := aspectSize[req.Aspect]
	if !ok {
		return ImageGenerateResponse{}, domain.Input(domain.CodeValidation, "unsupported aspect: "+req.Aspect)
	}

	resp, err := a.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         req.Prompt,
		Size:           imageSize(dims),
		ResponseFormat: openai.CreateImageResponseFormatURL,
		N:              1,
	})
	if err != nil {
		return ImageGenerateResponse{}, classifyImageError(err)
	}
	if len(resp.Data) == 0 {
		return ImageGenerateResponse{}, domain.Data(domain.CodeContentPolicy, "image generator returned no results", nil)
	}

	return ImageGenerateResponse{
		URL:    resp.Data[0].URL,
		Width:  dims[0],
		Height: dims[1],
		Seed:   int64(resp.Created),
	}, nil
}

func imageSize(dims [2]int) string {
	switch dims {
	case aspectSize["1:1"]:
		return openai.CreateImageSize1024x1024
	case aspectSize["16:9"]:
		return openai.CreateImageSize1792x1024
	case aspectSize["3:4"]:
		return openai.CreateImageSize1024x1792
	default:
		return openai.CreateImageSize1024x1024
	}
}

func classifyImageError(err error) error {
	retryAfter := 2
	return domain.Transient(domain.CodeRateLimited, "image generation failed: "+err.Error(), err, &retryAfter)
}
