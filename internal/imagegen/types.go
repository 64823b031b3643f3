package imagegen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"dreamscape/internal/domain"
)

const (
	// MaxImages caps how many images one request may ask for.
	MaxImages = 4
	// maxSeed is the exclusive upper bound of generated seeds.
	maxSeed = 1_000_000
)

// Option is a selectable value for the settings panel.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Models lists the model identifiers a client may request. The first entry is
// the default.
var Models = []Option{
	{Value: "runwayml/stable-diffusion-v1-5", Label: "Stable Diffusion 1.5"},
	{Value: "stabilityai/stable-diffusion-xl-base-1.0", Label: "Stable Diffusion XL"},
	{Value: "stabilityai/sdxl-turbo", Label: "SDXL Turbo"},
	{Value: "prompthero/openjourney", Label: "Openjourney"},
}

// Sizes lists the supported output sizes. The first entry is the default.
var Sizes = []Option{
	{Value: "512x512", Label: "512×512"},
	{Value: "768x768", Label: "768×768"},
	{Value: "1024x1024", Label: "1024×1024"},
	{Value: "1024x576", Label: "1024×576 (16:9)"},
	{Value: "576x1024", Label: "576×1024 (9:16)"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("image_model", func(fl validator.FieldLevel) bool {
		return hasOption(Models, fl.Field().String())
	})
	_ = v.RegisterValidation("image_size", func(fl validator.FieldLevel) bool {
		return hasOption(Sizes, fl.Field().String())
	})
	return v
}

func hasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// GenerateRequest is the settings-panel payload for one generation.
type GenerateRequest struct {
	Prompt         string `json:"prompt" validate:"required,max=2000"`
	NegativePrompt string `json:"negative_prompt,omitempty" validate:"max=2000"`
	Model          string `json:"model" validate:"required,image_model"`
	Size           string `json:"size" validate:"required,image_size"`
	NumImages      int    `json:"num_images" validate:"min=1,max=4"`
}

// Normalize trims free text and fills unset settings with their defaults.
func (r GenerateRequest) Normalize() GenerateRequest {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.NegativePrompt = strings.TrimSpace(r.NegativePrompt)
	r.Model = strings.TrimSpace(r.Model)
	r.Size = strings.ToLower(strings.TrimSpace(r.Size))
	if r.Model == "" {
		r.Model = Models[0].Value
	}
	if r.Size == "" {
		r.Size = Sizes[0].Value
	}
	if r.NumImages == 0 {
		r.NumImages = 1
	}
	return r
}

// Validate reports the first violated constraint as a domain error.
func (r GenerateRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	fe := verrs[0]
	switch fe.StructField() {
	case "Prompt", "NegativePrompt":
		return fmt.Errorf("%w: %s failed %q", domain.ErrInvalidPrompt, fe.Field(), fe.Tag())
	case "Model":
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedModel, r.Model)
	case "Size":
		return fmt.Errorf("%w: %q", domain.ErrInvalidSize, r.Size)
	default:
		return fmt.Errorf("%w: num_images must be between 1 and %d", domain.ErrInvalidRequest, MaxImages)
	}
}

// Key identifies requests with identical parameters for caching.
func (r GenerateRequest) Key() string {
	h := sha256.New()
	for _, part := range []string{r.Prompt, r.NegativePrompt, r.Model, r.Size, strconv.Itoa(r.NumImages)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GeneratedImage is one placeholder result shown in the gallery.
type GeneratedImage struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Prompt   string `json:"prompt"`
	Seed     int    `json:"seed"`
	ImageID  int    `json:"image_id"`
	Category string `json:"category"`
	Fallback bool   `json:"fallback"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Filename is the attachment name offered when the image is saved.
func (img GeneratedImage) Filename() string {
	return fmt.Sprintf("image-%d.jpg", img.Seed)
}

// Generation is a batch of images produced for one request.
type Generation struct {
	ID        string           `json:"id"`
	Request   GenerateRequest  `json:"request"`
	Images    []GeneratedImage `json:"images"`
	CreatedAt time.Time        `json:"created_at"`
	Cached    bool             `json:"cached"`
}

// Cache stores finished generations keyed by request parameters.
type Cache interface {
	Get(ctx context.Context, key string) (*Generation, bool, error)
	GetByID(ctx context.Context, id string) (*Generation, bool, error)
	Put(ctx context.Context, key string, gen *Generation) error
}

// ParseSize parses "WIDTHxHEIGHT".
func ParseSize(size string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(size)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidSize, size)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidSize, size)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidSize, size)
	}
	return width, height, nil
}

// BuildURL composes the placeholder host URL for an image identifier.
func BuildURL(baseURL string, imageID, width, height, seed int) string {
	return fmt.Sprintf("%s/id/%d/%d/%d?random=%d", strings.TrimRight(baseURL, "/"), imageID, width, height, seed)
}
