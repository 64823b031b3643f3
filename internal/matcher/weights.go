package matcher

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Weights tunes the scoring tiers. The tiers are intentionally far apart so
// that stronger textual evidence always outranks weaker evidence.
type Weights struct {
	// ExactPrompt is added when the whole prompt equals a keyword.
	ExactPrompt float64 `json:"exact_prompt" validate:"gte=0"`
	// PhraseBase is added for every keyword contained in the prompt.
	PhraseBase float64 `json:"phrase_base" validate:"gte=0"`
	// PhraseScale is multiplied by len(keyword)/len(prompt) on containment.
	PhraseScale float64 `json:"phrase_scale" validate:"gte=0"`
	// Word is the exact word match weight for a three letter word; longer
	// words scale linearly.
	Word float64 `json:"word" validate:"gte=0"`
	// Partial is multiplied by shorter/longer length on substring overlap.
	Partial float64 `json:"partial" validate:"gte=0"`
	// Density controls how much the share of matching entries boosts a
	// category: score * (1 + matches/entries * Density).
	Density float64 `json:"density" validate:"gte=0"`

	MinWordLen    int `json:"min_word_len" validate:"gte=1"`
	PartialMinLen int `json:"partial_min_len" validate:"gte=1"`
}

// DefaultWeights returns the tuned production weights.
func DefaultWeights() Weights {
	return Weights{
		ExactPrompt:   20,
		PhraseBase:    5,
		PhraseScale:   5,
		Word:          3,
		Partial:       2,
		Density:       0.5,
		MinWordLen:    3,
		PartialMinLen: 4,
	}
}

// Validate rejects negative weights and non-positive length thresholds.
func (w Weights) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("matcher: invalid weights: %w", err)
	}
	return nil
}
