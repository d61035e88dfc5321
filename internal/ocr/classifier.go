package ocr

import (
	"image"

	"github.com/ironsheep/captcha-tools-mcp/internal/engine"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	raster "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
)

// Options tunes a single classification call.
type Options struct {
	// PNGFix paints fully transparent pixels white before encoding an RGB input.
	PNGFix bool

	// Filter, when set, isolates colors before encoding.
	Filter *raster.ColorFilter

	// Restriction overrides the classifier's default restriction. A nil
	// Restriction uses the default; an empty default leaves results unrestricted.
	Restriction Restriction
}

// Classifier reads text from images with a classification model.
//
// A Classifier is safe for concurrent use when its engine is; wrap shared
// engines in engine.Locked.
type Classifier struct {
	engine      engine.Engine
	charset     *Charset
	norm        Normalization
	restriction Restriction
}

// NewClassifier creates a classifier. A nil charset is an
// errs.KindConfiguration error.
func NewClassifier(e engine.Engine, cs *Charset, norm Normalization) (*Classifier, error) {
	if cs == nil {
		return nil, errs.Configuration("classification requires a charset")
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	if cs.index == nil {
		cs.buildIndex()
	}
	return &Classifier{engine: e, charset: cs, norm: norm}, nil
}

// SetDefaultRange sets the restriction used when a call does not supply one.
// It must be called before the classifier is shared.
func (c *Classifier) SetDefaultRange(r Range) error {
	restriction, err := r.Restriction(c.charset)
	if err != nil {
		return err
	}
	c.restriction = restriction
	return nil
}

// DefaultRestriction returns the restriction used when a call supplies none.
func (c *Classifier) DefaultRestriction() Restriction {
	return c.restriction
}

// Charset returns the classifier's charset.
func (c *Classifier) Charset() *Charset {
	return c.charset
}

// Probability decodes image bytes and returns per-position probabilities.
func (c *Classifier) Probability(data []byte, opts Options) (*CharacterProbability, error) {
	img, err := raster.Decode(data)
	if err != nil {
		return nil, err
	}
	return c.ProbabilityImage(img, opts)
}

// ProbabilityImage is Probability for an already decoded image.
func (c *Classifier) ProbabilityImage(img image.Image, opts Options) (*CharacterProbability, error) {
	if opts.Filter != nil {
		img = opts.Filter.Apply(img)
	}
	input, err := Encode(img, c.charset, c.norm, opts.PNGFix)
	if err != nil {
		return nil, err
	}

	output, err := c.engine.Run(input)
	if err != nil {
		return nil, errs.Engine(err)
	}

	restriction := opts.Restriction
	if restriction == nil {
		restriction = c.restriction
	}
	return Decode(output, c.charset, restriction)
}

// Classify decodes image bytes and returns the recognized text.
func (c *Classifier) Classify(data []byte, opts Options) (string, error) {
	p, err := c.Probability(data, opts)
	if err != nil {
		return "", err
	}
	return p.Text(), nil
}

// Close releases the classifier's engine.
func (c *Classifier) Close() error {
	return c.engine.Close()
}
