package ocr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
)

// AutoWidth in Charset.Image[0] derives the input width from the image.
const AutoWidth = -1

// Charset describes the input and output of a classification model.
//
// It is loaded from the JSON file stored next to the model and is immutable
// afterwards:
//
//	{"word": false, "image": [-1, 64], "channel": 1, "charset": ["", "a", "b"]}
type Charset struct {
	// Word models read a single glyph, so an AutoWidth input is square.
	Word bool `json:"word"`

	// Image is the [width, height] fed to the model. Width may be AutoWidth.
	Image [2]int `json:"image"`

	// Channel is 1 for grayscale models and 3 for RGB models.
	Channel int `json:"channel"`

	// Charset is the output vocabulary, one token per class index.
	Charset []string `json:"charset"`

	index map[string]int
}

// ParseCharset decodes and validates a charset descriptor.
func ParseCharset(data []byte) (*Charset, error) {
	var cs Charset
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, errs.Configuration("invalid charset descriptor: %v", err)
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	cs.buildIndex()
	return &cs, nil
}

// LoadCharset reads and parses the charset descriptor at path.
func LoadCharset(path string) (*Charset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configuration("failed to read charset %s: %v", path, err)
	}
	return ParseCharset(data)
}

// CharsetPath returns the descriptor path that belongs to a model file:
// the model path with its extension replaced by ".json".
func CharsetPath(modelPath string) string {
	return strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".json"
}

// Validate checks that the descriptor can drive Encode and Decode.
func (c *Charset) Validate() error {
	if c.Channel != 1 && c.Channel != 3 {
		return errs.Configuration("charset channel must be 1 or 3, got %d", c.Channel)
	}
	if c.Image[1] <= 0 {
		return errs.Configuration("charset image height must be positive, got %d", c.Image[1])
	}
	if c.Image[0] <= 0 && c.Image[0] != AutoWidth {
		return errs.Configuration("charset image width must be positive or %d, got %d", AutoWidth, c.Image[0])
	}
	if len(c.Charset) == 0 {
		return errs.Configuration("charset is empty")
	}
	return nil
}

// Len returns the vocabulary size.
func (c *Charset) Len() int {
	return len(c.Charset)
}

// Index returns the class index of token, or -1 if the charset lacks it.
// Duplicate tokens resolve to their first occurrence.
func (c *Charset) Index(token string) int {
	if c.index == nil {
		for i, t := range c.Charset {
			if t == token {
				return i
			}
		}
		return -1
	}
	if i, ok := c.index[token]; ok {
		return i
	}
	return -1
}

// TargetSize returns the model input size for a source image of w×h pixels.
func (c *Charset) TargetSize(w, h int) (int, int, error) {
	height := c.Image[1]
	if c.Image[0] != AutoWidth {
		return c.Image[0], height, nil
	}
	if c.Word {
		return height, height, nil
	}
	if w <= 0 || h <= 0 {
		return 0, 0, errs.Dimension("cannot derive input width from a %dx%d image", w, h)
	}
	width := w * height / h
	if width < 1 {
		width = 1
	}
	return width, height, nil
}

func (c *Charset) buildIndex() {
	c.index = make(map[string]int, len(c.Charset))
	for i, t := range c.Charset {
		if _, ok := c.index[t]; !ok {
			c.index[t] = i
		}
	}
}

func (c *Charset) String() string {
	return fmt.Sprintf("charset(%d tokens, %dx%d, %d channel)", len(c.Charset), c.Image[0], c.Image[1], c.Channel)
}
