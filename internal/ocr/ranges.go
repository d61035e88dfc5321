package ocr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
)

// Preset is one of the predefined character ranges.
type Preset int

const (
	Digits Preset = iota
	Lowercase
	Uppercase
	LowerUpper
	LowerDigits
	UpperDigits
	LowerUpperDigits
	// CharsetSymbols is every charset token made only of characters that are
	// not ASCII letters or digits.
	CharsetSymbols
)

const (
	digitChars = "0123456789"
	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var presetChars = map[Preset]string{
	Digits:           digitChars,
	Lowercase:        lowerChars,
	Uppercase:        upperChars,
	LowerUpper:       lowerChars + upperChars,
	LowerDigits:      lowerChars + digitChars,
	UpperDigits:      upperChars + digitChars,
	LowerUpperDigits: lowerChars + upperChars + digitChars,
}

type rangeKind int

const (
	rangeNone rangeKind = iota
	rangePreset
	rangeChars
	rangeTokens
)

// Range selects a subset of the vocabulary. The zero Range selects nothing and
// leaves probabilities unrestricted.
//
// Its JSON form is a preset number, a string, or a list of tokens. Strings "0"
// to "7" name presets; any other string contributes each of its characters.
type Range struct {
	kind   rangeKind
	preset Preset
	chars  string
	tokens []string
}

// PresetRange returns the range for a preset.
func PresetRange(p Preset) (Range, error) {
	if p < Digits || p > CharsetSymbols {
		return Range{}, fmt.Errorf("charset range preset must be 0-7, got %d", int(p))
	}
	return Range{kind: rangePreset, preset: p}, nil
}

// CharsRange returns the range made of the characters of s.
func CharsRange(s string) Range {
	return Range{kind: rangeChars, chars: s}
}

// TokenRange returns the range made of explicit tokens.
func TokenRange(tokens []string) Range {
	return Range{kind: rangeTokens, tokens: append([]string(nil), tokens...)}
}

// ParseRange interprets a range specifier string. The empty string is the zero
// Range.
func ParseRange(s string) Range {
	if s == "" {
		return Range{}
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '7' {
		r, _ := PresetRange(Preset(s[0] - '0'))
		return r
	}
	return CharsRange(s)
}

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool {
	return r.kind == rangeNone
}

// Key identifies the range for caching.
func (r Range) Key() string {
	switch r.kind {
	case rangePreset:
		return "preset:" + strconv.Itoa(int(r.preset))
	case rangeChars:
		return "chars:" + r.chars
	case rangeTokens:
		data, _ := json.Marshal(r.tokens)
		return "tokens:" + string(data)
	}
	return ""
}

func (r Range) String() string {
	switch r.kind {
	case rangePreset:
		return strconv.Itoa(int(r.preset))
	case rangeChars:
		return r.chars
	}
	return r.Key()
}

// Restriction computes the token subset selected by the range. cs is only
// consulted for CharsetSymbols, which fails with errs.KindConfiguration when
// cs is nil.
func (r Range) Restriction(cs *Charset) (Restriction, error) {
	var tokens []string
	switch r.kind {
	case rangeNone:
		return nil, nil
	case rangePreset:
		if r.preset == CharsetSymbols {
			if cs == nil {
				return nil, errs.Configuration("charset range %d needs a loaded charset", int(r.preset))
			}
			for _, t := range cs.Charset {
				if !strings.ContainsAny(t, lowerChars+upperChars+digitChars) {
					tokens = append(tokens, t)
				}
			}
		} else {
			tokens = splitChars(presetChars[r.preset])
		}
	case rangeChars:
		tokens = splitChars(r.chars)
	case rangeTokens:
		tokens = r.tokens
	}
	return NewRestriction(tokens), nil
}

func (r Range) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case rangePreset:
		return json.Marshal(int(r.preset))
	case rangeChars:
		return json.Marshal(r.chars)
	case rangeTokens:
		return json.Marshal(r.tokens)
	}
	return []byte("null"), nil
}

func (r *Range) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Range{}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		parsed, err := PresetRange(Preset(n))
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = ParseRange(s)
		return nil
	}

	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("charset range must be a preset number, a string, or a list of tokens")
	}
	*r = TokenRange(tokens)
	return nil
}

func splitChars(s string) []string {
	tokens := make([]string, 0, len(s))
	for _, c := range s {
		tokens = append(tokens, string(c))
	}
	return tokens
}

// Restriction is a deduplicated token subset that always ends with the empty
// token.
type Restriction []string

// NewRestriction deduplicates tokens in first-occurrence order and appends the
// empty token once at the end.
func NewRestriction(tokens []string) Restriction {
	seen := make(map[string]bool, len(tokens))
	out := make(Restriction, 0, len(tokens)+1)
	for _, t := range tokens {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return append(out, "")
}

// RangeCacheSize is the number of restrictions kept by a RangeCache.
const RangeCacheSize = 10

// RangeCache memoizes Range.Restriction by range key.
//
// Entries depend on the charset only for CharsetSymbols; Purge the cache when
// the charset changes. RangeCache is safe for concurrent use.
type RangeCache struct {
	cache *lru.Cache[string, Restriction]
}

// NewRangeCache creates a cache holding up to size restrictions.
func NewRangeCache(size int) (*RangeCache, error) {
	c, err := lru.New[string, Restriction](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create range cache: %w", err)
	}
	return &RangeCache{cache: c}, nil
}

// Get returns the restriction for r, computing and storing it on a miss.
// The returned slice is shared and must not be modified.
func (c *RangeCache) Get(r Range, cs *Charset) (Restriction, error) {
	if r.IsZero() {
		return nil, nil
	}
	key := r.Key()
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}
	restriction, err := r.Restriction(cs)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, restriction)
	return restriction, nil
}

// Len returns the number of cached restrictions.
func (c *RangeCache) Len() int {
	return c.cache.Len()
}

// Purge drops every cached restriction.
func (c *RangeCache) Purge() {
	c.cache.Purge()
}
