package ocr

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange_PresetRestrictions(t *testing.T) {
	tests := []struct {
		preset Preset
		size   int
	}{
		{Digits, 10},
		{Lowercase, 26},
		{Uppercase, 26},
		{LowerUpper, 52},
		{LowerDigits, 36},
		{UpperDigits, 36},
		{LowerUpperDigits, 62},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(int(tt.preset)), func(t *testing.T) {
			r, err := PresetRange(tt.preset)
			require.NoError(t, err)
			restriction, err := r.Restriction(nil)
			require.NoError(t, err)
			assert.Len(t, restriction, tt.size+1)
			assert.Equal(t, "", restriction[len(restriction)-1])
		})
	}

	_, err := PresetRange(8)
	require.Error(t, err)
}

func TestRange_CharsetSymbols(t *testing.T) {
	cs := &Charset{Channel: 1, Image: [2]int{64, 64}, Charset: []string{"", "a", "1", "+", "中", "a+", "+"}}
	r, err := PresetRange(CharsetSymbols)
	require.NoError(t, err)

	restriction, err := r.Restriction(cs)
	require.NoError(t, err)
	assert.Equal(t, Restriction{"+", "中", ""}, restriction)

	_, err = r.Restriction(nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfiguration))
}

func TestParseRange(t *testing.T) {
	r := ParseRange("3")
	restriction, err := r.Restriction(nil)
	require.NoError(t, err)
	assert.Len(t, restriction, 53)

	r = ParseRange("abca")
	restriction, err = r.Restriction(nil)
	require.NoError(t, err)
	assert.Equal(t, Restriction{"a", "b", "c", ""}, restriction)

	// Multi-digit strings are characters, not presets.
	r = ParseRange("12")
	restriction, err = r.Restriction(nil)
	require.NoError(t, err)
	assert.Equal(t, Restriction{"1", "2", ""}, restriction)

	assert.True(t, ParseRange("").IsZero())
}

func TestRange_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Restriction
	}{
		{"number", `0`, NewRestriction(splitChars(digitChars))},
		{"preset string", `"0"`, NewRestriction(splitChars(digitChars))},
		{"chars", `"xyz"`, Restriction{"x", "y", "z", ""}},
		{"tokens", `["ab", "cd", "ab"]`, Restriction{"ab", "cd", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Range
			require.NoError(t, json.Unmarshal([]byte(tt.input), &r))
			got, err := r.Restriction(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	var r Range
	require.Error(t, json.Unmarshal([]byte(`9`), &r))
	require.Error(t, json.Unmarshal([]byte(`{}`), &r))
	require.NoError(t, json.Unmarshal([]byte(`null`), &r))
	assert.True(t, r.IsZero())
}

func TestRange_MarshalJSON(t *testing.T) {
	p, _ := PresetRange(LowerDigits)
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `4`, string(data))

	data, err = json.Marshal(CharsRange("ab"))
	require.NoError(t, err)
	assert.Equal(t, `"ab"`, string(data))
}

func TestRange_KeysDistinct(t *testing.T) {
	p, _ := PresetRange(Digits)
	assert.NotEqual(t, p.Key(), CharsRange("0").Key())
	assert.NotEqual(t, CharsRange("ab").Key(), TokenRange([]string{"ab"}).Key())
	assert.NotEqual(t, p.Key(), ParseRange(p.Key()).Key())

	tokens := TokenRange([]string{"ab"})
	assert.NotEqual(t, tokens.Key(), CharsRange(tokens.Key()).Key())

	assert.Equal(t, "0", p.String())
	assert.Equal(t, "ab", CharsRange("ab").String())
}

func TestRangeCache_PrefixedCharacters(t *testing.T) {
	cache, err := NewRangeCache(RangeCacheSize)
	require.NoError(t, err)

	digits, _ := PresetRange(Digits)
	_, err = cache.Get(digits, nil)
	require.NoError(t, err)

	got, err := cache.Get(ParseRange("preset:0"), nil)
	require.NoError(t, err)
	assert.Equal(t, Restriction{"p", "r", "e", "s", "t", ":", "0", ""}, got)
	assert.Equal(t, 2, cache.Len())
}

func TestNewRestriction(t *testing.T) {
	assert.Equal(t, Restriction{""}, NewRestriction(nil))
	assert.Equal(t, Restriction{"b", "a", ""}, NewRestriction([]string{"b", "", "a", "b", ""}))
}

func TestRangeCache(t *testing.T) {
	cache, err := NewRangeCache(RangeCacheSize)
	require.NoError(t, err)

	first, err := cache.Get(CharsRange("abc"), nil)
	require.NoError(t, err)
	second, err := cache.Get(CharsRange("abc"), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())

	for i := 0; i < 2*RangeCacheSize; i++ {
		_, err := cache.Get(CharsRange(fmt.Sprintf("k%d", i)), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, RangeCacheSize, cache.Len())

	none, err := cache.Get(Range{}, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestRangeCache_ErrorNotCached(t *testing.T) {
	cache, err := NewRangeCache(RangeCacheSize)
	require.NoError(t, err)

	r, _ := PresetRange(CharsetSymbols)
	_, err = cache.Get(r, nil)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}
