package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solidImage creates an in-memory image filled with a single color.
func solidImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// encodePNG returns the PNG encoding of img.
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// writeTestImage writes a PNG into a temp dir and returns its path.
func writeTestImage(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-image.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, img), 0o600))
	return path
}

func TestDecode(t *testing.T) {
	data := encodePNG(t, solidImage(7, 3, color.NRGBA{10, 20, 30, 255}))

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 7, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not an image")},
		{"truncated png", encodePNG(t, solidImage(4, 4, color.White))[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindDecode), "got %v", err)
		})
	}
}

func TestDecodeNRGBA(t *testing.T) {
	data := encodePNG(t, solidImage(2, 2, color.NRGBA{1, 2, 3, 4}))

	img, err := DecodeNRGBA(data)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(0, 0), img.Rect.Min)
	assert.Equal(t, color.NRGBA{1, 2, 3, 4}, img.NRGBAAt(1, 1))
}

func TestEncodePNGBase64(t *testing.T) {
	src := solidImage(3, 5, color.NRGBA{200, 100, 50, 255})

	encoded, err := EncodePNGBase64(src)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	img, err := DecodeNRGBA(raw)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, img.Pix)
}

func TestByteCache_Load(t *testing.T) {
	path := writeTestImage(t, solidImage(4, 4, color.Black))
	cache := NewByteCache()

	first, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	// A cached entry survives the file disappearing.
	require.NoError(t, os.Remove(path))
	second, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestByteCache_Load_NonExistent(t *testing.T) {
	cache := NewByteCache()
	_, err := cache.Load(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestByteCache_EvictAndClear(t *testing.T) {
	a := writeTestImage(t, solidImage(2, 2, color.White))
	b := filepath.Join(t.TempDir(), "b.png")
	require.NoError(t, os.WriteFile(b, encodePNG(t, solidImage(2, 2, color.Black)), 0o600))

	cache := NewByteCache()
	_, err := cache.Load(a)
	require.NoError(t, err)
	_, err = cache.Load(b)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	cache.Evict(a)
	assert.Equal(t, 1, cache.Len())
	cache.Evict("never-loaded")
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestByteCache_ConcurrentAccess(t *testing.T) {
	path := writeTestImage(t, solidImage(8, 8, color.White))
	cache := NewByteCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := cache.Load(path)
			assert.NoError(t, err)
			assert.NotEmpty(t, data)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}
