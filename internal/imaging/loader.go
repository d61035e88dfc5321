package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
)

// Decode decodes PNG, JPEG, GIF, BMP or TIFF bytes into an image.
//
// Malformed or empty input is reported as an errs.KindDecode error.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errs.Decode(fmt.Errorf("empty image data"))
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Decode(err)
	}
	return img, nil
}

// DecodeNRGBA decodes image bytes and converts the result to non-premultiplied RGBA
// with its origin at (0,0).
func DecodeNRGBA(data []byte) (*image.NRGBA, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}

// EncodePNGBase64 encodes an image as a base64 PNG string.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ByteCache provides thread-safe caching of image file contents to avoid
// redundant disk reads.
//
// The pipelines consume raw image bytes, so the cache stores the undecoded file
// contents keyed by path. Once a file is read, subsequent Load() calls for the
// same path return the cached bytes without disk I/O.
//
// # Memory Management
//
// Cached files remain in memory until explicitly removed via Evict() or Clear().
type ByteCache struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewByteCache creates and initializes a new empty cache.
func NewByteCache() *ByteCache {
	return &ByteCache{
		files: make(map[string][]byte),
	}
}

// Load returns the contents of the file at path, reading it on first use.
//
// The returned slice is shared with the cache and must not be modified.
func (c *ByteCache) Load(path string) ([]byte, error) {
	c.mu.RLock()
	if data, ok := c.files[path]; ok {
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	c.mu.Lock()
	c.files[path] = data
	c.mu.Unlock()

	return data, nil
}

// Clear removes all files from the cache.
func (c *ByteCache) Clear() {
	c.mu.Lock()
	c.files = make(map[string][]byte)
	c.mu.Unlock()
}

// Evict removes a specific file from the cache by its path.
func (c *ByteCache) Evict(path string) {
	c.mu.Lock()
	delete(c.files, path)
	c.mu.Unlock()
}

// Len returns the number of cached files.
func (c *ByteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}
