// Package engine is the narrow contract between the recognition pipelines and
// the neural inference runtime.
//
// A pipeline hands the engine one float32 tensor of known shape and receives
// one float32 tensor back. Nothing else about the network is visible: the
// pipelines own all pre- and post-processing.
//
// # Thread Safety
//
// Engines are not assumed to be reentrant. Wrap every handle that may be
// shared between goroutines in a Locked, which serializes Run calls on that
// handle while leaving distinct handles free to run concurrently.
package engine

import (
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by Run on an engine that has been closed.
var ErrClosed = errors.New("engine is closed")

// Tensor is a dense float32 tensor in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor(shape ...int64) Tensor {
	return Tensor{
		Shape: shape,
		Data:  make([]float32, elements(shape)),
	}
}

// Elements returns the number of elements implied by the shape.
func (t Tensor) Elements() int {
	return elements(t.Shape)
}

// Validate checks that the data length matches the shape.
func (t Tensor) Validate() error {
	if n := t.Elements(); n != len(t.Data) {
		return fmt.Errorf("tensor shape %v implies %d elements, got %d", t.Shape, n, len(t.Data))
	}
	return nil
}

func elements(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return int(n)
}

// Engine runs a single-input, single-output model.
type Engine interface {
	// Run executes the model once. A shape the model cannot accept is an
	// error for this call only.
	Run(input Tensor) (Tensor, error)

	// Close releases the runtime resources behind the engine.
	Close() error
}

// Func adapts a plain function to the Engine interface.
type Func func(input Tensor) (Tensor, error)

func (f Func) Run(input Tensor) (Tensor, error) {
	return f(input)
}

func (f Func) Close() error {
	return nil
}

// Locked serializes access to an engine handle.
type Locked struct {
	mu     sync.Mutex
	inner  Engine
	closed bool
}

// NewLocked wraps inner so that at most one Run is in flight at a time.
func NewLocked(inner Engine) *Locked {
	return &Locked{inner: inner}
}

func (l *Locked) Run(input Tensor) (Tensor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Tensor{}, ErrClosed
	}
	return l.inner.Run(input)
}

// Close waits for an in-flight Run, then closes the inner engine. Later Run
// calls fail with ErrClosed.
func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.inner.Close()
}
