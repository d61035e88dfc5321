// Package service owns the recognition models and exposes the captcha
// operations behind feature toggles.
//
// A Service holds at most one OCR classifier and one detector. Either can be
// loaded or dropped at run time through Toggle while requests are in flight:
// a request works on the model it found when it started, and a dropped model
// is closed once its current inference finishes.
package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/cyclopcam/logs"
	"github.com/ironsheep/captcha-tools-mcp/internal/detection"
	"github.com/ironsheep/captcha-tools-mcp/internal/engine"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	raster "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
	"github.com/ironsheep/captcha-tools-mcp/internal/ocr"
	"github.com/ironsheep/captcha-tools-mcp/internal/slide"
)

// EngineFactory creates an inference engine from model bytes.
type EngineFactory func(model []byte) (engine.Engine, error)

// ONNXEngine is the default EngineFactory: an ONNX Runtime session behind a
// mutex. engine.InitRuntime must have succeeded first.
func ONNXEngine(model []byte) (engine.Engine, error) {
	e, err := engine.NewONNX(model)
	if err != nil {
		return nil, err
	}
	return engine.NewLocked(e), nil
}

// Options configures a Service.
type Options struct {
	// OCRPath is the classification model. Its charset is read from the same
	// path with a .json extension.
	OCRPath string

	// DetPath is the detection model.
	DetPath string

	// CharsetRange is the default OCR restriction specifier. Empty means
	// unrestricted.
	CharsetRange string

	DisableOCR   bool
	DisableDet   bool
	DisableSlide bool

	// NewEngine creates engines for loaded models. Nil means ONNXEngine.
	NewEngine EngineFactory
}

// Service runs captcha operations against the currently enabled models.
type Service struct {
	log       logs.Log
	opts      Options
	newEngine EngineFactory
	ranges    *ocr.RangeCache

	// toggleMu serializes loading and unloading.
	toggleMu sync.Mutex

	mu         sync.RWMutex
	classifier *ocr.Classifier
	detector   *detection.Detector
	slide      atomic.Bool
}

// New creates a service and loads every feature not disabled in opts. A model
// that fails to load is logged and left disabled; it can be enabled later
// through Toggle.
func New(log logs.Log, opts Options) (*Service, error) {
	ranges, err := ocr.NewRangeCache(ocr.RangeCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Service{
		log:       log,
		opts:      opts,
		newEngine: opts.NewEngine,
		ranges:    ranges,
	}
	if s.newEngine == nil {
		s.newEngine = ONNXEngine
	}

	s.slide.Store(!opts.DisableSlide)

	if !opts.DisableOCR {
		if err := s.enableOCR(); err != nil {
			s.log.Warnf("OCR not loaded: %v", err)
		}
	}
	if !opts.DisableDet {
		if err := s.enableDet(); err != nil {
			s.log.Warnf("Detection not loaded: %v", err)
		}
	}
	return s, nil
}

// OCR recognizes the text in req.Image.
func (s *Service) OCR(ctx context.Context, req *OCRRequest) (*OCRResponse, error) {
	classifier := s.currentClassifier()
	if classifier == nil {
		return nil, errs.Configuration("OCR is not enabled")
	}

	data, err := imageBytes("image", req.Image, req.ImageData)
	if err != nil {
		return nil, err
	}

	opts := ocr.Options{PNGFix: req.PNGFix, Filter: req.ColorFilter}
	if req.CharsetRange != nil && !req.CharsetRange.IsZero() {
		restriction, err := s.ranges.Get(*req.CharsetRange, classifier.Charset())
		if err != nil {
			return nil, err
		}
		opts.Restriction = restriction
	}

	p, err := run(ctx, func() (*ocr.CharacterProbability, error) {
		return classifier.Probability(data, opts)
	})
	if err != nil {
		return nil, err
	}

	resp := &OCRResponse{Text: p.Text()}
	if req.Probability {
		resp.Probability = p.Probability
		resp.Charset = p.Charset
	}
	s.log.Debugf("OCR: %q", resp.Text)
	return resp, nil
}

// Detect finds object boxes in req.Image.
func (s *Service) Detect(ctx context.Context, req *DETRequest) (*DETResponse, error) {
	detector := s.currentDetector()
	if detector == nil {
		return nil, errs.Configuration("detection is not enabled")
	}

	data, err := imageBytes("image", req.Image, req.ImageData)
	if err != nil {
		return nil, err
	}

	return run(ctx, func() (*DETResponse, error) {
		img, err := raster.Decode(data)
		if err != nil {
			return nil, err
		}
		boxes, err := detector.DetectImage(img)
		if err != nil {
			return nil, err
		}

		resp := &DETResponse{BBoxes: make([][4]int, len(boxes))}
		for i, b := range boxes {
			resp.BBoxes[i] = [4]int{b.X1, b.Y1, b.X2, b.Y2}
		}
		if req.Annotate {
			resp.Annotated, err = raster.EncodePNGBase64(raster.DrawBoxes(img, boxes, raster.DefaultBoxColor))
			if err != nil {
				return nil, fmt.Errorf("failed to encode annotated image: %w", err)
			}
		}
		s.log.Debugf("Detect: %d boxes", len(boxes))
		return resp, nil
	})
}

// SlideMatch locates the puzzle piece req.TargetImage in req.BackgroundImage.
func (s *Service) SlideMatch(ctx context.Context, req *SlideRequest) (*SlideResponse, error) {
	if !s.slide.Load() {
		return nil, errs.Configuration("slide feature is disabled")
	}

	target, err := imageBytes("target_image", req.TargetImage, req.TargetData)
	if err != nil {
		return nil, err
	}
	bg, err := imageBytes("background_image", req.BackgroundImage, req.BackgroundData)
	if err != nil {
		return nil, err
	}

	match := slide.Match
	if req.SimpleTarget {
		match = slide.SimpleMatch
	}
	r, err := run(ctx, func() (*slide.Result, error) {
		return match(target, bg)
	})
	if err != nil {
		return nil, err
	}

	return &SlideResponse{
		Target:  [4]int{r.X1, r.Y1, r.X2, r.Y2},
		TargetX: r.TargetX,
		TargetY: r.TargetY,
	}, nil
}

// SlideCompare locates the gap that differs between req.TargetImage and
// req.BackgroundImage.
func (s *Service) SlideCompare(ctx context.Context, req *CompareRequest) (*CompareResponse, error) {
	if !s.slide.Load() {
		return nil, errs.Configuration("slide feature is disabled")
	}

	target, err := imageBytes("target_image", req.TargetImage, req.TargetData)
	if err != nil {
		return nil, err
	}
	bg, err := imageBytes("background_image", req.BackgroundImage, req.BackgroundData)
	if err != nil {
		return nil, err
	}

	return run(ctx, func() (*CompareResponse, error) {
		pt, err := slide.Compare(target, bg)
		if err != nil {
			return nil, err
		}
		return &CompareResponse{X: pt.X, Y: pt.Y}, nil
	})
}

// Toggle enables or disables features and returns the resulting status.
//
// Enabling a model that is already loaded does nothing. A model that fails to
// load is logged and stays disabled; the returned status shows the outcome.
func (s *Service) Toggle(ctx context.Context, req *ToggleRequest) (*StatusResponse, error) {
	if req.Slide != nil {
		s.slide.Store(*req.Slide)
	}

	_, err := run(ctx, func() (struct{}, error) {
		if req.OCR != nil {
			if *req.OCR {
				if err := s.enableOCR(); err != nil {
					s.log.Errorf("Failed to enable OCR: %v", err)
				}
			} else {
				s.disableOCR()
			}
		}
		if req.Det != nil {
			if *req.Det {
				if err := s.enableDet(); err != nil {
					s.log.Errorf("Failed to enable detection: %v", err)
				}
			} else {
				s.disableDet()
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.Status(), nil
}

// Status reports the enabled features in the order ocr, det, slide.
func (s *Service) Status() *StatusResponse {
	enabled := []string{}
	if s.currentClassifier() != nil {
		enabled = append(enabled, FeatureOCR)
	}
	if s.currentDetector() != nil {
		enabled = append(enabled, FeatureDet)
	}
	if s.slide.Load() {
		enabled = append(enabled, FeatureSlide)
	}
	return &StatusResponse{ServiceStatus: "running", EnabledFeatures: enabled}
}

// Close drops every loaded model.
func (s *Service) Close() error {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.mu.Lock()
	classifier, detector := s.classifier, s.detector
	s.classifier, s.detector = nil, nil
	s.mu.Unlock()

	var err error
	if classifier != nil {
		err = classifier.Close()
	}
	if detector != nil {
		if e := detector.Close(); err == nil {
			err = e
		}
	}
	return err
}

func (s *Service) currentClassifier() *ocr.Classifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classifier
}

func (s *Service) currentDetector() *detection.Detector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detector
}

func (s *Service) enableOCR() error {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()
	if s.currentClassifier() != nil {
		return nil
	}

	classifier, err := s.loadOCR()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.classifier = classifier
	s.mu.Unlock()
	// CharsetSymbols restrictions depend on the charset.
	s.ranges.Purge()
	s.log.Infof("OCR loaded from %v", s.opts.OCRPath)
	return nil
}

func (s *Service) disableOCR() {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.mu.Lock()
	classifier := s.classifier
	s.classifier = nil
	s.mu.Unlock()

	if classifier != nil {
		if err := classifier.Close(); err != nil {
			s.log.Warnf("Failed to close OCR model: %v", err)
		}
		s.log.Infof("OCR disabled")
	}
}

func (s *Service) enableDet() error {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()
	if s.currentDetector() != nil {
		return nil
	}

	detector, err := s.loadDet()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.detector = detector
	s.mu.Unlock()
	s.log.Infof("Detection loaded from %v", s.opts.DetPath)
	return nil
}

func (s *Service) disableDet() {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.mu.Lock()
	detector := s.detector
	s.detector = nil
	s.mu.Unlock()

	if detector != nil {
		if err := detector.Close(); err != nil {
			s.log.Warnf("Failed to close detection model: %v", err)
		}
		s.log.Infof("Detection disabled")
	}
}

func (s *Service) loadOCR() (*ocr.Classifier, error) {
	model, err := os.ReadFile(s.opts.OCRPath)
	if err != nil {
		return nil, errs.Configuration("failed to read OCR model %s: %v", s.opts.OCRPath, err)
	}
	cs, err := ocr.LoadCharset(ocr.CharsetPath(s.opts.OCRPath))
	if err != nil {
		return nil, err
	}

	e, err := s.newEngine(model)
	if err != nil {
		return nil, errs.Configuration("failed to create OCR engine: %v", err)
	}
	classifier, err := ocr.NewClassifier(e, cs, ocr.NormalizationFor(model, cs.Channel))
	if err != nil {
		e.Close()
		return nil, err
	}
	if s.opts.CharsetRange != "" {
		if err := classifier.SetDefaultRange(ocr.ParseRange(s.opts.CharsetRange)); err != nil {
			classifier.Close()
			return nil, err
		}
	}
	return classifier, nil
}

func (s *Service) loadDet() (*detection.Detector, error) {
	model, err := os.ReadFile(s.opts.DetPath)
	if err != nil {
		return nil, errs.Configuration("failed to read detection model %s: %v", s.opts.DetPath, err)
	}
	e, err := s.newEngine(model)
	if err != nil {
		return nil, errs.Configuration("failed to create detection engine: %v", err)
	}
	return detection.NewDetector(e), nil
}

// run executes fn on its own goroutine and waits for it or for ctx. When ctx
// ends first the computation still runs to completion; its result is dropped.
func run[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.value, r.err
	}
}
