package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	"github.com/ironsheep/captcha-tools-mcp/internal/service"
	"github.com/julienschmidt/httprouter"
)

// MaxBodyBytes is the largest request body the HTTP API accepts.
const MaxBodyBytes = 50 * 1024 * 1024

// Response is the envelope of every HTTP API response. Kind is set on
// failures raised by the recognition pipelines.
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Kind errs.Kind   `json:"kind,omitempty"`
	Data interface{} `json:"data"`
}

// HTTP serves the captcha operations as a JSON API:
//
//	POST /ocr, /det, /slide-match, /slide-comparison, /toggle-feature
//	GET  /status
type HTTP struct {
	svc    *service.Service
	log    logs.Log
	router *httprouter.Router
}

// NewHTTP builds the API router. A positive rateLimit caps each client IP at
// that many requests per minute across all routes.
func NewHTTP(svc *service.Service, log logs.Log, rateLimit int) *HTTP {
	h := &HTTP{
		svc:    svc,
		log:    log,
		router: httprouter.New(),
	}

	var limited func(http.Handler) http.Handler
	if rateLimit > 0 {
		limited = httprate.Limit(rateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	}

	route := func(method, path string, handle func(w http.ResponseWriter, r *http.Request)) {
		var handler http.Handler = http.HandlerFunc(handle)
		if limited != nil {
			handler = limited(handler)
		}
		www.Handle(log, h.router, method, path, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			handler.ServeHTTP(w, r)
		})
	}

	route("POST", "/ocr", h.httpOCR)
	route("POST", "/det", h.httpDetect)
	route("POST", "/slide-match", h.httpSlideMatch)
	route("POST", "/slide-comparison", h.httpSlideComparison)
	route("POST", "/toggle-feature", h.httpToggleFeature)
	route("GET", "/status", h.httpStatus)

	return h
}

func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully, giving in-flight requests up to shutdownTimeout to finish.
func (h *HTTP) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	h.log.Infof("Listening on %v %v", ln.Addr().Network(), ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}

func (h *HTTP) httpOCR(w http.ResponseWriter, r *http.Request) {
	var req service.OCRRequest
	www.ReadJSON(w, r, &req, MaxBodyBytes)
	resp, err := h.svc.OCR(r.Context(), &req)
	h.send(w, r, resp, err)
}

func (h *HTTP) httpDetect(w http.ResponseWriter, r *http.Request) {
	var req service.DETRequest
	www.ReadJSON(w, r, &req, MaxBodyBytes)
	resp, err := h.svc.Detect(r.Context(), &req)
	h.send(w, r, resp, err)
}

func (h *HTTP) httpSlideMatch(w http.ResponseWriter, r *http.Request) {
	var req service.SlideRequest
	www.ReadJSON(w, r, &req, MaxBodyBytes)
	resp, err := h.svc.SlideMatch(r.Context(), &req)
	h.send(w, r, resp, err)
}

func (h *HTTP) httpSlideComparison(w http.ResponseWriter, r *http.Request) {
	var req service.CompareRequest
	www.ReadJSON(w, r, &req, MaxBodyBytes)
	resp, err := h.svc.SlideCompare(r.Context(), &req)
	h.send(w, r, resp, err)
}

func (h *HTTP) httpToggleFeature(w http.ResponseWriter, r *http.Request) {
	var req service.ToggleRequest
	www.ReadJSON(w, r, &req, MaxBodyBytes)
	resp, err := h.svc.Toggle(r.Context(), &req)
	h.send(w, r, resp, err)
}

func (h *HTTP) httpStatus(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.svc.Status(), nil)
}

// send writes data in a success envelope, or err in a failure envelope with
// the status from StatusFor.
func (h *HTTP) send(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if err == nil {
		www.SendJSON(w, &Response{Code: http.StatusOK, Msg: "success", Data: data})
		return
	}

	code := StatusFor(err)
	h.log.Infof("Failed request %v: %v %v", r.URL.Path, code, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(&Response{Code: code, Msg: err.Error(), Kind: errs.KindOf(err)})
}

// StatusFor maps an error to an HTTP status: 400 for undecodable or
// mismatched input, 503 for a disabled feature, 500 otherwise.
func StatusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindDecode, errs.KindDimension:
		return http.StatusBadRequest
	case errs.KindConfiguration:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
