// Package server exposes a trained tokenizer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-hindi-bpe/internal/config"
	"github.com/example/go-hindi-bpe/internal/text"
	"github.com/example/go-hindi-bpe/internal/tokenizer"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Codec is the tokenizer surface the handler serves.
type Codec interface {
	Resolve(text string) []tokenizer.Resolution
	Decode(ids []int) string
	Ratio(text string) float64
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   16384,
		requestTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum text length in bytes for POST /encode and
// POST /roundtrip, and the maximum id count for POST /decode.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers caps the number of requests tokenized concurrently. Zero means
// no cap.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets how long a request may wait for a worker slot.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	codec Codec
	opts  options
	sem   chan struct{}
	log   *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, POST /encode,
// POST /decode and POST /roundtrip.
func NewHandler(codec Codec, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		codec: codec,
		opts:  opts,
		log:   opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/encode", h.handleEncode)
	mux.HandleFunc("/decode", h.handleDecode)
	mux.HandleFunc("/roundtrip", h.handleRoundTrip)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type textRequest struct {
	Text string `json:"text"`
}

type encodeResponse struct {
	IDs    []int    `json:"ids"`
	Tokens []string `json:"tokens"`
}

type decodeRequest struct {
	IDs []int `json:"ids"`
}

type decodeResponse struct {
	Text string `json:"text"`
}

type roundTripResponse struct {
	Original string  `json:"original"`
	Decoded  string  `json:"decoded"`
	IDs      []int   `json:"ids"`
	Match    bool    `json:"match"`
	Ratio    float64 `json:"ratio"`
}

func (h *handler) handleEncode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.readText(w, r)
	if !ok {
		return
	}
	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	start := time.Now()
	ids, tokens := h.encode(s)

	h.log.InfoContext(r.Context(), "encode complete",
		slog.Int("text_len", len(s)),
		slog.Int("ids", len(ids)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	writeJSON(w, http.StatusOK, encodeResponse{IDs: ids, Tokens: tokens})
}

func (h *handler) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.IDs == nil {
		writeError(w, http.StatusBadRequest, "ids field is required")
		return
	}
	if len(req.IDs) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("ids exceed maximum count of %d", h.opts.maxTextBytes))
		return
	}
	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	start := time.Now()
	out := h.codec.Decode(req.IDs)

	h.log.InfoContext(r.Context(), "decode complete",
		slog.Int("ids", len(req.IDs)),
		slog.Int("text_len", len(out)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	writeJSON(w, http.StatusOK, decodeResponse{Text: out})
}

func (h *handler) handleRoundTrip(w http.ResponseWriter, r *http.Request) {
	s, ok := h.readText(w, r)
	if !ok {
		return
	}
	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	start := time.Now()
	ids, _ := h.encode(s)
	decoded := h.codec.Decode(ids)
	resp := roundTripResponse{
		Original: s,
		Decoded:  decoded,
		IDs:      ids,
		Match:    decoded == s,
		Ratio:    h.codec.Ratio(s),
	}

	h.log.InfoContext(r.Context(), "roundtrip complete",
		slog.Int("text_len", len(s)),
		slog.Int("ids", len(ids)),
		slog.Bool("match", resp.Match),
		slog.Float64("ratio", resp.Ratio),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) encode(s string) ([]int, []string) {
	res := h.codec.Resolve(s)
	ids := make([]int, len(res))
	tokens := make([]string, len(res))
	for i, x := range res {
		ids[i], tokens[i] = x.ID, x.Token
	}
	return ids, tokens
}

// readText decodes a {"text"} body, enforces the size limit and returns the
// NFC-normalized text. It writes the error response itself.
func (h *handler) readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if !decodeBody(w, r, &req) {
		return "", false
	}
	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return "", false
	}
	s, err := text.Normalize(req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, "text field is required")
		return "", false
	}
	return s, true
}

// acquire takes a worker slot, honouring the request timeout while waiting.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) (func(), bool) {
	if h.sem == nil {
		return func() {}, true
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	select {
	case h.sem <- struct{}{}:
		return func() { <-h.sem }, true
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			h.log.WarnContext(r.Context(), "timed out waiting for worker",
				slog.String("path", r.URL.Path),
				slog.String("error", ctx.Err().Error()),
			)
		}
		writeError(w, http.StatusServiceUnavailable, "timed out waiting for worker")
		return nil, false
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server: wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	codec           Codec
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New returns a server for codec using the listen address, limits and
// shutdown timeout from cfg.
func New(cfg config.Config, codec Codec) *Server {
	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		cfg:             cfg,
		codec:           codec,
		logger:          slog.Default(),
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger sets the request logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	if s.codec == nil {
		return errors.New("server: no tokenizer loaded")
	}

	h := NewHandler(s.codec,
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithWorkers(runtime.GOMAXPROCS(0)),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithLogger(s.logger),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.InfoContext(ctx, "serving", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHTTP checks that a server at addr answers GET /health with 200.
func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
