// Package bridge exposes a PulseAudio client over HTTP for desktop shell
// components: JSON endpoints for reading and changing devices and streams,
// and a websocket carrying subscription events.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/deskaudio/pulse"
	"github.com/deskaudio/pulse/proto"
)

// Service is the part of *pulse.Client the bridge uses.
type Service interface {
	State() pulse.State
	Observe(fn func(pulse.Event)) (unregister func())

	ServerInfo(ctx context.Context) (*proto.GetServerInfoReply, error)
	Sinks(ctx context.Context) ([]*pulse.Sink, error)
	Sources(ctx context.Context) ([]*pulse.Source, error)
	SinkInputs(ctx context.Context) ([]*proto.GetSinkInputInfoReply, error)
	SourceOutputs(ctx context.Context) ([]*proto.GetSourceOutputInfoReply, error)
	Clients(ctx context.Context) ([]*proto.GetClientInfoReply, error)
	Cards(ctx context.Context) ([]*proto.GetCardInfoReply, error)
	Sink(ctx context.Context, s proto.Selector) (*pulse.Sink, error)
	Source(ctx context.Context, s proto.Selector) (*pulse.Source, error)
	SinkInput(ctx context.Context, index uint32) (*proto.GetSinkInputInfoReply, error)

	SetSinkVolume(ctx context.Context, s proto.Selector, cvol proto.ChannelVolumes) error
	SetSourceVolume(ctx context.Context, s proto.Selector, cvol proto.ChannelVolumes) error
	SetSinkInputVolume(ctx context.Context, index uint32, cvol proto.ChannelVolumes) error
	SetSinkMute(ctx context.Context, s proto.Selector, mute bool) error
	SetSourceMute(ctx context.Context, s proto.Selector, mute bool) error
	SetSinkInputMute(ctx context.Context, index uint32, mute bool) error
	SetDefaultSink(ctx context.Context, name string) error
	SetDefaultSource(ctx context.Context, name string) error
	MoveSinkInput(ctx context.Context, index uint32, sink proto.Selector) error
	KillSinkInput(ctx context.Context, index uint32) error
}

// Config configures a Bridge.
type Config struct {
	Logger *slog.Logger
	// Gatherer is served on /metrics. Nothing is served if it is nil.
	Gatherer prometheus.Gatherer
	// RateLimit and Burst bound the mutating requests, across all callers.
	RateLimit float64
	Burst     int
	// EventBuffer is the number of events queued for the websocket
	// fan-out before new ones are dropped.
	EventBuffer int
}

// Bridge serves a Service over HTTP.
type Bridge struct {
	svc     Service
	cfg     Config
	log     *slog.Logger
	limiter *rate.Limiter
	hub     *Hub
	events  chan pulse.Event
}

func New(svc Service, cfg Config) *Bridge {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	return &Bridge{
		svc:     svc,
		cfg:     cfg,
		log:     cfg.Logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		hub:     NewHub(cfg.Logger),
		events:  make(chan pulse.Event, cfg.EventBuffer),
	}
}

// Hub returns the websocket hub events are broadcast on.
func (b *Bridge) Hub() *Hub {
	return b.hub
}

// Handler returns the HTTP routes of the bridge.
func (b *Bridge) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(b.logRequests)

	r.Get("/healthz", b.health)
	if b.cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(b.cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/events", b.hub.HandleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Get("/server", b.serverInfo)
		r.Get("/sinks", list(b.svc.Sinks, sinkInfos))
		r.Get("/sources", list(b.svc.Sources, sourceInfos))
		r.Get("/sink-inputs", list(b.svc.SinkInputs, same[*proto.GetSinkInputInfoReply]))
		r.Get("/source-outputs", list(b.svc.SourceOutputs, same[*proto.GetSourceOutputInfoReply]))
		r.Get("/clients", list(b.svc.Clients, same[*proto.GetClientInfoReply]))
		r.Get("/cards", list(b.svc.Cards, same[*proto.GetCardInfoReply]))
		r.Get("/sinks/{id}", b.getSink)
		r.Get("/sources/{id}", b.getSource)

		r.Group(func(r chi.Router) {
			r.Use(b.rateLimit)
			r.Put("/sinks/{id}/volume", b.setSinkVolume)
			r.Put("/sinks/{id}/mute", b.setMute(b.svc.SetSinkMute))
			r.Put("/sinks/default", b.setDefault(b.svc.SetDefaultSink))
			r.Put("/sources/{id}/volume", b.setSourceVolume)
			r.Put("/sources/{id}/mute", b.setMute(b.svc.SetSourceMute))
			r.Put("/sources/default", b.setDefault(b.svc.SetDefaultSource))
			r.Put("/sink-inputs/{index}/volume", b.setSinkInputVolume)
			r.Put("/sink-inputs/{index}/mute", b.setSinkInputMute)
			r.Put("/sink-inputs/{index}/sink", b.moveSinkInput)
			r.Delete("/sink-inputs/{index}", b.killSinkInput)
		})
	})
	return r
}

// Run serves the bridge on ln until ctx is done or the client connection
// ends. Subscription events are fanned out to websocket subscribers while
// it runs.
func (b *Bridge) Run(ctx context.Context, ln net.Listener, done <-chan struct{}) error {
	srv := &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	unregister := b.svc.Observe(b.enqueue)
	defer unregister()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return b.fanOut(ctx)
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-done:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		b.hub.Close()
		err := srv.Shutdown(shutdownCtx)
		select {
		case <-done:
			return fmt.Errorf("bridge: %w", proto.ErrConnectionTerminated)
		default:
		}
		return err
	})
	return g.Wait()
}

func (b *Bridge) enqueue(ev pulse.Event) {
	select {
	case b.events <- ev:
	default:
		b.log.Warn("bridge: event dropped", "facility", ev.Facility, "type", ev.Type, "index", ev.Index)
	}
}

func (b *Bridge) fanOut(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.events:
			b.hub.Broadcast(Message{Type: MessageEvent, Event: &ev})
		}
	}
}

func (b *Bridge) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		b.log.Debug("bridge: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (b *Bridge) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Bridge) health(w http.ResponseWriter, r *http.Request) {
	state := b.svc.State()
	status := http.StatusOK
	if state != pulse.StateReady {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"state": state.String()})
}

func (b *Bridge) serverInfo(w http.ResponseWriter, r *http.Request) {
	info, err := b.svc.ServerInfo(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func list[T, U any](fetch func(context.Context) ([]T, error), conv func([]T) []U) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := fetch(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		out := conv(items)
		if out == nil {
			out = []U{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func same[T any](items []T) []T { return items }

func sinkInfos(sinks []*pulse.Sink) []*proto.GetSinkInfoReply {
	out := make([]*proto.GetSinkInfoReply, len(sinks))
	for i, s := range sinks {
		out[i] = s.Info()
	}
	return out
}

func sourceInfos(sources []*pulse.Source) []*proto.GetSourceInfoReply {
	out := make([]*proto.GetSourceInfoReply, len(sources))
	for i, s := range sources {
		out[i] = s.Info()
	}
	return out
}

func (b *Bridge) getSink(w http.ResponseWriter, r *http.Request) {
	s, err := b.svc.Sink(r.Context(), proto.ParseSelector(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Info())
}

func (b *Bridge) getSource(w http.ResponseWriter, r *http.Request) {
	s, err := b.svc.Source(r.Context(), proto.ParseSelector(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Info())
}

// VolumeRequest sets either one percentage for all channels or one per
// channel.
type VolumeRequest struct {
	Percent []float64 `json:"percent"`
}

func (v VolumeRequest) volumes(channels int) (proto.ChannelVolumes, error) {
	ratios := make([]float64, len(v.Percent))
	for i, p := range v.Percent {
		ratios[i] = p / 100
	}
	return pulse.Volumes(channels, ratios...)
}

type MuteRequest struct {
	Mute bool `json:"mute"`
}

type NameRequest struct {
	Name string `json:"name"`
}

type MoveRequest struct {
	Sink string `json:"sink"`
}

func (b *Bridge) setSinkVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := b.svc.Sink(r.Context(), proto.ParseSelector(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cvol, err := req.volumes(len(s.Info().ChannelVolumes))
	if err == nil {
		err = b.svc.SetSinkVolume(r.Context(), s.Selector(), cvol)
	}
	writeResult(w, err)
}

func (b *Bridge) setSourceVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := b.svc.Source(r.Context(), proto.ParseSelector(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cvol, err := req.volumes(len(s.Info().ChannelVolumes))
	if err == nil {
		err = b.svc.SetSourceVolume(r.Context(), s.Selector(), cvol)
	}
	writeResult(w, err)
}

func (b *Bridge) setMute(set func(context.Context, proto.Selector, bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MuteRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeResult(w, set(r.Context(), proto.ParseSelector(chi.URLParam(r, "id")), req.Mute))
	}
}

func (b *Bridge) setDefault(set func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NameRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeResult(w, set(r.Context(), req.Name))
	}
}

func (b *Bridge) setSinkInputVolume(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req VolumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	info, err := b.svc.SinkInput(r.Context(), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	cvol, err := req.volumes(len(info.ChannelVolumes))
	if err == nil {
		err = b.svc.SetSinkInputVolume(r.Context(), index, cvol)
	}
	writeResult(w, err)
}

func (b *Bridge) setSinkInputMute(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req MuteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, b.svc.SetSinkInputMute(r.Context(), index, req.Mute))
}

func (b *Bridge) moveSinkInput(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, b.svc.MoveSinkInput(r.Context(), index, proto.ParseSelector(req.Sink)))
}

func (b *Bridge) killSinkInput(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	writeResult(w, b.svc.KillSinkInput(r.Context(), index))
}

func indexParam(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid index: %w", err))
		return 0, false
	}
	return uint32(n), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusOf maps client errors to HTTP status codes.
func statusOf(err error) int {
	var code proto.Error
	if !errors.As(err, &code) {
		return http.StatusBadGateway
	}
	switch code {
	case proto.ErrInvalidArgument:
		return http.StatusBadRequest
	case proto.ErrNoSuchEntity:
		return http.StatusNotFound
	case proto.ErrAccessDenied:
		return http.StatusForbidden
	case proto.ErrEntityExists:
		return http.StatusConflict
	case proto.ErrNotSupported, proto.ErrUnknownCommand:
		return http.StatusNotImplemented
	case proto.ErrBadState, proto.ErrConnectionTerminated:
		return http.StatusServiceUnavailable
	case proto.ErrTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusOf(err), err)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  *int   `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var code proto.Error
	if errors.As(err, &code) {
		n := int(code)
		resp.Code = &n
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
