package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"maidchan/pkg/assistant"
	"maidchan/pkg/bus"
	"maidchan/pkg/channel"
	"maidchan/pkg/config"
	"maidchan/pkg/metrics"
)

const (
	defaultHealthHost = "0.0.0.0"
	defaultHealthPort = 18790
)

// ErrRateLimited is returned to a channel when a sender exceeded its reply budget.
var ErrRateLimited = errors.New("sender rate limited")

type Service struct {
	cfg       *config.Config
	log       *slog.Logger
	assistant *assistant.Assistant
	events    *bus.MessageBus
	metrics   *metrics.Collector
	limiter   *senderLimiter
	channels  []channel.Adapter

	mu            sync.RWMutex
	startedAt     time.Time
	channelStates map[string]channelState
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Assistant     string                  `json:"assistant"`
	Rules         int                     `json:"rules"`
	Channels      map[string]channelState `json:"channels"`
}

func NewService(cfg *config.Config, maid *assistant.Assistant, events *bus.MessageBus, collector *metrics.Collector, adapters []channel.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if maid == nil {
		return nil, errors.New("assistant is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		assistant:     maid,
		events:        events,
		metrics:       collector,
		limiter:       newSenderLimiter(cfg.Gateway.RateLimit),
		channels:      adapters,
		channelStates: channelStates,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	if s.metrics != nil && s.events != nil {
		events, unsubscribe := s.events.Subscribe(ctx, 0)
		metricsDone := make(chan struct{})
		go func() {
			defer close(metricsDone)
			s.metrics.Run(events)
		}()
		defer func() {
			unsubscribe()
			<-metricsDone
		}()
	}

	serverErrors := make(chan error, 1)
	go s.runHealthServer(ctx, serverErrors)

	errCh := make(chan error, len(s.channels))
	for _, adapter := range s.channels {
		s.setChannelState(adapter.Name(), channelState{Running: true})

		go func() {
			err := adapter.Run(ctx, s.handleInbound)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
		}()
	}

	s.log.Info("Gateway started", "assistant", s.assistant.Name(), "rules", s.assistant.Registry().Len(), "channels", len(s.channels))

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErrors:
		return err
	case err := <-errCh:
		return err
	}
}

func (s *Service) handleInbound(ctx context.Context, inbound bus.InboundMessage) (bus.OutboundMessage, error) {
	outbound := bus.OutboundMessage{
		Channel: inbound.Channel,
		ChatID:  inbound.ChatID,
	}

	if !s.limiter.Allow(senderKey(inbound.Channel, inbound.SenderID)) {
		s.log.Warn("Dropping message from rate limited sender", "channel", inbound.Channel, "sender_id", inbound.SenderID)
		s.events.Publish(ctx, bus.Event{
			Type:     bus.EventRateLimited,
			Channel:  inbound.Channel,
			ChatID:   inbound.ChatID,
			SenderID: inbound.SenderID,
		})
		outbound.Error = ErrRateLimited.Error()
		return outbound, ErrRateLimited
	}

	reply, ok := s.assistant.Respond(ctx, inbound)
	outbound.Rule = reply.Rule
	outbound.Metadata = map[string]string{assistant.MetadataRequestID: reply.RequestID}
	if reply.Scope != "" {
		outbound.Metadata["scope"] = reply.Scope.String()
	}
	if ok {
		outbound.Content = reply.Text
	}

	return outbound, nil
}

func (s *Service) runHealthServer(ctx context.Context, errCh chan<- error) {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHealthHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultHealthPort
	}

	addr := host + ":" + strconv.Itoa(port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	return mux
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		Assistant:     s.assistant.Name(),
		Rules:         s.assistant.Registry().Len(),
		Channels:      channels,
	}
}

// isReady reports whether at least one channel is running.
func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, state := range s.channelStates {
		if state.Running {
			return true
		}
	}

	return false
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
