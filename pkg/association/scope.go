package association

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Scope holds at most one active request. Starting a request while another is
// active is rejected with ErrDuplicateStart rather than silently resetting.
type Scope struct {
	mu     sync.Mutex
	config *Config
	logger *zap.Logger
	active *Request
}

// NewScope creates a scope that starts requests with the given config
func NewScope(config *Config, logger *zap.Logger) *Scope {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scope{config: config, logger: logger}
}

// Start begins a new request
func (s *Scope) Start() (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && s.active.Active() {
		return nil, ErrDuplicateStart
	}
	s.active = NewRequest(s.config, s.logger)
	return s.active, nil
}

// Current returns the active request
func (s *Scope) Current() (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || !s.active.Active() {
		return nil, ErrNoActiveRequest
	}
	return s.active, nil
}

// UnpreloadAssociations reports on the active request without ending it
func (s *Scope) UnpreloadAssociations() (Report, error) {
	req, err := s.Current()
	if err != nil {
		return nil, err
	}
	return req.UnpreloadAssociations()
}

// End finishes the active request and returns its final summary. The summary
// is valid even when the returned error is ErrUnbalancedContext.
func (s *Scope) End() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || !s.active.Active() {
		return Summary{}, ErrNoActiveRequest
	}
	req := s.active
	s.active = nil

	summary, err := req.Summary()
	if err != nil {
		return Summary{}, err
	}
	return summary, req.End()
}

type contextKey struct{}

// WithRequest returns a context carrying req
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, contextKey{}, req)
}

// FromContext returns the active request carried by ctx, if any
func FromContext(ctx context.Context) (*Request, bool) {
	if ctx == nil {
		return nil, false
	}
	req, ok := ctx.Value(contextKey{}).(*Request)
	if !ok || req == nil || !req.Active() {
		return nil, false
	}
	return req, true
}
