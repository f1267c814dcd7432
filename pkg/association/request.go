package association

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Summary is the outcome of one request, handed to notifiers
type Summary struct {
	RequestID   string        `json:"request_id" msgpack:"request_id"`
	Label       string        `json:"label,omitempty" msgpack:"label,omitempty"`
	StartedAt   time.Time     `json:"started_at" msgpack:"started_at"`
	Duration    time.Duration `json:"duration" msgpack:"duration"`
	Unpreloaded Report        `json:"unpreloaded" msgpack:"unpreloaded"`
	Unused      Report        `json:"unused,omitempty" msgpack:"unused,omitempty"`
}

// HasFindings reports whether the summary carries anything worth notifying
func (s Summary) HasFindings() bool {
	return !s.Unpreloaded.Empty() || !s.Unused.Empty()
}

// Request is the state of one unit of work. It is owned by a single logical
// thread of control and is not safe for concurrent use.
type Request struct {
	id        string
	config    Config
	detector  Detector
	logger    *zap.Logger
	startedAt time.Time

	tracker  *CallTracker
	preloads *PreloadRegistry
	accesses *AccessRegistry
	ended    bool
}

// NewRequest starts a standalone request handle. A nil config uses DefaultConfig.
func NewRequest(config *Config, logger *zap.Logger) *Request {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Request{
		id:        uuid.NewString(),
		config:    *config,
		detector:  Detector{MinObjects: config.MinObjects},
		startedAt: time.Now(),
		tracker:   NewCallTracker(),
		preloads:  NewPreloadRegistry(),
		accesses:  NewAccessRegistry(),
	}
	r.logger = logger.With(zap.String("request_id", r.id))
	r.logger.Debug("association tracking started")
	return r
}

// ID returns the request identifier
func (r *Request) ID() string {
	return r.id
}

// Active reports whether the request has not been ended
func (r *Request) Active() bool {
	return !r.ended
}

func (r *Request) checkActive() error {
	if r.ended {
		return fmt.Errorf("%w: request %s has ended", ErrNoActiveRequest, r.id)
	}
	return nil
}

// NotifyPreload records a batch load of owner.name under the current context
func (r *Request) NotifyPreload(owner, name string) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	k, err := NewKey(owner, name)
	if err != nil {
		return err
	}

	path := r.tracker.Current()
	r.preloads.Mark(k, path)
	r.logger.Debug("preload", zap.Stringer("association", k), zap.Stringer("context", path))
	return nil
}

// EnterAssociation begins a nested traversal of owner.name
func (r *Request) EnterAssociation(owner, name string) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	k, err := NewKey(owner, name)
	if err != nil {
		return err
	}
	r.tracker.Push(k)
	return nil
}

// LeaveAssociation ends the innermost nested traversal
func (r *Request) LeaveAssociation() error {
	if err := r.checkActive(); err != nil {
		return err
	}
	_, err := r.tracker.Pop()
	return err
}

// NotifyAccess records that owner.name was resolved on the instance with the
// given primary key. A nil primary key marks an unsaved instance and is ignored.
func (r *Request) NotifyAccess(owner, name string, primaryKey interface{}) error {
	if err := r.checkActive(); err != nil {
		return err
	}
	k, err := NewKey(owner, name)
	if err != nil {
		return err
	}

	ref := NewObjectRef(owner, primaryKey)
	if !ref.Persisted() {
		return nil
	}
	path := r.tracker.Current()
	if r.accesses.Record(k, path, ref) {
		r.logger.Debug("access", zap.Stringer("association", k), zap.Stringer("object", ref), zap.Stringer("context", path))
	}
	return nil
}

// WasPreloaded reports whether owner.name was preloaded under the current context
func (r *Request) WasPreloaded(owner, name string) bool {
	if r.ended {
		return false
	}
	return r.preloads.WasPreloaded(Key{Owner: owner, Name: name}, r.tracker.Current())
}

// Context returns the current traversal path
func (r *Request) Context() Path {
	return r.tracker.Current()
}

// UnpreloadAssociations computes the unpreloaded associations so far.
// It does not mutate the request and may be called repeatedly.
func (r *Request) UnpreloadAssociations() (Report, error) {
	if err := r.checkActive(); err != nil {
		return nil, err
	}
	return r.detector.Unpreloaded(r.preloads, r.accesses), nil
}

// UnusedEagerLoading computes preloads that were never accessed.
// Returns ErrDetectionDisabled unless DetectUnusedEagerLoading is set.
func (r *Request) UnusedEagerLoading() (Report, error) {
	if err := r.checkActive(); err != nil {
		return nil, err
	}
	if !r.config.DetectUnusedEagerLoading {
		return nil, ErrDetectionDisabled
	}
	return r.detector.Unused(r.preloads, r.accesses), nil
}

// Summary snapshots the current reports
func (r *Request) Summary() (Summary, error) {
	unpreloaded, err := r.UnpreloadAssociations()
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		RequestID:   r.id,
		StartedAt:   r.startedAt,
		Duration:    time.Since(r.startedAt),
		Unpreloaded: unpreloaded,
	}
	if r.config.DetectUnusedEagerLoading {
		s.Unused = r.detector.Unused(r.preloads, r.accesses)
	}
	return s, nil
}

// End discards the request state. It returns ErrUnbalancedContext when
// entered associations were never left; the state is discarded regardless.
func (r *Request) End() error {
	if err := r.checkActive(); err != nil {
		return err
	}

	depth := r.tracker.Depth()
	path := r.tracker.Current()
	r.ended = true
	r.tracker, r.preloads, r.accesses = NewCallTracker(), NewPreloadRegistry(), NewAccessRegistry()
	r.logger.Debug("association tracking ended", zap.Duration("duration", time.Since(r.startedAt)))

	if depth > 0 {
		return fmt.Errorf("%w: %d association(s) still entered at %s", ErrUnbalancedContext, depth, path)
	}
	return nil
}
