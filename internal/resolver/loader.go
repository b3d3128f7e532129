package resolver

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"etsy/lister/internal/domain"
)

// AdvisoryConnectivityFailed is shown to the user when the connection status could not be checked
const AdvisoryConnectivityFailed = "Could not fetch data from Etsy. Using default values."

// Sources supplies the inputs of one load cycle. Any call may fail independently.
type Sources interface {
	Connected(ctx context.Context) (bool, error)
	ShippingProfiles(ctx context.Context) ([]domain.ShippingProfile, error)
	Categories(ctx context.Context) ([]domain.CategoryNode, error)
	ReturnPolicies(ctx context.Context) ([]domain.ReturnPolicy, error)
}

// Result is the outcome of a load cycle. It is always fully populated.
type Result struct {
	Connected bool                     `json:"connected"`
	Advisory  string                   `json:"advisory,omitempty"`
	Options   domain.ResolvedOptionSet `json:"options"`
}

// Loader runs load cycles: connectivity check, parallel best-effort fetches, resolve.
// A Loader holds no per-load state; callers that need ordering between concurrent
// loads for the same user must sequence them.
type Loader struct {
	fetchTimeout time.Duration
	onPhase      func(domain.LoadPhase)
}

type Option func(*Loader)

// WithFetchTimeout bounds every individual call to Sources. Zero means no extra bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(l *Loader) { l.fetchTimeout = d }
}

// WithPhaseHook registers a callback invoked on every phase transition
func WithPhaseHook(fn func(domain.LoadPhase)) Option {
	return func(l *Loader) { l.onPhase = fn }
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load never fails: every error degrades to builtin data.
func (l *Loader) Load(ctx context.Context, src Sources) Result {
	l.phase(domain.PhaseIdle)
	l.phase(domain.PhaseLoading)

	connected, err := call(ctx, l.fetchTimeout, src.Connected)
	if err != nil {
		log.Warnf("⚠️ Connection check failed, using defaults for all fields: %v", err)
		l.phase(domain.PhaseDisconnected)
		return l.resolve(false, RemoteData{}, AdvisoryConnectivityFailed)
	}

	if !connected {
		l.phase(domain.PhaseDisconnected)
		return l.resolve(false, RemoteData{}, "")
	}

	l.phase(domain.PhaseConnected)
	l.phase(domain.PhaseFetching)

	var remote RemoteData
	var g errgroup.Group

	// Every task returns nil so one failing fetch never cancels or hides the others
	g.Go(func() error {
		remote.ShippingProfiles = fetch(ctx, l.fetchTimeout, "shipping profiles", src.ShippingProfiles)
		return nil
	})
	g.Go(func() error {
		remote.Categories = fetch(ctx, l.fetchTimeout, "categories", src.Categories)
		return nil
	})
	g.Go(func() error {
		remote.ReturnPolicies = fetch(ctx, l.fetchTimeout, "return policies", src.ReturnPolicies)
		return nil
	})
	_ = g.Wait()

	return l.resolve(true, remote, "")
}

func (l *Loader) resolve(connected bool, remote RemoteData, advisory string) Result {
	options := Resolve(connected, remote, DefaultBuiltins())
	l.phase(domain.PhaseResolved)

	log.Debugf("Resolved listing options: categories=%s shipping=%s returns=%s",
		options.Categories.Source, options.ShippingProfiles.Source, options.ReturnPolicies.Source)

	return Result{
		Connected: connected,
		Advisory:  advisory,
		Options:   options,
	}
}

func (l *Loader) phase(p domain.LoadPhase) {
	if l.onPhase != nil {
		l.onPhase(p)
	}
}

func fetch[T any](ctx context.Context, timeout time.Duration, what string, fn func(context.Context) ([]T, error)) []T {
	items, err := call(ctx, timeout, fn)
	if err != nil {
		log.Warnf("⚠️ Failed to fetch %s, falling back to defaults: %v", what, err)
		return nil
	}
	return items
}

// call runs fn with an optional timeout and turns a panic into an error
func call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (result T, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			var zero T
			result, err = zero, fmt.Errorf("panic: %v", r)
		}
	}()

	return fn(ctx)
}
