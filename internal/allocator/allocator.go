package allocator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bootmatch/internal/cmdb"
	"bootmatch/internal/hw"
	"bootmatch/internal/lock"
	"bootmatch/internal/matcher"
	"bootmatch/internal/metrics"
	"bootmatch/internal/profile"
	"bootmatch/internal/pxe"
	"bootmatch/internal/store"
	"bootmatch/pkg/logging"

	"github.com/google/uuid"
)

// Result is what a successful request sends back to the machine.
type Result struct {
	RequestID string
	Profile   string
	// Vars is the merged binding map: captured variables overlaid with the
	// reserved CMDB entry.
	Vars     matcher.Bindings
	Template []byte
	// CMDBIndex is the reserved entry, or -1 when the profile has no CMDB.
	CMDBIndex int
	Reused    bool
	// Trailer is appended after the template, empty unless PXE
	// registration is enabled.
	Trailer string
}

// Service runs allocation requests against a store under a lock.
type Service struct {
	store  store.Store
	locker lock.Locker
	pxe    *pxe.Registrar
}

// Option configures a Service.
type Option func(*Service)

// WithPXE enables registration with pxemngr.
func WithPXE(r *pxe.Registrar) Option {
	return func(s *Service) { s.pxe = r }
}

// New returns a Service.
func New(st store.Store, locker lock.Locker, opts ...Option) *Service {
	s := &Service{store: st, locker: locker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allocate selects a profile for facts, reserves a CMDB entry and persists
// the new state. Errors wrap *profile.NoMatchError when nothing matched and
// cmdb.ErrPoolExhausted when the CMDB is full; in both cases no state has
// been written.
func (s *Service) Allocate(ctx context.Context, facts hw.Facts) (*Result, error) {
	reqID := uuid.NewString()
	log := logging.For("Allocator").With("request", reqID)

	res, outcome, err := s.allocate(ctx, facts, reqID, log)
	metrics.Requests.WithLabelValues(outcome).Inc()
	return res, err
}

func (s *Service) allocate(ctx context.Context, facts hw.Facts, reqID string, log logging.Logger) (*Result, string, error) {
	trailer := ""
	if s.pxe != nil {
		if sys, err := s.pxe.Register(ctx, facts); err != nil {
			log.Warn("pxe registration failed: %v", err)
		} else {
			log.Info("registered %s with pxemngr", sys.Name)
		}
		trailer = s.pxe.Trailer()
	}

	start := time.Now()
	held, err := s.locker.Acquire(ctx)
	if err != nil {
		return nil, metrics.OutcomeError, err
	}
	defer func() { _ = held.Release() }()
	metrics.LockWait.Observe(time.Since(start).Seconds())

	// Once the lock is held the request runs to completion: a caller going
	// away between the CMDB and state writes must not split them.
	ctx = context.WithoutCancel(ctx)

	profiles, err := s.store.LoadProfiles(ctx)
	if err != nil {
		log.Error(err, "unable to load profiles")
		return nil, metrics.OutcomeError, err
	}

	sel, err := profile.Select(facts, profiles)
	if err != nil {
		var noMatch *profile.NoMatchError
		if errors.As(err, &noMatch) {
			log.Error(err, "Unable to match requirements\n%s", noMatch.Diagnostic())
			return nil, metrics.OutcomeNoMatch, err
		}
		log.Error(err, "profile selection failed")
		return nil, metrics.OutcomeError, err
	}
	name := sel.Profile.Name
	log.Info("matched profile %s (remaining uses %s)", name, sel.Profile.Uses)

	if err := profile.Consume(profiles, sel.Index); err != nil {
		return nil, metrics.OutcomeError, err
	}

	res := &Result{
		RequestID: reqID,
		Profile:   name,
		Vars:      sel.Vars,
		Template:  sel.Profile.Template,
		CMDBIndex: -1,
		Trailer:   trailer,
	}
	outcome := metrics.OutcomeNoCMDB

	entries, err := s.store.LoadCMDB(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Debug("profile %s has no CMDB", name)
	case err != nil:
		log.Error(err, "unable to load the CMDB of %s", name)
		return nil, metrics.OutcomeError, err
	default:
		updated, alloc, err := cmdb.Allocate(entries, sel.Vars, sel.Prefs)
		if err != nil {
			log.Error(err, "No more entry in the CMDB of %s, aborting", name)
			return nil, metrics.OutcomeExhausted, fmt.Errorf("profile %s: %w", name, err)
		}
		if err := s.store.SaveCMDB(ctx, name, updated); err != nil {
			log.Error(err, "unable to save the CMDB of %s", name)
			return nil, metrics.OutcomeError, err
		}
		res.Vars, res.CMDBIndex, res.Reused = alloc.Vars, alloc.Index, alloc.Reused
		metrics.FreeEntries.WithLabelValues(name).Set(float64(cmdb.Free(updated)))
		outcome = metrics.OutcomeAllocated
		if alloc.Reused {
			outcome = metrics.OutcomeReused
		}
		log.Info("CMDB entry %d of %s assigned (reused=%t)", alloc.Index, name, alloc.Reused)
	}

	if err := s.store.SaveProfiles(ctx, profiles); err != nil {
		log.Error(err, "unable to save profile state")
		return nil, metrics.OutcomeError, err
	}
	metrics.Selections.WithLabelValues(name).Inc()
	if uses := profiles[sel.Index].Uses; !uses.IsUnlimited() {
		metrics.RemainingUses.WithLabelValues(name).Set(float64(uses.Count()))
	}

	return res, outcome, nil
}

// Match runs the profile selection only: no lock, no state change. It is
// meant for operators checking which profile a fact dump would get.
func (s *Service) Match(ctx context.Context, facts hw.Facts) (*profile.Selection, error) {
	profiles, err := s.store.LoadProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return profile.Select(facts, profiles)
}
