package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/store"
)

// Operation names a relationship transition.
type Operation string

const (
	OpFollow   Operation = "follow"
	OpUnfollow Operation = "unfollow"
	OpBlock    Operation = "block"
	OpUnblock  Operation = "unblock"
)

// Outcome is the aggregate result of the paired user writes.
type Outcome string

const (
	OutcomeApplied Outcome = "applied" // every write succeeded
	OutcomeFailed  Outcome = "failed"  // no write succeeded
	OutcomePartial Outcome = "partial" // exactly one of two writes succeeded
)

// Side identifies one of the two records touched by an operation.
type Side string

const (
	SideViewer Side = "viewer"
	SideTarget Side = "target"
)

// DivergenceJournal persists partial updates that were not rolled back.
type DivergenceJournal interface {
	Record(ctx context.Context, d *models.Divergence) error
}

// RelationshipResult describes what a relationship operation did to each record.
type RelationshipResult struct {
	Operation Operation
	Viewer    string
	Target    string
	Outcome   Outcome

	ViewerErr error
	TargetErr error

	Compensated     bool  // the applied side of a partial update was restored
	CompensationErr error // restore attempted and failed
	Journaled       bool  // the divergence was written to the journal

	ViewerRecord *models.UserRef // record after the operation, nil when unknown
	TargetRecord *models.UserRef
}

// RelationshipOpts contains configuration for a [RelationshipManager].
type RelationshipOpts struct {
	Compensate bool              // restore the applied side when its pair fails
	Journal    DivergenceJournal // optional
	Logger     *log.Logger
}

// RelationshipManager performs follow, unfollow, block and unblock across the viewer and target records.
//
// Next states are computed from the records held in the store, loading them first when absent.
type RelationshipManager struct {
	backend services.Backend
	store   *store.Store
	opts    RelationshipOpts
	logger  *log.Logger
}

// NewRelationshipManager creates a [RelationshipManager].
func NewRelationshipManager(backend services.Backend, st *store.Store, opts RelationshipOpts) *RelationshipManager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &RelationshipManager{
		backend: backend,
		store:   st,
		opts:    opts,
		logger:  shared.WithLogger(opts.Logger, "component", "relationships"),
	}
}

// Load reads username from the backend into the store.
//
// The returned record is the one fetched; the store keeps it only if no later-issued request has written that user.
func (m *RelationshipManager) Load(ctx context.Context, username string) (*models.UserRef, error) {
	tok := m.store.BeginUser()
	user, err := m.backend.User(ctx, username)
	if err != nil {
		return nil, err
	}
	if !m.store.PutUser(tok, *user) {
		m.logger.Debug("dropped stale profile reload", "username", username, "token", tok)
	}
	return user, nil
}

func (m *RelationshipManager) current(ctx context.Context, username string) (models.UserRef, error) {
	if user, ok := m.store.User(username); ok {
		return user, nil
	}
	user, err := m.Load(ctx, username)
	if err != nil {
		return models.UserRef{}, err
	}
	return *user, nil
}

// Follow makes viewer follow target.
func (m *RelationshipManager) Follow(ctx context.Context, viewer, target string) (*RelationshipResult, error) {
	return m.apply(ctx, OpFollow, viewer, target)
}

// Unfollow removes the follow edge from viewer to target.
func (m *RelationshipManager) Unfollow(ctx context.Context, viewer, target string) (*RelationshipResult, error) {
	return m.apply(ctx, OpUnfollow, viewer, target)
}

// Block records target as blocked by viewer and removes follow edges in both directions.
func (m *RelationshipManager) Block(ctx context.Context, viewer, target string) (*RelationshipResult, error) {
	return m.apply(ctx, OpBlock, viewer, target)
}

// Unblock removes target from viewer's blocked set. Follow edges removed by the block are not restored.
func (m *RelationshipManager) Unblock(ctx context.Context, viewer, target string) (*RelationshipResult, error) {
	return m.apply(ctx, OpUnblock, viewer, target)
}

// Run dispatches op.
func (m *RelationshipManager) Run(ctx context.Context, op Operation, viewer, target string) (*RelationshipResult, error) {
	switch op {
	case OpFollow, OpUnfollow, OpBlock, OpUnblock:
		return m.apply(ctx, op, viewer, target)
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", shared.ErrInvalidInput, op)
	}
}

func validatePair(viewer, target string) error {
	if strings.TrimSpace(viewer) == "" || strings.TrimSpace(target) == "" {
		return fmt.Errorf("%w: viewer and target are required", shared.ErrInvalidInput)
	}
	if viewer == target {
		return fmt.Errorf("%w: %s cannot target themselves", shared.ErrInvalidInput, viewer)
	}
	return nil
}

// patches computes the viewer and target writes for op. A nil target patch means the target is not written.
func patches(op Operation, v, t models.UserRef) (models.UserPatch, *models.UserPatch) {
	switch op {
	case OpFollow:
		return models.UserPatch{Following: models.With(v.Following, t.Username)},
			&models.UserPatch{Followers: models.With(t.Followers, v.Username)}
	case OpUnfollow:
		return models.UserPatch{Following: models.Without(v.Following, t.Username)},
			&models.UserPatch{Followers: models.Without(t.Followers, v.Username)}
	case OpBlock:
		return models.UserPatch{
				Blocked:   models.With(v.Blocked, t.Username),
				Following: models.Without(v.Following, t.Username),
				Followers: models.Without(v.Followers, t.Username),
			}, &models.UserPatch{
				Following: models.Without(t.Following, v.Username),
				Followers: models.Without(t.Followers, v.Username),
			}
	default:
		return models.UserPatch{Blocked: models.Without(v.Blocked, t.Username)}, nil
	}
}

// restorePatch writes back prev's value of every field p touches.
func restorePatch(prev models.UserRef, p models.UserPatch) models.UserPatch {
	orEmpty := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}

	var r models.UserPatch
	if p.Following != nil {
		r.Following = orEmpty(prev.Following)
	}
	if p.Followers != nil {
		r.Followers = orEmpty(prev.Followers)
	}
	if p.Blocked != nil {
		r.Blocked = orEmpty(prev.Blocked)
	}
	return r
}

type patchResult struct {
	user *models.UserRef
	err  error
}

func (m *RelationshipManager) apply(ctx context.Context, op Operation, viewer, target string) (*RelationshipResult, error) {
	if err := validatePair(viewer, target); err != nil {
		return nil, err
	}

	v, err := m.current(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %w", shared.ErrMutationFailed, viewer, err)
	}
	t, err := m.current(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %s: %w", shared.ErrMutationFailed, target, err)
	}

	if op == OpFollow && v.HasBlocked(target) {
		return nil, fmt.Errorf("%w: %s has blocked %s, unblock first", shared.ErrInvalidTransition, viewer, target)
	}

	vPatch, tPatch := patches(op, v, t)
	tok := m.store.BeginUser()

	var vRes, tRes patchResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		vRes.user, vRes.err = m.backend.PatchUser(ctx, viewer, vPatch)
	}()
	if tPatch != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tRes.user, tRes.err = m.backend.PatchUser(ctx, target, *tPatch)
		}()
	}
	wg.Wait()

	result := &RelationshipResult{
		Operation: op,
		Viewer:    viewer,
		Target:    target,
		ViewerErr: vRes.err,
		TargetErr: tRes.err,
	}

	vOK := vRes.err == nil
	tOK := tPatch == nil || tRes.err == nil
	if vOK && vRes.user != nil {
		m.store.PutUser(tok, *vRes.user)
		result.ViewerRecord = vRes.user
	}
	if tPatch != nil && tOK && tRes.user != nil {
		m.store.PutUser(tok, *tRes.user)
		result.TargetRecord = tRes.user
	}

	switch {
	case vOK && tOK:
		result.Outcome = OutcomeApplied
		m.store.BumpRefresh()
		m.logger.Info("relationship updated", "op", op, "viewer", viewer, "target", target)
		return result, nil

	case !vOK && !tOK, !vOK && tPatch == nil:
		result.Outcome = OutcomeFailed
		err := fmt.Errorf("%w: %s %s -> %s: %w", shared.ErrMutationFailed, op, viewer, target, errors.Join(vRes.err, tRes.err))
		m.logger.Error("relationship update failed", "op", op, "viewer", viewer, "target", target, "error", err)
		return result, err
	}

	result.Outcome = OutcomePartial
	applied, failed := SideViewer, SideTarget
	appliedUser, prev, appliedPatch, failErr := viewer, v, vPatch, tRes.err
	if !vOK {
		applied, failed = SideTarget, SideViewer
		appliedUser, prev, appliedPatch, failErr = target, t, *tPatch, vRes.err
	}

	m.logger.Warn("relationship partially applied", "op", op, "applied", applied, "failed", failed, "error", failErr)

	if m.opts.Compensate {
		restored, err := m.backend.PatchUser(ctx, appliedUser, restorePatch(prev, appliedPatch))
		if err == nil {
			result.Compensated = true
			m.store.PutUser(m.store.BeginUser(), *restored)
			if applied == SideViewer {
				result.ViewerRecord = restored
			} else {
				result.TargetRecord = restored
			}
			m.logger.Info("restored record after partial update", "username", appliedUser)
		} else {
			result.CompensationErr = err
			m.logger.Error("failed to restore record after partial update", "username", appliedUser, "error", err)
		}
	}

	if !result.Compensated {
		result.Journaled = m.journal(ctx, op, viewer, target, applied, failed, errors.Join(failErr, result.CompensationErr))
	}

	m.store.BumpRefresh()
	return result, fmt.Errorf("%w: %s %s -> %s: %s write failed: %w", shared.ErrPartialMutation, op, viewer, target, failed, failErr)
}

func (m *RelationshipManager) journal(ctx context.Context, op Operation, viewer, target string, applied, failed Side, cause error) bool {
	if m.opts.Journal == nil {
		return false
	}

	d := &models.Divergence{
		ID:          shared.GenerateID(),
		Operation:   string(op),
		Viewer:      viewer,
		Target:      target,
		AppliedSide: string(applied),
		FailedSide:  string(failed),
		CreatedAt:   time.Now().UTC(),
	}
	if cause != nil {
		d.Error = cause.Error()
	}

	if err := m.opts.Journal.Record(ctx, d); err != nil {
		m.logger.Error("failed to journal divergence", "id", d.ID, "error", err)
		return false
	}
	return true
}
