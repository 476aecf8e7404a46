// Package service orchestrates claim regeneration and trust score reads.
package service

import (
	"context"
	"log/slog"
	"sync"

	"trustbridge/internal/document"
	docstore "trustbridge/internal/document/store"
	"trustbridge/internal/platform/metrics"
	"trustbridge/internal/reputation"
	repstore "trustbridge/internal/reputation/store"
	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
	"trustbridge/pkg/requestcontext"
)

// Service owns the claim lifecycle: regeneration from transactions, score
// computation, and the cached profile read path.
type Service struct {
	claims repstore.ClaimStore
	docs   docstore.DocumentStore
	txns   docstore.TransactionStore

	locks              keyedMutex
	cache              ProfileCache
	logger             *slog.Logger
	metrics            *metrics.Metrics
	bankThresholdCents int64
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithProfileCache(cache ProfileCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithBankHealthThreshold(cents int64) Option {
	return func(s *Service) { s.bankThresholdCents = cents }
}

func New(claims repstore.ClaimStore, docs docstore.DocumentStore, txns docstore.TransactionStore, opts ...Option) *Service {
	svc := &Service{
		claims:             claims,
		docs:               docs,
		txns:               txns,
		logger:             slog.Default(),
		bankThresholdCents: reputation.DefaultBankHealthThresholdCents,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Recalculate regenerates the owner's claim set, waiting if another
// regeneration for the same owner is in flight. The pipeline uses this
// variant: a completed document must never lose its regeneration.
func (s *Service) Recalculate(ctx context.Context, owner id.UserID) ([]reputation.Claim, error) {
	unlock := s.locks.lock(owner)
	defer unlock()
	return s.recalculateLocked(ctx, owner)
}

// TryRecalculate regenerates the owner's claim set, or fails with a conflict
// when one is already in flight. The HTTP path uses this variant so callers
// get an immediate 409 instead of queueing behind the pipeline.
func (s *Service) TryRecalculate(ctx context.Context, owner id.UserID) ([]reputation.Claim, error) {
	unlock, ok := s.locks.tryLock(owner)
	if !ok {
		s.metrics.IncRecalculationConflict()
		return nil, dErrors.New(dErrors.CodeConflict, "a recalculation for this user is already in progress")
	}
	defer unlock()
	return s.recalculateLocked(ctx, owner)
}

func (s *Service) recalculateLocked(ctx context.Context, owner id.UserID) ([]reputation.Claim, error) {
	txns, err := s.eligibleTransactions(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transactions")
	}

	claims := reputation.GenerateClaims(owner, txns, requestcontext.Now(ctx))
	if err := s.claims.ReplaceForOwner(ctx, owner, claims); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to replace claims")
	}

	s.invalidateProfile(ctx, owner)
	s.metrics.IncRecalculation()
	s.logger.InfoContext(ctx, "claims regenerated",
		"owner_id", owner,
		"claim_count", len(claims),
		"request_id", requestcontext.RequestID(ctx),
	)
	return claims, nil
}

// eligibleTransactions returns the owner's transactions from documents that
// finished extraction: completed ones, plus the document currently in
// `analyzing` whose completion this regeneration is part of.
func (s *Service) eligibleTransactions(ctx context.Context, owner id.UserID) ([]document.Transaction, error) {
	docs, err := s.docs.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	eligible := make(map[id.DocumentID]bool, len(docs))
	for _, doc := range docs {
		if doc.Status == document.StatusCompleted || doc.Status == document.StatusAnalyzing {
			eligible[doc.ID] = true
		}
	}

	all, err := s.txns.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, txn := range all {
		if eligible[txn.DocumentID] {
			out = append(out, txn)
		}
	}
	return out, nil
}

// Claims lists the owner's current claim set.
func (s *Service) Claims(ctx context.Context, owner id.UserID) ([]reputation.Claim, error) {
	claims, err := s.claims.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list claims")
	}
	return claims, nil
}

// Profile is the owner's score plus the claims behind it. The score result
// is served from cache when possible; cache failures degrade to recompute.
type Profile struct {
	reputation.ScoreResult
	Claims []reputation.Claim
}

func (s *Service) Profile(ctx context.Context, owner id.UserID) (Profile, error) {
	claims, err := s.Claims(ctx, owner)
	if err != nil {
		return Profile{}, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetScore(ctx, owner)
		if err != nil {
			s.logger.WarnContext(ctx, "profile cache read failed", "error", err)
		} else if cached != nil {
			return Profile{ScoreResult: *cached, Claims: claims}, nil
		}
	}

	result, err := reputation.ComputeScore(claims, s.bankThresholdCents)
	if err != nil {
		return Profile{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetScore(ctx, owner, result); err != nil {
			s.logger.WarnContext(ctx, "profile cache write failed", "error", err)
		}
	}
	return Profile{ScoreResult: result, Claims: claims}, nil
}

func (s *Service) invalidateProfile(ctx context.Context, owner id.UserID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, owner); err != nil {
		s.logger.WarnContext(ctx, "profile cache invalidation failed", "error", err)
	}
}

// keyedMutex serializes work per owner. Entries are never evicted; the map is
// bounded by the number of active owners.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[id.UserID]*sync.Mutex
}

func (k *keyedMutex) get(owner id.UserID) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[id.UserID]*sync.Mutex)
	}
	lock, ok := k.locks[owner]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[owner] = lock
	}
	return lock
}

func (k *keyedMutex) lock(owner id.UserID) (unlock func()) {
	lock := k.get(owner)
	lock.Lock()
	return lock.Unlock
}

func (k *keyedMutex) tryLock(owner id.UserID) (unlock func(), ok bool) {
	lock := k.get(owner)
	if !lock.TryLock() {
		return nil, false
	}
	return lock.Unlock, true
}
