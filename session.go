package main

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultSyncWindow    = time.Second
	defaultRetryInterval = time.Second
	maxRetryInterval     = 30 * time.Second
	maxSyncRetries       = 2
	syncTimeout          = 10 * time.Second
)

// SessionView is what fetchSession hands back to the UI.
type SessionView struct {
	Score     int     `json:"score"`
	Streak    int     `json:"streak"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type pendingSync struct {
	timer     *time.Timer
	score     int
	streak    int
	maxStreak int
}

// Reconciler keeps the durable high-score/streak record consistent with a
// stream of client-reported triples. Reports are coalesced with a trailing
// debounce (only the newest triple in a quiet window is written), the write
// is a read-merge-write upsert retried with exponential backoff, and an
// in-process cache is updated optimistically and rolled back on failure.
//
// Report never fails synchronously; post-exhaustion failures are delivered
// to the error handler.
type Reconciler struct {
	store         sessionStore
	log           *Logger
	window        time.Duration
	retryInterval time.Duration
	onError       func(userID string, err error)

	mu      sync.Mutex
	pending map[string]*pendingSync
	cache   map[string]GameSession
	wg      sync.WaitGroup
}

type ReconcilerOption func(*Reconciler)

func WithSyncWindow(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.window = d }
}

func WithRetryInterval(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.retryInterval = d }
}

func WithErrorHandler(f func(userID string, err error)) ReconcilerOption {
	return func(r *Reconciler) { r.onError = f }
}

func NewReconciler(store sessionStore, log *Logger, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:         store,
		log:           log.With("component", "reconciler"),
		window:        defaultSyncWindow,
		retryInterval: defaultRetryInterval,
		pending:       make(map[string]*pendingSync),
		cache:         make(map[string]GameSession),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report queues a (score, streak, maxStreak) triple for the user. A report
// arriving before the window elapses supersedes the queued one and resets
// the timer, so only the last triple in a quiet window is ever written.
func (r *Reconciler) Report(userID string, score, streak, maxStreak int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pending[userID]; ok {
		p.score, p.streak, p.maxStreak = score, streak, maxStreak
		p.timer.Stop()
		p.timer.Reset(r.window)
		return
	}
	p := &pendingSync{score: score, streak: streak, maxStreak: maxStreak}
	p.timer = time.AfterFunc(r.window, func() { r.fire(userID) })
	r.pending[userID] = p
}

func (r *Reconciler) fire(userID string) {
	r.mu.Lock()
	p, ok := r.pending[userID]
	if !ok {
		// superseded or already flushed
		r.mu.Unlock()
		return
	}
	delete(r.pending, userID)
	score, streak, maxStreak := p.score, p.streak, p.maxStreak

	prev, hadPrev := r.cache[userID]
	r.cache[userID] = GameSession{
		UserID:    userID,
		Score:     score,
		Streak:    streak,
		MaxStreak: maxOf(maxStreak, streak),
	}
	r.wg.Add(1)
	r.mu.Unlock()
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if err := r.upsert(ctx, userID, score, streak, maxStreak); err != nil {
		r.mu.Lock()
		if hadPrev {
			r.cache[userID] = prev
		} else {
			delete(r.cache, userID)
		}
		r.mu.Unlock()

		serr := &SyncError{UserID: userID, Err: err}
		r.log.Warnw("session sync failed after retries", "user_id", userID, "error", err)
		if r.onError != nil {
			r.onError(userID, serr)
		}
		return
	}
	r.log.Debugw("session synced", "user_id", userID, "score", score, "streak", streak)
}

func (r *Reconciler) upsert(ctx context.Context, userID string, score, streak, maxStreak int) error {
	op := func() error {
		existing, err := r.store.Get(ctx, userID)
		if err != nil {
			return err
		}
		merged := mergeSession(existing, userID, score, streak, maxStreak)
		return r.store.Put(ctx, &merged)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.retryInterval
	bo.MaxInterval = maxRetryInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	return backoff.Retry(op, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), maxSyncRetries))
}

// Fetch returns the session view for a user, preferring the optimistic cache
// over the store. Absent records come back zero-valued rather than failing;
// transport failures surface as FetchError. The profile lookup is
// best-effort and never fails the fetch.
func (r *Reconciler) Fetch(ctx context.Context, userID string) (SessionView, error) {
	r.mu.Lock()
	cached, ok := r.cache[userID]
	r.mu.Unlock()

	var view SessionView
	if ok {
		view.Score, view.Streak = cached.Score, cached.Streak
	} else {
		sess, err := r.store.Get(ctx, userID)
		if err != nil {
			return SessionView{}, &FetchError{Err: err}
		}
		if sess != nil {
			view.Score, view.Streak = sess.Score, sess.Streak
		}
	}

	username, avatar, err := r.store.Profile(ctx, userID)
	if err != nil {
		r.log.Debugw("profile lookup failed", "user_id", userID, "error", err)
	} else {
		view.Username = username
		view.AvatarURL = avatar
	}
	return view, nil
}

// Observe replaces the cached entry for a user after a write that went to
// the store directly, so Fetch stays coherent with the database.
func (r *Reconciler) Observe(s GameSession) {
	r.mu.Lock()
	r.cache[s.UserID] = s
	r.mu.Unlock()
}

// Flush fires every pending sync immediately and waits for in-flight writes.
// Called on shutdown so a debounced report is not lost.
func (r *Reconciler) Flush() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.pending))
	for id, p := range r.pending {
		p.timer.Stop()
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.fire(id)
	}
	r.wg.Wait()
}
