package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/config"
	apierrors "github.com/diogo/researchcopilot/internal/errors"
)

const (
	// DefaultRefreshInterval is how often the refresher checks the expiry
	DefaultRefreshInterval = time.Minute
	// DefaultRefreshMargin renews tokens this long before they expire
	DefaultRefreshMargin = 5 * time.Minute

	minRefreshGap  = 30 * time.Second
	refreshTimeout = 30 * time.Second
)

// Refresher keeps the session token fresh in the background
type Refresher struct {
	doer     api.Doer
	cfg      FlowConfig
	creds    *config.Credentials
	session  *api.Session
	save     func(*config.Credentials) error
	interval time.Duration
	margin   time.Duration
	now      func() time.Time

	mu          sync.Mutex
	stopCh      chan struct{}
	running     bool
	lastAttempt time.Time
}

// RefresherOption configures a Refresher
type RefresherOption func(*Refresher)

// WithInterval sets how often the expiry is checked
func WithInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithMargin sets how early before expiry tokens are renewed
func WithMargin(d time.Duration) RefresherOption {
	return func(r *Refresher) {
		if d >= 0 {
			r.margin = d
		}
	}
}

// WithSaver persists refreshed credentials
func WithSaver(save func(*config.Credentials) error) RefresherOption {
	return func(r *Refresher) {
		r.save = save
	}
}

// NewRefresher creates a refresher for creds that updates session. The
// refresher stops for good once session is invalidated.
func NewRefresher(doer api.Doer, cfg FlowConfig, creds *config.Credentials, session *api.Session, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		doer:     doer,
		cfg:      cfg,
		creds:    creds,
		session:  session,
		interval: DefaultRefreshInterval,
		margin:   DefaultRefreshMargin,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	session.OnInvalidate(r.Stop)
	return r
}

// RefreshIfNeeded renews the ID token when it is about to expire. It
// reports whether a new token was installed. An invalidated session is
// never revived.
func (r *Refresher) RefreshIfNeeded(ctx context.Context) (bool, error) {
	if !r.session.Valid() || r.creds.GetRefreshToken() == "" || r.cfg.ClientID == "" {
		return false, nil
	}

	exp := r.creds.ExpiresAt()
	now := r.now()
	if exp.IsZero() || now.Add(r.margin).Before(exp) {
		return false, nil
	}

	r.mu.Lock()
	if now.Sub(r.lastAttempt) < minRefreshGap {
		r.mu.Unlock()
		return false, nil
	}
	r.lastAttempt = now
	r.mu.Unlock()

	resp, err := Refresh(ctx, r.doer, r.cfg, r.creds.GetRefreshToken())
	if err != nil {
		if apierrors.IsAuthError(err) {
			r.session.Invalidate()
		}
		return false, err
	}
	if resp.IDToken == "" {
		return false, apierrors.NewParseError("refresh response has no id_token", r.cfg.TokenURL)
	}
	if !r.session.Valid() {
		slog.Debug("token_refresh_discarded", "reason", "session invalidated")
		return false, nil
	}

	r.creds.Update(resp.IDToken, resp.expiry(now))
	r.session.SetToken(resp.IDToken)
	slog.Info("token_refreshed", "expires_at", r.creds.ExpiresAt())

	if r.save != nil {
		if err := r.save(r.creds); err != nil {
			slog.Warn("token_save_failed", "error", err)
		}
	}
	return true, nil
}

// Start begins background refreshing. It does nothing once the session has
// been invalidated.
func (r *Refresher) Start() {
	if !r.session.Valid() {
		return
	}
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	r.mu.Unlock()

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
				if _, err := r.RefreshIfNeeded(ctx); err != nil {
					slog.Warn("token_refresh_failed", "error", err)
				}
				cancel()
			case <-stopCh:
				return
			}
		}
	}()
}

// Stop halts background refreshing
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		close(r.stopCh)
		r.running = false
	}
}

// Running reports whether the background loop is active
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
