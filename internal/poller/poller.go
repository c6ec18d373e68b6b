// Package poller implements the client half of the submission-status bridge:
// the loop that waits for an asynchronous webhook to land and then decides
// which destination to send the athlete to.
package poller

import (
	"context"
	"net/url"
	"time"

	"github.com/preferredrecruit/intake-gateway/internal/service/intake"
)

// State of the loop when it settles.
type State int

const (
	StatePolling State = iota
	StateRedirecting
	StateError
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateRedirecting:
		return "redirecting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// QueryFunc asks whether the athlete record for a submission exists yet.
type QueryFunc func(ctx context.Context, submissionID string) (intake.Status, error)

type Config struct {
	Interval      time.Duration // default 1s
	Timeout       time.Duration // wall-clock ceiling, default 30s
	PosterURL     string        // poster upload form; athleteId is appended
	SchedulingURL string        // scheduling page, also the fallback
}

// Decision is the loop's terminal output. URL is the redirect target; in the
// error state it is the manual fallback link shown to the user.
type Decision struct {
	State State
	URL   string
}

type Poller struct {
	cfg   Config
	query QueryFunc
}

func New(cfg Config, query QueryFunc) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Poller{cfg: cfg, query: query}
}

// Run polls until the record appears, the wall-clock ceiling expires, or ctx
// is cancelled. One query is in flight at a time; the next tick is scheduled
// only after the previous one settles, so a slow network reduces the number
// of attempts rather than extending the total wait. Query errors count
// toward the same ceiling and do not abort the loop. The returned error is
// non-nil only on cancellation.
func (p *Poller) Run(ctx context.Context, submissionID string) (Decision, error) {
	start := time.Now()

	var lastErr error
	for {
		st, err := p.query(ctx, submissionID)
		if err != nil {
			if ctx.Err() != nil {
				return Decision{State: StatePolling}, ctx.Err()
			}
			lastErr = err
		} else {
			lastErr = nil
			if st.Found {
				return p.redirectFor(st), nil
			}
		}

		// ceiling is wall-clock, not poll count
		if time.Since(start)+p.cfg.Interval > p.cfg.Timeout {
			if lastErr != nil {
				return Decision{State: StateError, URL: p.cfg.SchedulingURL}, nil
			}
			// never leave the user stranded
			return Decision{State: StateRedirecting, URL: p.cfg.SchedulingURL}, nil
		}

		timer := time.NewTimer(p.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Decision{State: StatePolling}, ctx.Err()
		case <-timer.C:
		}
	}
}

// redirectFor issues exactly one of the two redirects based on needsPoster.
func (p *Poller) redirectFor(st intake.Status) Decision {
	if !st.NeedsPoster {
		return Decision{State: StateRedirecting, URL: p.cfg.SchedulingURL}
	}

	u, err := url.Parse(p.cfg.PosterURL)
	if err != nil {
		return Decision{State: StateRedirecting, URL: p.cfg.SchedulingURL}
	}
	q := u.Query()
	q.Set("athleteId", st.AthleteID)
	u.RawQuery = q.Encode()
	return Decision{State: StateRedirecting, URL: u.String()}
}
