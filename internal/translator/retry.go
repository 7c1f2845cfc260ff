package translator

import (
	"context"
	"math/rand"
	"time"

	"github.com/subglot/subglot/pkg/log"
)

const (
	defaultMaxAttempts = 3
	baseRetryDelay     = 5 * time.Second
	maxRetryDelay      = 60 * time.Second
)

// retryPolicy runs an attempt up to maxAttempts times with exponential
// backoff. The delay doubles per attempt from baseDelay, is capped at
// maxDelay, and gets up to one second of jitter on top.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	jitter      func() time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	observe     func(submissionState)
}

func newRetryPolicy(maxAttempts int) *retryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &retryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseRetryDelay,
		maxDelay:    maxRetryDelay,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(time.Second)))
		},
		sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *retryPolicy) delayFor(attempt int) time.Duration {
	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.maxDelay {
			delay = p.maxDelay
			break
		}
	}
	return delay + p.jitter()
}

type submissionState int

const (
	stateIdle submissionState = iota
	stateSubmitted
	stateRetrying
	stateSucceeded
	stateFailed
)

// submission tracks one unit of work through
// Idle -> Submitted -> (Retrying -> Submitted)* -> Succeeded | Failed.
type submission struct {
	state   submissionState
	attempt int
	err     error
}

func (s *submission) transition(next submissionState, observe func(submissionState)) {
	s.state = next
	if observe != nil {
		observe(next)
	}
}

// do runs fn until the submission reaches Succeeded or Failed. A failure
// moves to Retrying only while retryable says so and attempts remain.
func (p *retryPolicy) do(ctx context.Context, fn func() error, retryable func(error) bool) error {
	var sub submission
	for {
		switch sub.state {
		case stateIdle:
			sub.attempt++
			sub.transition(stateSubmitted, p.observe)
		case stateSubmitted:
			sub.err = fn()
			switch {
			case sub.err == nil:
				sub.transition(stateSucceeded, p.observe)
			case !retryable(sub.err) || sub.attempt >= p.maxAttempts:
				sub.transition(stateFailed, p.observe)
			default:
				sub.transition(stateRetrying, p.observe)
			}
		case stateRetrying:
			delay := p.delayFor(sub.attempt)
			log.Warn("Attempt %d/%d failed, retrying in %s: %v", sub.attempt, p.maxAttempts, delay.Round(time.Millisecond), sub.err)
			if err := p.sleep(ctx, delay); err != nil {
				sub.err = err
				sub.transition(stateFailed, p.observe)
				continue
			}
			sub.attempt++
			sub.transition(stateSubmitted, p.observe)
		case stateSucceeded:
			return nil
		case stateFailed:
			return sub.err
		}
	}
}
