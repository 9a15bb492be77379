// Package host runs sensor components on a single event goroutine.
package host

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrLoopStopped is returned when work is posted after Run has returned
var ErrLoopStopped = errors.New("host loop stopped")

// Loop executes posted functions one at a time, in order
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop creates a loop whose queue holds up to queue pending functions
func NewLoop(queue int) *Loop {
	return &Loop{
		tasks: make(chan func(), queue),
		done:  make(chan struct{}),
	}
}

// Run executes posted functions until ctx is cancelled.
// It must be called exactly once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	log.Debug().Msg("host loop running")
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-ctx.Done():
			log.Debug().Msg("host loop stopped")
			return ctx.Err()
		}
	}
}

// Post enqueues fn without waiting for it to run
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Do runs fn on the loop and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// fn may have completed just before the loop exited
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}
