package remote

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Dispatcher runs a completion on the caller's chosen execution context.
type Dispatcher func(func())

// Inline runs completions on the fetching goroutine.
func Inline(f func()) { f() }

// Completion is the terminal outcome of one trigger.
type Completion struct {
	Seq   uint64
	Value string
	Tag   string
	Image image.Image
	Err   error
}

// Session fires one fetch per triggering event and delivers completions
// through a Dispatcher.
//
// Without DropStale a late response may overwrite a newer one; with it,
// completions of superseded triggers are discarded.
type Session struct {
	fetcher   ImageFetcher
	dispatch  Dispatcher
	dropStale bool

	seq atomic.Uint64
	wg  sync.WaitGroup
}

// NewSession creates a Session. A nil dispatch runs completions inline.
func NewSession(fetcher ImageFetcher, dispatch Dispatcher, dropStale bool) *Session {
	if dispatch == nil {
		dispatch = Inline
	}
	return &Session{fetcher: fetcher, dispatch: dispatch, dropStale: dropStale}
}

// Trigger starts a fetch and returns its sequence number immediately.
func (s *Session) Trigger(ctx context.Context, value, tag string, done func(Completion)) uint64 {
	seq := s.seq.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		img, err := s.fetcher.Fetch(ctx, value, tag)
		c := Completion{Seq: seq, Value: value, Tag: tag, Image: img, Err: err}
		s.dispatch(func() {
			if s.stale(seq) {
				staleDropped.Inc()
				slog.Debug("dropping stale remote completion", "seq", seq, "latest", s.seq.Load())
				return
			}
			if done != nil {
				done(c)
			}
		})
	}()
	return seq
}

// Latest returns the sequence number of the most recent trigger.
func (s *Session) Latest() uint64 { return s.seq.Load() }

// Wait blocks until every triggered fetch has completed.
func (s *Session) Wait() { s.wg.Wait() }

func (s *Session) stale(seq uint64) bool {
	return s.dropStale && seq != s.seq.Load()
}
