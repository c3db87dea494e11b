package app

import (
	"context"

	"golang.org/x/sync/errgroup"
	"trivia-room-service/internal/domain"
)

// ResultSink accepts final leaderboards (Postgres, NATS, AMQP, memory).
type ResultSink interface {
	SaveResult(ctx context.Context, result domain.MatchResult) error
}

// FanoutSink delivers a result to every configured sink concurrently and
// returns the first error encountered.
type FanoutSink struct {
	sinks []ResultSink
}

func NewFanoutSink(sinks ...ResultSink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

func (f *FanoutSink) SaveResult(ctx context.Context, result domain.MatchResult) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sink := range f.sinks {
		sink := sink
		g.Go(func() error {
			return sink.SaveResult(ctx, result)
		})
	}
	return g.Wait()
}

type discardSink struct{}

func (discardSink) SaveResult(context.Context, domain.MatchResult) error { return nil }
