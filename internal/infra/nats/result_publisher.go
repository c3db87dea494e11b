package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"trivia-room-service/internal/domain"
)

// DefaultSubject prefixes every published result; the category is appended.
const DefaultSubject = "trivia.results"

// Connect dials NATS with reconnect settings suited to a long-running server.
func Connect(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("trivia-room-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// ResultPublisher publishes finished matches on <subject>.<category>.
type ResultPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewResultPublisher(conn *nats.Conn, subject string) *ResultPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &ResultPublisher{conn: conn, subject: subject}
}

func (p *ResultPublisher) SaveResult(ctx context.Context, result domain.MatchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	subject := SubjectFor(p.subject, result.Category)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// SubjectFor builds a subject token-safe for NATS (no spaces, dots or wildcards in the category).
func SubjectFor(prefix, category string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '*', '>':
			return '_'
		}
		return r
	}, category)
	if token == "" {
		token = "solo"
	}
	return prefix + "." + token
}
