// Package kafka publishes postings lifecycle events to Kafka topics.
//
// The Publisher is a plugin: register it on the engine and every recorded
// posting and every statement create/close is written as a JSON message.
// Posting messages are keyed by ledger id and statement messages by account
// id, so a partition sees a ledger's chain (or an account's statements) in
// order.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/postings/plugin"
	"github.com/xraph/postings/posting"
	"github.com/xraph/postings/stmt"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Publisher)(nil)
	_ plugin.OnPostingRecorded  = (*Publisher)(nil)
	_ plugin.OnStatementCreated = (*Publisher)(nil)
	_ plugin.OnStatementClosed  = (*Publisher)(nil)
	_ plugin.OnShutdown         = (*Publisher)(nil)
)

// Event types carried in Event.Type.
const (
	EventPostingRecorded  = "posting.recorded"
	EventStatementCreated = "statement.created"
	EventStatementClosed  = "statement.closed"
)

// Topics names the destination topic per event family.
type Topics struct {
	Postings   string
	Statements string
}

// DefaultTopics is used when WithTopics is not given.
var DefaultTopics = Topics{
	Postings:   "postings.postings",
	Statements: "postings.statements",
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON envelope written as the message value.
type Event struct {
	Type       string           `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Posting    *posting.Posting `json:"posting,omitempty"`
	Statement  *stmt.Statement  `json:"statement,omitempty"`
	Ref        *posting.Ref     `json:"posting_ref,omitempty"`
}

// Publisher writes lifecycle events through a MessageWriter.
type Publisher struct {
	writer MessageWriter
	topics Topics
	logger *slog.Logger
	clock  func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithTopics overrides DefaultTopics. Empty fields keep their default.
func WithTopics(t Topics) Option {
	return func(p *Publisher) {
		if t.Postings != "" {
			p.topics.Postings = t.Postings
		}
		if t.Statements != "" {
			p.topics.Statements = t.Statements
		}
	}
}

// WithLogger sets the logger for the publisher.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithClock sets the time source for Event.OccurredAt.
func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) {
		p.clock = clock
	}
}

// NewPublisher creates a Publisher writing to the given brokers.
func NewPublisher(brokers []string, opts ...Option) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, opts...)
}

// NewPublisherWithWriter creates a Publisher on top of an existing writer.
func NewPublisherWithWriter(w MessageWriter, opts ...Option) *Publisher {
	p := &Publisher{
		writer: w,
		topics: DefaultTopics,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "kafka-publisher" }

// OnPostingRecorded implements plugin.OnPostingRecorded.
func (p *Publisher) OnPostingRecorded(ctx context.Context, pst *posting.Posting) error {
	return p.publish(ctx, p.topics.Postings, pst.LedgerID.String(), &Event{
		Type:    EventPostingRecorded,
		Posting: pst,
	})
}

// OnStatementCreated implements plugin.OnStatementCreated.
func (p *Publisher) OnStatementCreated(ctx context.Context, v *stmt.View) error {
	return p.publish(ctx, p.topics.Statements, v.Statement.AccountID.String(), &Event{
		Type:      EventStatementCreated,
		Statement: v.Statement,
	})
}

// OnStatementClosed implements plugin.OnStatementClosed.
func (p *Publisher) OnStatementClosed(ctx context.Context, s *stmt.Statement, pst *posting.Posting) error {
	return p.publish(ctx, p.topics.Statements, s.AccountID.String(), &Event{
		Type:      EventStatementClosed,
		Statement: s,
		Ref:       pst.Ref(),
	})
}

// OnShutdown implements plugin.OnShutdown and closes the writer.
func (p *Publisher) OnShutdown(_ context.Context) error {
	return p.writer.Close()
}

func (p *Publisher) publish(ctx context.Context, topic, key string, evt *Event) error {
	evt.OccurredAt = p.clock().UTC()
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("postings/kafka: encode %s: %w", evt.Type, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("postings/kafka: publish %s: %w", evt.Type, err)
	}

	p.logger.Debug("event published",
		"type", evt.Type,
		"topic", topic,
		"key", key,
	)
	return nil
}
