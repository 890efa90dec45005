// Package feed publishes document changes to a kafka topic.
package feed

import (
	"context"
	"encoding/json"
	"time"

	eventbus "github.com/hanpama/docgraph/internal/eventbus"
	events "github.com/hanpama/docgraph/internal/events"
	reqid "github.com/hanpama/docgraph/internal/reqid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Config names the brokers and topic. An empty Brokers list disables the feed.
type Config struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Writer is the subset of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Change is the message body for one successful write.
type Change struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher writes changes keyed by document id, so changes to one
// document land on one partition.
type Publisher struct {
	writer Writer
	log    *zap.Logger
}

// New dials nothing until the first write. Writes are asynchronous.
func New(cfg Config, log *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("feed: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("feed: no topic configured")
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
		Async:    true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warn("change feed write failed", zap.Int("messages", len(msgs)), zap.Error(err))
			}
		},
	}
	return NewWithWriter(w, log), nil
}

// NewWithWriter wraps an existing writer.
func NewWithWriter(w Writer, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{writer: w, log: log}
}

// Publish encodes c and writes it.
func (p *Publisher) Publish(ctx context.Context, c Change) error {
	b, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding change")
	}
	msg := kafka.Message{Key: []byte(c.Collection + "/" + c.ID), Value: b, Time: c.At}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "writing change for %s/%s", c.Collection, c.ID)
	}
	return nil
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Subscribe publishes a Change for every store write that succeeded and
// matched a document.
func (p *Publisher) Subscribe() (unsubscribe func()) {
	return eventbus.Subscribe(func(ctx context.Context, e events.StoreCall) {
		if !e.Op.Writes() || e.Err != nil || !e.Found {
			return
		}
		rid, _ := reqid.FromContext(ctx)
		c := Change{
			Collection: e.Collection,
			Op:         string(e.Op),
			ID:         e.ID,
			RequestID:  rid,
			At:         e.Start.Add(e.Duration).UTC(),
		}
		if err := p.Publish(ctx, c); err != nil {
			p.log.Warn("change feed publish failed", zap.String("request_id", rid), zap.Error(err))
		}
	})
}
