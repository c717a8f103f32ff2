package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const writeTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues events in memory and writes them to a single topic
// from one background goroutine.
type KafkaPublisher struct {
	w        messageWriter
	producer string
	inbox    chan kafka.Message
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic, producer string, buf int) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error().Err(err).Int("messages", len(messages)).Str("topic", topic).Msg("events: failed to deliver messages")
			}
		},
	}
	return newKafkaPublisher(w, producer, buf)
}

func newKafkaPublisher(w messageWriter, producer string, buf int) *KafkaPublisher {
	if buf <= 0 {
		buf = 1
	}
	return &KafkaPublisher{
		w:        w,
		producer: producer,
		inbox:    make(chan kafka.Message, buf),
		done:     make(chan struct{}),
	}
}

// Start runs the writer loop until Close is called or ctx is done.
func (p *KafkaPublisher) Start(ctx context.Context) {
	go p.run()
	go func() {
		select {
		case <-ctx.Done():
			_ = p.Close()
		case <-p.done:
		}
	}()
}

func (p *KafkaPublisher) run() {
	defer close(p.done)

	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := p.w.WriteMessages(ctx, m); err != nil {
			log.Error().Err(err).Str("key", string(m.Key)).Msg("events: failed to write message")
		}
		cancel()
	}

	if err := p.w.Close(); err != nil {
		log.Error().Err(err).Msg("events: failed to close kafka writer")
	}
}

func (p *KafkaPublisher) Publish(_ context.Context, ev Event) error {
	env, err := NewEnvelope(p.producer, ev, time.Now())
	if err != nil {
		return err
	}

	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events: failed to encode envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.inbox <- msg:
		return nil
	default:
		log.Warn().Str("event_type", ev.Type).Msg("events: buffer full, event dropped")
		return ErrBufferFull
	}
}

// Close stops accepting events, flushes the queue and waits for the writer
// loop to finish. It must only be called after Start.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()

	<-p.done
	return nil
}
