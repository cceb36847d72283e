package kafka

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

var (
	ErrProducerClosed = errors.New(errors.ErrCodeMessagePublish, "producer closed")
)

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers          []string
	Acks             string
	MaxRetries       int
	BatchSize        int
	BatchTimeout     time.Duration
	MaxMessageBytes  int
	CompressionCodec string
	WriteTimeout     time.Duration
	Security         SecurityConfig
}

// ProducerStats is a point-in-time copy of the producer counters.
type ProducerStats struct {
	MessagesSent   int64
	MessagesFailed int64
	BytesSent      int64
	LastLatency    time.Duration
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes records through a kafka-go writer.
type Producer struct {
	writer WriterInterface
	config ProducerConfig
	logger logging.Logger
	closed atomic.Bool

	sent      atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64
	latencyNs atomic.Int64
}

// NewProducer creates a Producer. The writer connects lazily on first write.
func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	applyProducerDefaults(&cfg)

	transport := &kafka.Transport{DialTimeout: 10 * time.Second}
	mech, err := cfg.Security.mechanism()
	if err != nil {
		return nil, err
	}
	transport.SASL = mech
	if transport.TLS, err = cfg.Security.tlsConfig(); err != nil {
		return nil, err
	}

	var acks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		acks = kafka.RequireNone
	case "all":
		acks = kafka.RequireAll
	default:
		acks = kafka.RequireOne
	}

	var compression kafka.Compression
	switch cfg.CompressionCodec {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: acks,
		Compression:  compression,
		Transport:    transport,
	}
	return newProducer(writer, cfg, logger), nil
}

func newProducer(w WriterInterface, cfg ProducerConfig, logger logging.Logger) *Producer {
	applyProducerDefaults(&cfg)
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{writer: w, config: cfg, logger: logger.Named("kafka-producer")}
}

func applyProducerDefaults(cfg *ProducerConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = 1024 * 1024
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
}

// Publish writes one message.
func (p *Producer) Publish(ctx context.Context, msg *ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}
	if len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeValidation, "value required")
	}
	if len(msg.Value) > p.config.MaxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "message too large")
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, toKafkaMessage(msg)); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeMessagePublish, "publish failed")
	}
	latency := time.Since(start)
	p.sent.Add(1)
	p.bytes.Add(int64(len(msg.Value)))
	p.latencyNs.Store(int64(latency))

	p.logger.Debug("Message published",
		logging.String("topic", msg.Topic),
		logging.Duration("latency", latency))
	return nil
}

// PublishJSON wraps v in an EventEnvelope of eventType and publishes it to
// topic keyed by key.
func (p *Producer) PublishJSON(ctx context.Context, topic, eventType, key string, v interface{}) error {
	env, err := NewEventEnvelope(eventType, "nlq", v)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(topic)
	if err != nil {
		return err
	}
	msg.Key = []byte(key)
	return p.Publish(ctx, msg)
}

// Stats returns a snapshot of the producer counters.
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		MessagesSent:   p.sent.Load(),
		MessagesFailed: p.failed.Load(),
		BytesSent:      p.bytes.Load(),
		LastLatency:    time.Duration(p.latencyNs.Load()),
	}
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

func toKafkaMessage(msg *ProducerMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for _, k := range sortedHeaderKeys(msg.Headers) {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(msg.Headers[k])})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    ts,
	}
}

// ValidateProducerConfig checks the required fields.
func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	return cfg.Security.validate()
}

func sortedHeaderKeys(h map[string]string) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

//Personal.AI order the ending
