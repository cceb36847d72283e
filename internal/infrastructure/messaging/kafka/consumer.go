package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
)

// RetryConfig defines handler retry behavior.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topics          []string
	AutoOffsetReset string
	MaxWait         time.Duration
	Security        SecurityConfig
	RetryConfig     RetryConfig
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer dispatches fetched messages to per-topic handlers.
type Consumer struct {
	reader ReaderInterface
	config ConsumerConfig
	logger logging.Logger

	handlers map[string]MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
}

// NewConsumer creates a group consumer over cfg.Topics.
func NewConsumer(cfg ConsumerConfig, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = time.Second
	}

	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	mech, err := cfg.Security.mechanism()
	if err != nil {
		return nil, err
	}
	dialer.SASLMechanism = mech
	if dialer.TLS, err = cfg.Security.tlsConfig(); err != nil {
		return nil, err
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
		Dialer:      dialer,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}
	return newConsumer(kafka.NewReader(readerCfg), cfg, logger), nil
}

func newConsumer(r ReaderInterface, cfg ConsumerConfig, logger logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Consumer{
		reader:   r,
		config:   cfg,
		logger:   logger.Named("kafka-consumer"),
		handlers: make(map[string]MessageHandler),
	}
}

// Subscribe routes messages of topic to handler.
func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Start runs the consume loop until ctx is cancelled or Close is called.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)
	c.logger.Info("Kafka consumer started", logging.String("group", c.config.GroupID))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("FetchMessage error", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.consumed.Add(1)

		msg := &Message{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
			Timestamp: m.Time,
			Headers:   make(map[string]string, len(m.Headers)),
		}
		for _, h := range m.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		switch {
		case !ok:
			c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
		case c.processMessage(ctx, msg, handler) == nil:
			c.processed.Add(1)
		default:
			c.failed.Add(1)
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("CommitMessages failed", logging.Err(err))
		}
	}
}

// processMessage retries handler with exponential backoff and returns the
// last error once retries are exhausted.
func (c *Consumer) processMessage(ctx context.Context, msg *Message, handler MessageHandler) error {
	err := handler(ctx, msg)
	if err == nil {
		return nil
	}

	backoff := c.config.RetryConfig.RetryBackoff
	if backoff == 0 {
		backoff = time.Second
	}
	maxBackoff := c.config.RetryConfig.MaxRetryBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}
	for i := 0; i < c.config.RetryConfig.MaxRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	c.logger.Error("Message processing failed after retries",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))
	return err
}

// Counts returns consumed, processed and failed message totals.
func (c *Consumer) Counts() (consumed, processed, failed int64) {
	return c.consumed.Load(), c.processed.Load(), c.failed.Load()
}

// Close stops the loop and closes the reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return c.reader.Close()
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("Kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "GroupID required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one topic required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.New(errors.ErrCodeValidation, "invalid AutoOffsetReset")
	}
	if cfg.RetryConfig.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	return cfg.Security.validate()
}

//Personal.AI order the ending
