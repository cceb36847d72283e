package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"time"

	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// ProducerMessage is an outgoing record.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one consumed message.
type MessageHandler func(ctx context.Context, msg *Message) error

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
}

// SecurityConfig carries the optional SASL and TLS settings shared by
// producers, consumers and the topic manager.
type SecurityConfig struct {
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	TLSCertPath   string
}

func (s SecurityConfig) validate() error {
	if s.SASLMechanism != "" && (s.SASLUsername == "" || s.SASLPassword == "") {
		return errors.New(errors.ErrCodeValidation, "SASL credentials required")
	}
	return nil
}

func (s SecurityConfig) mechanism() (sasl.Mechanism, error) {
	switch s.SASLMechanism {
	case "":
		return nil, nil
	case "PLAIN":
		return plain.Mechanism{Username: s.SASLUsername, Password: s.SASLPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, s.SASLUsername, s.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, s.SASLUsername, s.SASLPassword)
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unsupported SASL mechanism %q", s.SASLMechanism)
	}
}

func (s SecurityConfig) tlsConfig() (*tls.Config, error) {
	if s.TLSCertPath == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(s.TLSCertPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidParam, "failed to read kafka CA certificate")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New(errors.ErrCodeInvalidParam, "no certificates in kafka CA file")
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

//Personal.AI order the ending
