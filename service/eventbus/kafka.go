package eventbus

import (
	"context"
	"strings"
	"time"

	"PTalk/tools/errs"

	"github.com/Shopify/sarama"
)

type KafkaConfig struct {
	Brokers     []string
	Topic       string
	Retries     int
	Compression string // none/snappy/lz4/zstd
}

// BuildProducerConfig is the sarama config for a synchronous, key
// partitioned producer.
func BuildProducerConfig(c KafkaConfig) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	if c.Retries <= 0 {
		c.Retries = 1
	}
	cfg.Producer.Retry.Max = c.Retries
	// the key keeps one conversation's events on one partition
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	switch strings.ToLower(c.Compression) {
	case "snappy":
		cfg.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		cfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		cfg.Producer.Compression = sarama.CompressionZSTD
	default:
		cfg.Producer.Compression = sarama.CompressionNone
	}
	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}

// KafkaPublisher writes every event to one topic, keyed by Event.Key.
type KafkaPublisher struct {
	topic    string
	producer sarama.SyncProducer
}

func NewKafkaPublisher(c KafkaConfig) (*KafkaPublisher, error) {
	p, err := sarama.NewSyncProducer(c.Brokers, BuildProducerConfig(c))
	if err != nil {
		return nil, errs.WrapMsg(err, "kafka producer", "brokers", c.Brokers)
	}
	return NewKafkaPublisherFromProducer(c.Topic, p), nil
}

// NewKafkaPublisherFromProducer wraps an existing producer, e.g. a mock.
func NewKafkaPublisherFromProducer(topic string, p sarama.SyncProducer) *KafkaPublisher {
	return &KafkaPublisher{topic: topic, producer: p}
}

func (p *KafkaPublisher) Publish(_ context.Context, ev Event) error {
	data, err := ev.Marshal()
	if err != nil {
		return errs.WrapMsg(err, "marshal event", "type", ev.Type)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(ev.Type)},
			{Key: []byte("id"), Value: []byte(ev.ID)},
		},
	}
	if ev.Key != "" {
		msg.Key = sarama.StringEncoder(ev.Key)
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return errs.WrapMsg(err, "kafka send", "topic", p.topic, "type", ev.Type)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
