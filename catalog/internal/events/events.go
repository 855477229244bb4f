package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/catalog-service/pkg/circuit_breaker"
	"github.com/Astemirdum/catalog-service/pkg/kafka"
)

type Publisher interface {
	Publish(ctx context.Context, event kafka.EventBook) error
}

type Nop struct{}

func (Nop) Publish(context.Context, kafka.EventBook) error { return nil }

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       circuit_breaker.CircuitBreaker
	log      *zap.Logger
}

// NewKafkaPublisher sends events keyed by book id, so one book's events stay ordered.
// The breaker stops a dead broker from slowing every write request down.
func NewKafkaPublisher(producer sarama.SyncProducer, topic string, log *zap.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		topic:    topic,
		cb:       circuit_breaker.NewCircuitBreaker(10, 30*time.Second, 0.5, 3),
		log:      log.Named("events"),
	}
}

func (p *kafkaPublisher) Publish(_ context.Context, event kafka.EventBook) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.BookID, 10)),
		Value: sarama.ByteEncoder(data),
	}
	return p.cb.Call(func() error {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return err
		}
		p.log.Debug("book event sent",
			zap.String("type", string(event.Type)),
			zap.Int64("book_id", event.BookID),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset))
		return nil
	})
}
