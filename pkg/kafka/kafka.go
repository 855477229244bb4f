package kafka

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

const DefaultBooksTopic = "catalog.books"

type Config struct {
	Addrs      []string `envconfig:"KAFKA_ADDRS"`
	BooksTopic string   `envconfig:"KAFKA_BOOKS_TOPIC" default:"catalog.books"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

type BookEventType string

const (
	BookCreated BookEventType = "CREATED"
	BookUpdated BookEventType = "UPDATED"
	BookDeleted BookEventType = "DELETED"
)

type EventBook struct {
	Type      BookEventType `json:"type"`
	BookID    int64         `json:"book_id"`
	Soft      bool          `json:"soft,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewSyncProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Timeout = 5 * time.Second

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

// CreateTopics makes sure the books topic exists.
func CreateTopics(cfg Config) error {
	admin, err := sarama.NewClusterAdmin(cfg.Addrs, sarama.NewConfig())
	if err != nil {
		return errors.Wrap(err, "sarama.NewClusterAdmin")
	}
	defer admin.Close()

	err = admin.CreateTopic(cfg.BooksTopic, &sarama.TopicDetail{
		NumPartitions:     1,
		ReplicationFactor: 1,
	}, false)
	if err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
		return errors.Wrap(err, "CreateTopic")
	}
	return nil
}
