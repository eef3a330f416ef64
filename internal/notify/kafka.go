package notify

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sells-group/health-score/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes one JSON event per alert, keyed by client id so a
// client's alerts stay ordered within a partition.
type KafkaNotifier struct {
	writer messageWriter
	topic  string
}

// NewKafka creates a KafkaNotifier writing to topic on the given brokers.
func NewKafka(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, eris.New("notify: no kafka brokers configured")
	}
	if topic == "" {
		return nil, eris.New("notify: kafka topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Compression:  kafka.Gzip,
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaNotifier{writer: w, topic: topic}, nil
}

func (k *KafkaNotifier) Notify(ctx context.Context, alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		value, err := json.Marshal(NewEvent(a))
		if err != nil {
			return eris.Wrap(err, "notify: marshal kafka event")
		}
		msgs = append(msgs, kafka.Message{Key: []byte(a.ClientID), Value: value})
	}

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return eris.Wrapf(err, "notify: write %d alerts to %s", len(msgs), k.topic)
	}
	zap.L().Debug("notify: alerts published",
		zap.String("topic", k.topic),
		zap.Int("count", len(msgs)),
	)
	return nil
}

func (k *KafkaNotifier) Close() error {
	return eris.Wrap(k.writer.Close(), "notify: close kafka writer")
}
