package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes events as JSON keyed by game id, so one game stays on one partition.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaWriter(brokers, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaSink(writer messageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (that *KafkaSink) Publish(ctx context.Context, events ...entity.Event) error {
	messages := make([]kafka.Message, 0, len(events))

	for _, event := range events {
		value, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("could not marshal event: %w", err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(strconv.FormatUint(event.GameID, 10)),
			Value: value,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(event.Type)},
			},
		})
	}

	if err := that.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}

	return nil
}
