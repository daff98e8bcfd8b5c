package auditsink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// MessageWriter часть kafka.Writer, которой пользуется издатель
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher отправляет записи журнала изменений в топик аудита
// Ключ сообщения = номер бронирования, поэтому события одной брони попадают в одну партицию по порядку
type Publisher struct {
	writer MessageWriter
	topic  string
	logger Logger
}

// NewPublisher создает издателя поверх kafka.Writer
func NewPublisher(brokers []string, topic string, writeTimeout time.Duration, logger Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return NewPublisherWithWriter(writer, topic, logger)
}

// NewPublisherWithWriter создает издателя с заданным writer
func NewPublisherWithWriter(writer MessageWriter, topic string, logger Logger) *Publisher {
	return &Publisher{
		writer: writer,
		topic:  topic,
		logger: logger,
	}
}

// Publish синхронно отправляет пачку записей. Либо вся пачка принята брокером, либо ошибка
func (p *Publisher) Publish(ctx context.Context, entries []*domain.ChangeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(FromDomainEntry(entry))
		if err != nil {
			return fmt.Errorf("%w: entry id=%d: %w", ErrMarshal, entry.ID, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(entry.Reference),
			Value: data,
			Time:  entry.CreatedAt,
			Headers: []kafka.Header{
				{Key: "change_type", Value: []byte(entry.ChangeType)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.Error("AuditSink: failed to publish %d events to %s: %v", len(messages), p.topic, err)
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	p.logger.Info("AuditSink: published %d events to %s (ids %d..%d)",
		len(messages), p.topic, entries[0].ID, entries[len(entries)-1].ID)
	return nil
}

// Close закрывает writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
