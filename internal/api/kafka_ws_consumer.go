package api

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"pressplan/server/internal/services"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type broadcaster interface {
	BroadcastMessage(message []byte)
}

// feedMessage то, что получает экран: тип события и его данные
type feedMessage struct {
	Type string             `json:"type"`
	Data services.PlanEvent `json:"data"`
}

// KafkaWSConsumer читает события раскладок из Kafka и отправляет их в WebSocket
type KafkaWSConsumer struct {
	topic     string
	groupID   string
	reader    messageReader
	hub       broadcaster
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	started   bool
	processed int64
}

// NewKafkaWSConsumer groupID должен быть своим у каждого экземпляра сервера:
// каждый рассылает события своим подключенным экранам
func NewKafkaWSConsumer(brokers []string, topic, groupID string, dialer *kafka.Dialer, hub broadcaster, log *zap.Logger) *KafkaWSConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset, // экранам нужны только новые раскладки
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      dialer,
	})
	return newKafkaWSConsumer(reader, topic, groupID, hub, log)
}

func newKafkaWSConsumer(reader messageReader, topic, groupID string, hub broadcaster, log *zap.Logger) *KafkaWSConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaWSConsumer{
		topic:   topic,
		groupID: groupID,
		reader:  reader,
		hub:     hub,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start запускает чтение в отдельной горутине
func (kc *KafkaWSConsumer) Start() {
	kc.started = true
	kc.log.Info("📡 Kafka WS Consumer запущен", zap.String("topic", kc.topic), zap.String("group_id", kc.groupID))

	go func() {
		defer close(kc.done)
		for {
			msg, err := kc.reader.ReadMessage(kc.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || kc.ctx.Err() != nil {
					return
				}
				kc.log.Warn("⚠️ Kafka WS Consumer ошибка чтения", zap.Error(err))
				select {
				case <-kc.ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}
			kc.handle(msg)
		}
	}()
}

func (kc *KafkaWSConsumer) handle(msg kafka.Message) {
	var event services.PlanEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil || event.PlanID == "" {
		kc.log.Debug("skip malformed plan event", zap.Int64("offset", msg.Offset), zap.Error(err))
		return
	}

	payload, err := json.Marshal(feedMessage{Type: event.Event, Data: event})
	if err != nil {
		return
	}
	kc.hub.BroadcastMessage(payload)

	processed := atomic.AddInt64(&kc.processed, 1)
	kc.log.Debug("📨 plan event forwarded",
		zap.String("plan_id", event.PlanID),
		zap.Int64("offset", msg.Offset),
		zap.Int64("processed", processed),
	)
}

// Processed сколько событий отправлено на экраны
func (kc *KafkaWSConsumer) Processed() int64 {
	return atomic.LoadInt64(&kc.processed)
}

// Stop останавливает чтение и закрывает reader
func (kc *KafkaWSConsumer) Stop() {
	kc.cancel()
	if kc.started {
		<-kc.done
	}
	if err := kc.reader.Close(); err != nil {
		kc.log.Warn("⚠️ Kafka reader close", zap.Error(err))
	}
	kc.log.Info("🛑 Kafka WS Consumer остановлен")
}
