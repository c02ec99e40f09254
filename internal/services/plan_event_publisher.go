package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"pressplan/server/internal/models"
)

// PlanEvent сообщение о новой раскладке
type PlanEvent struct {
	Event        string    `json:"event"`
	PlanID       string    `json:"plan_id"`
	PackageID    uint      `json:"package_id"`
	Demand       int       `json:"demand"`
	Feasible     bool      `json:"feasible"`
	MachinesUsed int       `json:"machines_used"`
	TotalHours   float64   `json:"total_hours"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PlanEventPublisher отправляет события plan.created в Kafka
type PlanEventPublisher struct {
	writer messageWriter
	log    *zap.Logger
}

// NewPlanEventPublisher без брокеров возвращает nil: события просто не отправляются
func NewPlanEventPublisher(brokers []string, topic string, dialer *kafka.Dialer, log *zap.Logger) *PlanEventPublisher {
	if len(brokers) == 0 {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	if dialer != nil {
		writer.Transport = &kafka.Transport{
			DialTimeout: dialer.Timeout,
			SASL:        dialer.SASLMechanism,
			TLS:         dialer.TLS,
		}
	}

	log.Info("✅ Kafka producer подключен", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return &PlanEventPublisher{writer: writer, log: log}
}

// PublishPlanCreated ошибки только логируются: событие не должно ломать запрос
func (p *PlanEventPublisher) PublishPlanCreated(ctx context.Context, plan *models.StoredPlan) {
	if p == nil || p.writer == nil {
		return
	}

	event := PlanEvent{
		Event:        "plan.created",
		PlanID:       plan.ID,
		PackageID:    plan.PackageID,
		Demand:       plan.Demand,
		Feasible:     plan.Feasible,
		MachinesUsed: plan.Result.Stats.MachinesUsed,
		TotalHours:   plan.Result.Stats.TotalHours,
		CreatedAt:    plan.CreatedAt,
		ExpiresAt:    plan.ExpiresAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("❌ plan event marshal failed", zap.String("plan_id", plan.ID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(plan.ID), Value: payload})
	if err != nil {
		// топик создается брокером при первой записи
		if !strings.Contains(err.Error(), "Unknown Topic Or Partition") {
			p.log.Warn("⚠️ Kafka error при отправке события", zap.String("plan_id", plan.ID), zap.Error(err))
		}
		return
	}
	p.log.Info("📋 plan event sent", zap.String("plan_id", plan.ID), zap.Bool("feasible", plan.Feasible))
}

// Close закрывает writer
func (p *PlanEventPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
