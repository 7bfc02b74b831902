package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const ScheduleAcceptedQueue = "schedule_accepted_queue"

// DeclareQueue 生产者和消费者都需要声明，保证先启动的一方也能拿到队列
func DeclareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		ScheduleAcceptedQueue, // 队列名称
		true,                  // 持久化
		false,                 // 不自动删除
		false,                 // 不独占
		false,                 // 等待 RabbitMQ 确认
		nil,
	)
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch      channel
	timeout time.Duration
}

func NewPublisher(ch channel, timeout time.Duration) *Publisher {
	return &Publisher{
		ch:      ch,
		timeout: timeout,
	}
}

func (p *Publisher) PublishScheduleAccepted(event *domain.ScheduleAcceptedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		ScheduleAcceptedQueue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.RunID,
			Body:         body,
		},
	)
}

// NewScheduleAcceptedEvent 只保留会产生调休的排班：周末或节假日的非调休排班
func NewScheduleAcceptedEvent(runID string, start, end time.Time, holidays []time.Time, entries []*domain.ScheduleEntry) *domain.ScheduleAcceptedEvent {
	event := &domain.ScheduleAcceptedEvent{
		RunID:     runID,
		StartDate: start,
		EndDate:   end,
		Holidays:  holidays,
		Entries:   make([]*domain.ScheduleEntry, 0),
	}
	for _, e := range entries {
		if e.IsCompOff {
			continue
		}
		if domain.IsWeekend(e.Date) || domain.ContainsDate(holidays, e.Date) {
			event.Entries = append(event.Entries, e)
		}
	}
	return event
}

// DecodeScheduleAccepted 消息格式错误时返回 error，消费者应直接丢弃这类消息
func DecodeScheduleAccepted(body []byte) (*domain.ScheduleAcceptedEvent, error) {
	event := &domain.ScheduleAcceptedEvent{}
	if err := json.Unmarshal(body, event); err != nil {
		return nil, err
	}
	if event.RunID == "" {
		return nil, errors.New("缺少 runID")
	}
	return event, nil
}
