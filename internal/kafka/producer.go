package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

// Event types written to the order/line topics.
const (
	EventOrderOpened       = "order.opened"
	EventOrderClosed       = "order.closed"
	EventLinesAppended     = "order.lines_appended"
	EventLineStatusChanged = "order.line_status_changed"
)

type OrderEventMessage struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
	At    time.Time    `json:"at"`
}

type LineEventMessage struct {
	Type    string             `json:"type"`
	OrderID string             `json:"order_id"`
	Lines   []models.OrderLine `json:"lines"`
	At      time.Time          `json:"at"`
}

// Producer streams order lifecycle and line events to Kafka for downstream
// consumers (receipt printer, end-of-day reporting). In mock mode events are
// logged and dropped, which keeps local setups broker-free.
type Producer struct {
	Orders   *kafka.Writer
	Lines    *kafka.Writer
	Logger   *logger.Logger
	MockMode bool
}

func NewProducer(brokers []string, orderTopic, lineTopic string, log *logger.Logger, mockMode bool) *Producer {
	p := &Producer{Logger: log, MockMode: mockMode}
	if mockMode {
		return p
	}
	p.Orders = kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   orderTopic,
	})
	p.Lines = kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   lineTopic,
	})
	return p
}

func (p *Producer) PublishOrderOpened(order models.Order) error {
	return p.publishOrder(EventOrderOpened, order)
}

func (p *Producer) PublishOrderClosed(order models.Order) error {
	return p.publishOrder(EventOrderClosed, order)
}

func (p *Producer) PublishLinesAppended(orderID string, lines []models.OrderLine) error {
	return p.publishLines(LineEventMessage{
		Type:    EventLinesAppended,
		OrderID: orderID,
		Lines:   lines,
		At:      time.Now().UTC(),
	})
}

func (p *Producer) PublishLineStatusChanged(line models.OrderLine) error {
	return p.publishLines(LineEventMessage{
		Type:    EventLineStatusChanged,
		OrderID: line.OrderID,
		Lines:   []models.OrderLine{line},
		At:      time.Now().UTC(),
	})
}

func (p *Producer) publishOrder(eventType string, order models.Order) error {
	msg := OrderEventMessage{Type: eventType, Order: order, At: time.Now().UTC()}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if p.MockMode {
		p.Logger.LogKafka("MOCK", eventType, fmt.Sprintf("order %s", order.OrderID))
		return nil
	}

	return p.Orders.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(order.OrderID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) publishLines(msg LineEventMessage) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if p.MockMode {
		p.Logger.LogKafka("MOCK", msg.Type, fmt.Sprintf("order %s, %d line(s)", msg.OrderID, len(msg.Lines)))
		return nil
	}

	return p.Lines.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(msg.OrderID),
			Value: msgBytes,
		},
	)
}

// Close flushes and shuts down the writers.
func (p *Producer) Close() error {
	if p.MockMode {
		return nil
	}
	if err := p.Orders.Close(); err != nil {
		return err
	}
	return p.Lines.Close()
}
