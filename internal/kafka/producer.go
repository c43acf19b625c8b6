package kafka

import (
	"context"
	"encoding/json"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"

	"ms-orders/internal/models"
)

// Producer streams order lifecycle events so downstream services
// (analytics, mailers) can react without coupling to the order flow.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishOrderEvent marshals the order and publishes it keyed by order id.
func (p *Producer) PublishOrderEvent(topic string, order models.Order) error {
	msgBytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.Publish(topic, order.OrderID, msgBytes)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// EnsureTopicsExist creates the given topics when the broker does not
// auto-create them.
func EnsureTopicsExist(brokers []string, topics []string) error {
	if len(brokers) == 0 {
		return nil
	}

	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	configs := make([]kafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}

	return controllerConn.CreateTopics(configs...)
}
