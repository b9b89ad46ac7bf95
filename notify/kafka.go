package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

const (
	EventTestGenerated     = "test_generated"
	EventMaterialProcessed = "material_processed"
)

type GenerationEvent struct {
	Event    string `json:"event"`
	UserID   string `json:"user_id"`
	EntityID string `json:"entity_id"`
	Subject  string `json:"subject,omitempty"`
	Title    string `json:"title"`
	Count    int    `json:"count"`
}

// Publisher emits generation events to Kafka. Publishing is best-effort:
// failures are logged and never propagated into the generation pipelines.
// A nil Publisher is valid and publishes nothing.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) TestGenerated(userID, testID, subject, title string, questionCount int) {
	p.publish(GenerationEvent{
		Event:    EventTestGenerated,
		UserID:   userID,
		EntityID: testID,
		Subject:  subject,
		Title:    title,
		Count:    questionCount,
	})
}

func (p *Publisher) MaterialProcessed(userID, materialID, title string, flashcardCount int) {
	p.publish(GenerationEvent{
		Event:    EventMaterialProcessed,
		UserID:   userID,
		EntityID: materialID,
		Title:    title,
		Count:    flashcardCount,
	})
}

func (p *Publisher) publish(event GenerationEvent) {
	if p == nil {
		return
	}

	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal %s event: %v", event.Event, err)
		return
	}

	err = p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.Event),
		Value: value,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to publish %s event: %v", event.Event, err)
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
