package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ProductsChannel carries product change events.
const ProductsChannel = "products"

const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// ProductEvent announces a committed product write.
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"productId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PublishProductEvent encodes event as JSON and publishes it on ProductsChannel.
func (m *MQ) PublishProductEvent(ctx context.Context, event ProductEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return m.Publish(ctx, ProductsChannel, data, map[string]string{
		"type":      event.Type,
		"productId": event.ProductID,
	})
}

// DecodeProductEvent parses a message received from ProductsChannel.
func DecodeProductEvent(msg Message) (ProductEvent, error) {
	var event ProductEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return ProductEvent{}, fmt.Errorf("decode product event %s: %w", msg.ID, err)
	}
	if event.Type == "" && msg.Attributes != nil {
		event.Type = msg.Attributes["type"]
	}
	return event, nil
}
