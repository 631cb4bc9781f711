package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/products/internal/platform/messaging"
	"github.com/google/uuid"
)

type ProductCreatedEvent struct {
	Carrier    map[string]string `json:"carrier"`
	ProductID  uuid.UUID         `json:"product_id"`
	Name       string            `json:"name"`
	Price      float64           `json:"price"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e ProductCreatedEvent) Subject() string {
	return messaging.ProductsCreatedSubject
}

func (e ProductCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductUpdatedEvent struct {
	Carrier    map[string]string `json:"carrier"`
	ProductID  uuid.UUID         `json:"product_id"`
	Name       string            `json:"name"`
	Price      float64           `json:"price"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e ProductUpdatedEvent) Subject() string {
	return messaging.ProductsUpdatedSubject
}

func (e ProductUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductDeletedEvent struct {
	Carrier    map[string]string `json:"carrier"`
	ProductID  uuid.UUID         `json:"product_id"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func (e ProductDeletedEvent) Subject() string {
	return messaging.ProductsDeletedSubject
}

func (e ProductDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
