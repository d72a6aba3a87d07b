// Package events consumes payment events from Kafka. When a payment for an
// order placed by this session completes, the remote cart has already been
// emptied by the backend, so the local state is cleared to match.
package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

const paymentEventCompleted = "PAYMENT_COMPLETED"

// PaymentEvent mirrors the payload published by the payment service.
type PaymentEvent struct {
	EventType string  `json:"eventType"`
	PaymentID string  `json:"paymentId"`
	OrderID   string  `json:"orderId"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	Email     string  `json:"email"`
	Timestamp int64   `json:"timestamp"`
}

// Reader abstracts the Kafka reader so the loop is testable without a broker.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// OrderLedger answers whether an order belongs to this session.
type OrderLedger interface {
	Owns(orderID string) bool
}

// CartClearer clears local cart state without a remote round-trip.
type CartClearer interface {
	ClearLocal(ctx context.Context)
}

type Poller struct {
	reader Reader
	ledger OrderLedger
	cart   CartClearer
}

func NewPoller(ledger OrderLedger, cart CartClearer, groupID string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "payment-events",
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{reader: reader, ledger: ledger, cart: cart}
}

// NewPollerWithReader wires an existing reader. Used by tests.
func NewPollerWithReader(reader Reader, ledger OrderLedger, cart CartClearer) *Poller {
	return &Poller{reader: reader, ledger: ledger, cart: cart}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.handleNextMessage(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		log.Printf("events: error closing reader: %v", err)
	}
}

func (p *Poller) handleNextMessage(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("events: error reading message: %v", err)
		}
		return
	}

	var event PaymentEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("events: error parsing message: %v", err)
		return
	}

	if event.EventType != paymentEventCompleted {
		return
	}
	if event.OrderID == "" || !p.ledger.Owns(event.OrderID) {
		return
	}

	log.Printf("events: payment completed for order %s, clearing local cart", event.OrderID)
	p.cart.ClearLocal(ctx)
}
