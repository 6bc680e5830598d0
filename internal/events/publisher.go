// Package events publishes auction domain events after their transaction commits.
package events

//go:generate mockgen -source=publisher.go -destination=mock_publisher.go -package=events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	TypeListingCreated = "listing.created"
	TypeBidPlaced      = "bid.placed"
	TypeListingClosed  = "listing.closed"
)

type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ListingID int64     `json:"listing_id"`
	UserID    string    `json:"user_id,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	At        time.Time `json:"at"`
}

func New(typ string, listingID int64, userID, amount string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		ListingID: listingID,
		UserID:    userID,
		Amount:    amount,
		At:        time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event. Used when NATS_URL is unset.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// NATSPublisher sends events to "<prefix>.<type>" subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("auctions"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) Subject(e Event) string { return p.prefix + "." + e.Type }

func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(e), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
