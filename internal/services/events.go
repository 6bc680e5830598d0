package services

import (
	"context"

	"auctions/internal/events"
	applog "auctions/internal/log"
)

// publish is best effort: the operation already committed.
func publish(ctx context.Context, p events.Publisher, e events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		applog.Warn(nil, "event.publish.fail", err, map[string]any{"type": e.Type, "listing_id": e.ListingID})
	}
}
