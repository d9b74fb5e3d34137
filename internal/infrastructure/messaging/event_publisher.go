package messaging

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/imbuy/marketplace/internal/bus"
	"github.com/imbuy/marketplace/internal/domain"
	"github.com/imbuy/marketplace/internal/events"
)

// LotEventPublisher announces lot lifecycle changes on the lot-events topic,
// keyed by lot id so one lot's events stay ordered.
type LotEventPublisher struct {
	publisher bus.Publisher
}

func NewLotEventPublisher(publisher bus.Publisher) *LotEventPublisher {
	return &LotEventPublisher{publisher: publisher}
}

func (p *LotEventPublisher) PublishLotCreated(ctx context.Context, lot domain.Lot) error {
	value, err := json.Marshal(events.LotCreated{
		Envelope:   events.NewEnvelope(events.TypeLotCreated, SourceService),
		LotID:      lot.ID,
		Title:      lot.Title,
		OwnerID:    lot.OwnerID,
		StartPrice: lot.StartPrice,
		EndDate:    lot.EndDate,
	})
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, events.TopicLotEvents, lotKey(lot.ID), value)
}

func (p *LotEventPublisher) PublishLotStatusChanged(ctx context.Context, lot domain.Lot, oldStatus domain.LotStatus) error {
	value, err := json.Marshal(events.LotStatusChanged{
		Envelope:  events.NewEnvelope(events.TypeLotStatusChanged, SourceService),
		LotID:     lot.ID,
		OldStatus: string(oldStatus),
		NewStatus: string(lot.Status),
		WinnerID:  lot.WinnerID,
	})
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, events.TopicLotEvents, lotKey(lot.ID), value)
}

func lotKey(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}
