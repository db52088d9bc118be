package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/wasselni/ridehail/internal/domain/models"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/metrics"
	"github.com/wasselni/ridehail/pkg/rabbit"
)

// RideExchange is the topic exchange carrying ride lifecycle events.
// Routing keys look like "ride.<kind>.<ride_id>".
const RideExchange = "ride_events"

type RideProducer struct {
	client *rabbit.RabbitMQ
}

func NewRideProducer(client *rabbit.RabbitMQ) *RideProducer {
	return &RideProducer{client: client}
}

// PublishRideEvent publishes a ride lifecycle event for downstream
// consumers (analytics, receipts, audit).
func (p *RideProducer) PublishRideEvent(ctx context.Context, ev models.Event) error {
	const op = "RideProducer.PublishRideEvent"

	body, err := json.Marshal(ev)
	if err != nil {
		ctx = wrap.WithAction(ctx, "marshal_ride_event")
		return wrap.Error(ctx, fmt.Errorf("%s: failed to marshal event: %w", op, err))
	}

	key := fmt.Sprintf("ride.%s.%s", ev.Kind, ev.RideID)

	err = p.client.Channel.PublishWithContext(
		ctx,
		RideExchange,
		key,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	metrics.RecordRabbitMQPublish(RideExchange, err)
	if err != nil {
		ctx = wrap.WithAction(ctx, "publish_ride_event")
		return wrap.Error(ctx, fmt.Errorf("%s: failed to publish: %w", op, err))
	}

	return nil
}
