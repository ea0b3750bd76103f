package notification

import (
	"context"
	"encoding/json"

	"github.com/jelajah-lab/backend/internal/domain/notification/event"
	"github.com/jelajah-lab/backend/pkg/pubsub"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

type Emitter interface {
	// Emit publishes the events of a user. It never fails, an event which
	// cannot be published is only logged.
	Emit(ctx context.Context, userID string, events ...event.Event)
}

type emitter struct {
	publisher pubsub.Publisher
}

func NewEmitter(publisher pubsub.Publisher) *emitter {
	return &emitter{publisher: publisher}
}

func (e *emitter) Emit(ctx context.Context, userID string, events ...event.Event) {
	topic := xcontext.Configs(ctx).Kafka.Topic
	for _, ev := range events {
		b, err := json.Marshal(event.New(ev, event.Metadata{To: userID}))
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot marshal event %s: %v", ev.Op(), err)
			continue
		}

		err = e.publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(userID), Msg: b})
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot publish event %s of user %s: %v", ev.Op(), userID, err)
		}
	}
}
