package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/turnstake/backend/internal/game"
)

const eventsChannel = "match_events"

type envelope struct {
	UserID string     `json:"user_id"`
	Event  game.Event `json:"event"`
}

// Publisher implements game.Notifier by fanning match events out through
// Redis, so a player's socket can live on any instance.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) Notify(userID string, e game.Event) {
	payload, err := json.Marshal(envelope{UserID: userID, Event: e})
	if err != nil {
		log.Printf("[WS] marshal match event for %s: %v", userID, err)
		return
	}
	if err := p.rdb.Publish(context.Background(), eventsChannel, payload).Err(); err != nil {
		log.Printf("[WS] publish match event for %s failed: %v", userID, err)
	}
}

// StartEventSubscriber forwards match events from Redis to locally connected
// clients. Events for players connected elsewhere are simply not ours.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	pubsub := rdb.Subscribe(ctx, eventsChannel)
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		log.Printf("[WS] match_events subscriber started")
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.Printf("[WS] invalid match event payload: %v", err)
					continue
				}
				if hub.IsConnected(env.UserID) {
					hub.Notify(env.UserID, env.Event)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
