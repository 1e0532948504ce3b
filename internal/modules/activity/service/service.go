package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	EventComment = "comment"
	EventLike    = "like"
)

// Event is one change on a blog, pushed to live viewers.
type Event struct {
	Type    string `json:"type"`
	BlogID  string `json:"blogId"`
	Likes   *int   `json:"likes,omitempty"`
	Comment any    `json:"comment,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscription delivers raw event payloads until Close is called.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context, blogID string) (Subscription, error)
}

type Hub interface {
	Publisher
	Subscriber
}

func Channel(blogID string) string {
	return fmt.Sprintf("blog_activity:%s", blogID)
}

type redisHub struct {
	client *redis.Client
}

func NewRedisHub(client *redis.Client) Hub {
	return &redisHub{client: client}
}

func (h *redisHub) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return h.client.Publish(ctx, Channel(event.BlogID), payload).Err()
}

func (h *redisHub) Subscribe(ctx context.Context, blogID string) (Subscription, error) {
	pubsub := h.client.Subscribe(ctx, Channel(blogID))

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(blogID), err)
	}

	sub := &redisSubscription{pubsub: pubsub, out: make(chan []byte, 16), done: make(chan struct{})}
	go sub.pump()
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan []byte
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) pump() {
	defer close(s.out)
	for msg := range s.pubsub.Channel() {
		select {
		case s.out <- []byte(msg.Payload):
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.pubsub.Close()
}
