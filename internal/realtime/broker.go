// Package realtime fans events out over Redis pub/sub and bridges channels to
// WebSocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrUnavailable = errors.New("realtime broker unavailable")

const writeWait = 10 * time.Second

type Broker struct {
	rdb      *redis.Client
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewBroker accepts a nil client; publishing is then a no-op.
func NewBroker(rdb *redis.Client, log *zap.Logger, allowedOrigins []string) *Broker {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &Broker{
		rdb: rdb,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func UserChannel(userID fmt.Stringer) string {
	return "user_notifications:" + userID.String()
}

func GameChannel(gameID fmt.Stringer) string {
	return "game_events:" + gameID.String()
}

// Publish JSON-encodes v onto channel.
func (b *Broker) Publish(ctx context.Context, channel string, v any) error {
	if b == nil || b.rdb == nil {
		return nil
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe calls onEvent for every message until ctx is done or onEvent fails.
// The subscription is confirmed before the first message is read, so a publish
// that happens after Subscribe returns its ready signal is never missed.
func (b *Broker) Subscribe(ctx context.Context, channel string, ready func(), onEvent func(payload []byte) error) error {
	if b == nil || b.rdb == nil {
		return ErrUnavailable
	}

	pubsub := b.rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	if ready != nil {
		ready()
	}

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := onEvent([]byte(msg.Payload)); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Stream upgrades the request and forwards every message on channel to the
// socket until either side goes away.
func (b *Broker) Stream(c *gin.Context, channel string) {
	if b == nil || b.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ErrUnavailable.Error()})
		return
	}

	conn, err := b.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		b.log.Warn("failed to upgrade websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Reads only detect the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = b.Subscribe(ctx, channel, nil, func(payload []byte) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, payload)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		b.log.Debug("websocket stream closed", zap.String("channel", channel), zap.Error(err))
	}
}
