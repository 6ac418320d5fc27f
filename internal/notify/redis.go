package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second

	inboxLimit = 20
)

// Message is the payload published for a user.
type Message struct {
	ID        string    `json:"id"`
	UserAlias string    `json:"user_alias"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// RedisNotifier publishes to a per-user channel and mirrors the message into
// a capped inbox list so clients that were offline can catch up.
type RedisNotifier struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient returns a configured go-redis client and validates the
// connection with PING.
func NewRedisClient(addr, password string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// NewRedisNotifier builds the notifier. ttl bounds how long inbox entries
// stay around for offline users.
func NewRedisNotifier(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisNotifier {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisNotifier{client: client, ttl: ttl, logger: logger}
}

func channelKey(userAlias string) string {
	return fmt.Sprintf("voltqueue:notify:%s", userAlias)
}

func inboxKey(userAlias string) string {
	return fmt.Sprintf("voltqueue:inbox:%s", userAlias)
}

// Notify publishes the message. Failures are logged and swallowed.
func (n *RedisNotifier) Notify(ctx context.Context, userAlias, message string) {
	msg := Message{
		ID:        uuid.NewString(),
		UserAlias: userAlias,
		Body:      message,
		SentAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		n.logger.Warn("failed to encode notification", zap.Error(err))
		return
	}

	if err := n.client.Publish(ctx, channelKey(userAlias), data).Err(); err != nil {
		n.logger.Warn("failed to publish notification",
			zap.String("user", userAlias),
			zap.Error(err),
		)
	}

	pipe := n.client.TxPipeline()
	pipe.LPush(ctx, inboxKey(userAlias), data)
	pipe.LTrim(ctx, inboxKey(userAlias), 0, inboxLimit-1)
	pipe.Expire(ctx, inboxKey(userAlias), n.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		n.logger.Warn("failed to store notification inbox entry",
			zap.String("user", userAlias),
			zap.Error(err),
		)
	}
}
