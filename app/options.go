package app

import (
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/message_broaker"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ContainerOption configures Container creation. Used for testing and customization.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	db     *sqlx.DB
	redis  *redis.Client
	broker message_broaker.MessageBroker
	logger logger.Logger
}

// WithDB injects a database connection instead of opening one from config.
func WithDB(db *sqlx.DB) ContainerOption {
	return func(c *containerConfig) {
		c.db = db
	}
}

// WithRedis injects a Redis client. It is only used when the lock driver is redis.
func WithRedis(redis *redis.Client) ContainerOption {
	return func(c *containerConfig) {
		c.redis = redis
	}
}

// WithMessageBroker injects the broker used by the rabbitmq notifier.
func WithMessageBroker(broker message_broaker.MessageBroker) ContainerOption {
	return func(c *containerConfig) {
		c.broker = broker
	}
}

func WithLogger(log logger.Logger) ContainerOption {
	return func(c *containerConfig) {
		c.logger = log
	}
}
