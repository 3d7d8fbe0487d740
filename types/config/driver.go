package config

import "strings"

type LockDriver int

const (
	PostgresLock LockDriver = iota + 1
	RedisLock
)

// String converts the LockDriver enum to a human-readable string.
func (d LockDriver) String() string {
	switch d {
	case PostgresLock:
		return "postgres"
	case RedisLock:
		return "redis"
	}
	return "unknown"
}

func ParseLockDriver(s string) LockDriver {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres":
		return PostgresLock
	case "redis":
		return RedisLock
	}
	return 0
}

type NotifierDriver int

const (
	LogNotifier NotifierDriver = iota + 1
	RabbitMQ
)

func (d NotifierDriver) String() string {
	switch d {
	case LogNotifier:
		return "log"
	case RabbitMQ:
		return "rabbitmq"
	default:
		return "unknown"
	}
}

func ParseNotifierDriver(s string) NotifierDriver {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "log":
		return LogNotifier
	case "rabbitmq":
		return RabbitMQ
	}
	return 0
}
