package config

import (
	"errors"
)

var (
	// ErrInvalidConfig is returned by Validate, and by Load after decoding,
	// when a field cannot run the service: an empty addr, a non-positive
	// queue, worker, limit, bucket or snapshot setting, a negative
	// initial_rating or dedupe_size, an unknown log_format, or a metrics
	// name, label or bucket layout Prometheus would reject.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig is returned by Load when the REPENT_CONFIG file cannot
	// be read or parsed, or when a value cannot be decoded into its field,
	// such as a non-numeric REPENT_QUEUE_SIZE.
	ErrLoadConfig = errors.New("load config failed")
)
