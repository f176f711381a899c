package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultInterval    = time.Minute
	defaultConcurrency = 4
	defaultTableName   = "events"
	defaultServiceTag  = "expiry-sweeper"
)

var (
	errNoResources        = errors.New("at least one resource id is required")
	errInvalidInterval    = errors.New("interval must be positive")
	errInvalidConcurrency = errors.New("concurrency must be positive")
)

// Config holds the parsed command line of one sweeper process.
type Config struct {
	ResourceIDs []uuid.UUID
	Interval    time.Duration
	Concurrency int
	Once        bool
	MetricsAddr string
	TableName   string
}

func parseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet(defaultServiceTag, flag.ContinueOnError)

	var (
		resources   = fs.String("resources", "", "Comma-separated resource ids whose queues are swept")
		interval    = fs.Duration("interval", defaultInterval, "Time between two sweeps")
		concurrency = fs.Int("concurrency", defaultConcurrency, "Number of queues swept in parallel")
		once        = fs.Bool("once", false, "Sweep every queue once and exit")
		metricsAddr = fs.String("metrics-addr", "", "Listen address for the Prometheus /metrics endpoint, disabled when empty")
		tableName   = fs.String("table", defaultTableName, "Event store table name")
	)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	resourceIDs, err := parseResourceIDs(*resources)
	if err != nil {
		return Config{}, err
	}

	if *interval <= 0 {
		return Config{}, errInvalidInterval
	}

	if *concurrency <= 0 {
		return Config{}, errInvalidConcurrency
	}

	return Config{
		ResourceIDs: resourceIDs,
		Interval:    *interval,
		Concurrency: *concurrency,
		Once:        *once,
		MetricsAddr: *metricsAddr,
		TableName:   *tableName,
	}, nil
}

// parseResourceIDs splits raw at commas, ignores blanks and drops duplicates keeping first-seen order.
func parseResourceIDs(raw string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("resource id %q: %w", part, err)
		}

		if id == uuid.Nil {
			return nil, fmt.Errorf("resource id %q: must not be the nil uuid", part)
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, errNoResources
	}

	return ids, nil
}
