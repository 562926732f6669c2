package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hamed0406/netwatch/internal/domain"
)

const (
	DefaultKeyPrefix = "netwatch:"
	latestKey        = "latest"
	channel          = "cycles"
)

// Publisher keeps a hash of the latest status per target and publishes every
// cycle report as JSON on a pub/sub channel.
type Publisher struct {
	cli    *redis.Client
	prefix string
}

func New(ctx context.Context, addr string) (*Publisher, error) {
	cli := redis.NewClient(&redis.Options{Addr: addr})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := cli.Ping(ctxPing).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Publisher{cli: cli, prefix: DefaultKeyPrefix}, nil
}

func (p *Publisher) Name() string { return "redis" }

// LatestKey is the hash holding target -> latest result JSON.
func (p *Publisher) LatestKey() string { return p.prefix + latestKey }

// Channel carries one JSON cycle report per message.
func (p *Publisher) Channel() string { return p.prefix + channel }

func (p *Publisher) Write(ctx context.Context, report domain.CycleReport) error {
	if len(report.Results) == 0 {
		return nil
	}
	fields, err := latestFields(report)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	pipe := p.cli.TxPipeline()
	pipe.HSet(ctx, p.LatestKey(), fields)
	pipe.Publish(ctx, p.Channel(), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis exec: %w", err)
	}
	return nil
}

func latestFields(report domain.CycleReport) (map[string]any, error) {
	fields := make(map[string]any, len(report.Results))
	for _, r := range report.Results {
		b, err := json.Marshal(domain.HistoryEntry{
			At:        report.At,
			Target:    r.Target,
			Responded: r.Responded,
			Latency:   r.Latency,
			Status:    r.Status,
		})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", r.Target, err)
		}
		fields[string(r.Target)] = string(b)
	}
	return fields, nil
}

func (p *Publisher) Close() error { return p.cli.Close() }
