package redis

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/hamed0406/netwatch/internal/domain"
)

func report() domain.CycleReport {
	return domain.CycleReport{
		At: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Results: []domain.Result{
			{Target: "10.0.0.1", Responded: true, Latency: 42 * time.Millisecond, Status: domain.StatusOK},
			{Target: "10.0.0.2", Status: domain.StatusDown},
		},
	}
}

func TestLatestFields(t *testing.T) {
	fields, err := latestFields(report())
	if err != nil {
		t.Fatalf("latestFields: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("want 2 fields, got %d", len(fields))
	}
	var down struct {
		LatencyMS *float64 `json:"latency_ms"`
		Status    string   `json:"status"`
	}
	if err := json.Unmarshal([]byte(fields["10.0.0.2"].(string)), &down); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if down.LatencyMS != nil || down.Status != "DOWN" {
		t.Fatalf("down field: %+v", down)
	}
}

func TestPublisher_WriteAndSubscribe(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := New(ctx, addr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()
	p.prefix = "netwatch-test-" + time.Now().UTC().Format("150405.000000000") + ":"

	sub := p.cli.Subscribe(ctx, p.Channel())
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := p.Write(ctx, report()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var got domain.CycleReport
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(got.Results) != 2 || got.Results[0].Target != "10.0.0.1" {
		t.Fatalf("payload: %s", msg.Payload)
	}

	n, err := p.cli.HLen(ctx, p.LatestKey()).Result()
	if err != nil || n != 2 {
		t.Fatalf("HLen = %d, %v", n, err)
	}
	_ = p.cli.Del(ctx, p.LatestKey()).Err()
}
