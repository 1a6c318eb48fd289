package providers

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisProvider(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedisProvider(mr.Addr(), "")
	t.Cleanup(func() { _ = client.Close() })

	if client == nil {
		t.Fatal("expected redis client to be non-nil")
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
