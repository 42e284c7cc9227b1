package runtime

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type stubSubscription struct {
	closes int
	err    error
}

func (s *stubSubscription) Close() error {
	s.closes++
	return s.err
}

func TestRegistry_ReleaseAll_ClosesEachExactlyOnce(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))
	first := &stubSubscription{}
	second := &stubSubscription{}

	registry.Register(first)
	registry.Register(second)
	req.Equal(2, registry.Len())

	registry.ReleaseAll()

	req.Equal(1, first.closes)
	req.Equal(1, second.closes)
	req.Zero(registry.Len())
}

func TestRegistry_ReleaseAll_IsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))
	sub := &stubSubscription{}
	registry.Register(sub)

	registry.ReleaseAll()
	registry.ReleaseAll()
	registry.ReleaseAll()

	req.Equal(1, sub.closes)
}

func TestRegistry_ReleaseAll_ToleratesCloseFailures(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))
	failing := &stubSubscription{err: fmt.Errorf("handle already torn down")}
	healthy := &stubSubscription{}

	registry.Register(failing)
	registry.Register(healthy)

	// A close failure on one handle must not prevent closing the rest
	registry.ReleaseAll()

	req.Equal(1, failing.closes)
	req.Equal(1, healthy.closes)
}

func TestRegistry_ReleaseAll_SafeWithZeroSubscriptions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NotPanics(func() {
		registry.ReleaseAll()
	})
}

func TestRegistry_Register_IgnoresNilHandle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))

	registry.Register(nil)

	req.Zero(registry.Len())
	req.NotPanics(func() {
		registry.ReleaseAll()
	})
}
