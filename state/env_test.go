package state

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"impdex/config"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func TestContextPlumbing(t *testing.T) {
	ctx := ContextWithEnv(context.Background())

	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("environment start time not set")
	}
	if EnvFromContext(ctx) != env {
		t.Error("repeated lookups must return the same environment")
	}

	t.Run("panic on missing env", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic when env not in context")
			}
		}()
		EnvFromContext(context.Background())
	})
}

func TestUptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	time.Sleep(10 * time.Millisecond)
	if got := env.Uptime(); got < 10*time.Millisecond || got > time.Second {
		t.Errorf("Uptime() = %v, want something slightly above 10ms", got)
	}
}

func TestStdLogRedirect(t *testing.T) {
	env := &LocalEnv{Log: testLogger(t)}

	// Redirect and restore must survive repeated cycles.
	for i := range 3 {
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Fatalf("cycle %d: restoreStdLog not set", i)
		}
		env.RestoreStdLog()
	}

	// Without a logger there is nothing to redirect, and restore without a
	// prior redirect must not panic.
	bare := &LocalEnv{}
	bare.RedirectStdLog()
	if bare.restoreStdLog != nil {
		t.Error("redirect without a logger should be a no-op")
	}
	bare.RestoreStdLog()
}

func TestEnvDefaults(t *testing.T) {
	env := newLocalEnv()

	if len(env.DefaultStyle) == 0 {
		t.Error("expected default stylesheet to be populated")
	}
	for _, name := range config.IconKindNames() {
		kind := config.MustParseIconKind(name)
		svg, ok := env.DefaultIcons[kind]
		if !ok {
			t.Errorf("missing default icon for %s", name)
			continue
		}
		if len(svg) == 0 {
			t.Errorf("empty default icon for %s", name)
		}
	}
}
