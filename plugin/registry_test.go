package plugin_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/postings/plugin"
	"github.com/xraph/postings/posting"
)

type named string

func (n named) Name() string { return string(n) }

type postingHook struct {
	named
	calls int
	err   error
	delay time.Duration
}

func (h *postingHook) OnPostingRecorded(context.Context, *posting.Posting) error {
	time.Sleep(h.delay)
	h.calls++
	return h.err
}

func TestRegisterDuplicate(t *testing.T) {
	r := plugin.NewRegistry()
	if err := r.Register(named("a")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(named("a")); err == nil {
		t.Error("expected duplicate registration error")
	}
	if r.Count() != 1 || r.Get("a") == nil || r.Get("b") != nil {
		t.Errorf("registry state: count=%d", r.Count())
	}
}

func TestEmitPostingRecorded(t *testing.T) {
	var buf bytes.Buffer
	r := plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	ok := &postingHook{named: "ok"}
	failing := &postingHook{named: "failing", err: errors.New("boom")}
	for _, p := range []plugin.Plugin{ok, failing, named("passive")} {
		if err := r.Register(p); err != nil {
			t.Fatal(err)
		}
	}

	r.EmitPostingRecorded(context.Background(), &posting.Posting{})

	if ok.calls != 1 || failing.calls != 1 {
		t.Errorf("calls: ok=%d failing=%d", ok.calls, failing.calls)
	}
	if !strings.Contains(buf.String(), "plugin OnPostingRecorded failed") {
		t.Errorf("hook failure not logged: %s", buf.String())
	}
	if len(r.List()) != 3 {
		t.Errorf("expected 3 plugins, got %d", len(r.List()))
	}
}

func TestHookTimeout(t *testing.T) {
	var buf bytes.Buffer
	r := plugin.NewRegistry().
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))).
		WithTimeout(10 * time.Millisecond)

	slow := &postingHook{named: "slow", delay: 200 * time.Millisecond}
	if err := r.Register(slow); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	r.EmitPostingRecorded(context.Background(), &posting.Posting{})
	if time.Since(start) > 150*time.Millisecond {
		t.Error("slow hook blocked emission")
	}
	if !strings.Contains(buf.String(), "plugin timeout: slow") {
		t.Errorf("timeout not logged: %s", buf.String())
	}
}
