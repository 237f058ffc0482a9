package pipeline

import (
	"context"
	"errors"
	"testing"
)

// traceLayer records enter/exit events into a shared log.
func traceLayer(name string, log *[]string) Middleware[string, string] {
	return func(ctx context.Context, req string, next Handler[string, string]) (string, error) {
		*log = append(*log, name+"-enter")
		resp, err := next(ctx, req)
		*log = append(*log, name+"-exit")
		return resp, err
	}
}

func TestCompose_OnionOrder(t *testing.T) {
	var log []string

	terminal := func(_ context.Context, req string) (string, error) {
		log = append(log, "terminal")
		return req + "!", nil
	}

	h := Compose(terminal,
		traceLayer("outer", &log),
		traceLayer("middle", &log),
		traceLayer("inner", &log),
	)

	resp, err := h(context.Background(), "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "hi!" {
		t.Errorf("resp = %q, want %q", resp, "hi!")
	}

	want := []string{
		"outer-enter", "middle-enter", "inner-enter",
		"terminal",
		"inner-exit", "middle-exit", "outer-exit",
	}
	if len(log) != len(want) {
		t.Fatalf("event log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("event[%d] = %q, want %q (full log: %v)", i, log[i], want[i], log)
		}
	}
}

func TestCompose_NoLayers(t *testing.T) {
	terminal := func(_ context.Context, req int) (int, error) {
		return req * 2, nil
	}

	h := Compose(terminal)
	resp, err := h(context.Background(), 21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != 42 {
		t.Errorf("resp = %d, want 42", resp)
	}
}

func TestCompose_RequestAndResponseTransform(t *testing.T) {
	terminal := func(_ context.Context, req string) (string, error) {
		return "resp:" + req, nil
	}

	prefix := func(ctx context.Context, req string, next Handler[string, string]) (string, error) {
		resp, err := next(ctx, "pre-"+req)
		if err != nil {
			return "", err
		}
		return resp + "-post", nil
	}

	h := Compose(terminal, prefix)
	resp, err := h(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "resp:pre-x-post" {
		t.Errorf("resp = %q, want %q", resp, "resp:pre-x-post")
	}
}

func TestCompose_ShortCircuit(t *testing.T) {
	terminalCalled := false
	terminal := func(_ context.Context, req string) (string, error) {
		terminalCalled = true
		return req, nil
	}

	blocker := func(_ context.Context, _ string, _ Handler[string, string]) (string, error) {
		return "blocked", nil
	}

	h := Compose(terminal, blocker)
	resp, err := h(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "blocked" {
		t.Errorf("resp = %q, want %q", resp, "blocked")
	}
	if terminalCalled {
		t.Error("terminal was called despite short-circuit")
	}
}

func TestCompose_ErrorPropagatesInReverseOrder(t *testing.T) {
	sentinel := errors.New("boom")
	var observers []string

	terminal := func(_ context.Context, _ string) (string, error) {
		return "", sentinel
	}

	observe := func(name string) Middleware[string, string] {
		return func(ctx context.Context, req string, next Handler[string, string]) (string, error) {
			resp, err := next(ctx, req)
			if err != nil {
				observers = append(observers, name)
			}
			return resp, err
		}
	}

	h := Compose(terminal, observe("outer"), observe("inner"))
	_, err := h(context.Background(), "x")
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}

	if len(observers) != 2 || observers[0] != "inner" || observers[1] != "outer" {
		t.Errorf("observer order = %v, want [inner outer]", observers)
	}
}

func TestCompose_ErrorTransform(t *testing.T) {
	terminal := func(_ context.Context, _ string) (string, error) {
		return "", errors.New("inner failure")
	}

	wrapper := func(ctx context.Context, req string, next Handler[string, string]) (string, error) {
		resp, err := next(ctx, req)
		if err != nil {
			return resp, errors.New("wrapped: " + err.Error())
		}
		return resp, nil
	}

	h := Compose(terminal, wrapper)
	_, err := h(context.Background(), "x")
	if err == nil || err.Error() != "wrapped: inner failure" {
		t.Errorf("err = %v, want wrapped error", err)
	}
}

func TestCompose_DoubleNextFails(t *testing.T) {
	terminal := func(_ context.Context, req string) (string, error) {
		return req, nil
	}

	greedy := func(ctx context.Context, req string, next Handler[string, string]) (string, error) {
		if _, err := next(ctx, req); err != nil {
			return "", err
		}
		return next(ctx, req)
	}

	h := Compose(terminal, greedy)
	_, err := h(context.Background(), "x")
	if !errors.Is(err, ErrNextCalledTwice) {
		t.Fatalf("err = %v, want ErrNextCalledTwice", err)
	}
}

func TestCompose_DoubleNextGuardIsPerInvocation(t *testing.T) {
	terminal := func(_ context.Context, req string) (string, error) {
		return req, nil
	}

	passthrough := func(ctx context.Context, req string, next Handler[string, string]) (string, error) {
		return next(ctx, req)
	}

	h := Compose(terminal, passthrough)

	// Two sequential invocations must each get a fresh guard.
	for i := 0; i < 2; i++ {
		if _, err := h(context.Background(), "x"); err != nil {
			t.Fatalf("invocation %d: unexpected error: %v", i, err)
		}
	}
}

func TestCompose_DoubleNextInInnerLayerOnly(t *testing.T) {
	terminal := func(_ context.Context, req string) (string, error) {
		return req, nil
	}

	var outerSawError error
	outer := func(ctx context.Context, req string, next Handler[string, string]) (string, error) {
		resp, err := next(ctx, req)
		outerSawError = err
		return resp, err
	}
	greedy := func(ctx context.Context, req string, next Handler[string, string]) (string, error) {
		_, _ = next(ctx, req)
		return next(ctx, req)
	}

	h := Compose(terminal, outer, greedy)
	_, err := h(context.Background(), "x")
	if !errors.Is(err, ErrNextCalledTwice) {
		t.Fatalf("err = %v, want ErrNextCalledTwice", err)
	}
	if !errors.Is(outerSawError, ErrNextCalledTwice) {
		t.Errorf("outer layer observed %v, want ErrNextCalledTwice", outerSawError)
	}
}
