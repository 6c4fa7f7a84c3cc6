package inference

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.text, nil
}

type timeoutProvider struct {
	calls int
}

func (p *timeoutProvider) Name() string { return "primary" }

func (p *timeoutProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.calls++
	<-ctx.Done()
	return "", ctx.Err()
}

type testSchema struct {
	District string `json:"district"`
	MaxPrice int64  `json:"max_price"`
}

func TestGateway_PrimarySucceeds(t *testing.T) {
	primary := &stubProvider{name: "primary", text: `{"district":"Cầu Giấy","max_price":5000000000}`}
	secondary := &stubProvider{name: "secondary", text: `{}`}
	g := NewGateway(nil, time.Second, time.Millisecond, primary, secondary)

	var out testSchema
	meta, err := g.Infer(context.Background(), "q", &out)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if meta.Provider != "primary" || meta.Fallback {
		t.Fatalf("expected primary, got %+v", meta)
	}
	if out.District != "Cầu Giấy" || out.MaxPrice != 5_000_000_000 {
		t.Fatalf("unexpected decode: %+v", out)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary should not be called")
	}
}

func TestGateway_PrimaryTimesOut_FallsBack(t *testing.T) {
	primary := &timeoutProvider{}
	secondary := &stubProvider{name: "secondary", text: `{"district":"Đống Đa"}`}
	g := NewGateway(nil, 10*time.Millisecond, time.Millisecond, primary, secondary)

	var out testSchema
	meta, err := g.Infer(context.Background(), "q", &out)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if meta.Provider != "secondary" || !meta.Fallback {
		t.Fatalf("expected fallback to secondary, got %+v", meta)
	}
	if primary.calls != 2 {
		t.Fatalf("expected one retry on primary, got %d calls", primary.calls)
	}
}

func TestGateway_MalformedOutputIsFailure(t *testing.T) {
	primary := &stubProvider{name: "primary", text: "xin chào, tôi không thể trả lời"}
	secondary := &stubProvider{name: "secondary", text: "```json\n{\"district\":\"Tây Hồ\"}\n```"}
	g := NewGateway(nil, time.Second, time.Millisecond, primary, secondary)

	var out testSchema
	meta, err := g.Infer(context.Background(), "q", &out)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if meta.Provider != "secondary" {
		t.Fatalf("expected secondary, got %q", meta.Provider)
	}
	if out.District != "Tây Hồ" {
		t.Fatalf("fence stripping failed: %+v", out)
	}
}

func TestGateway_AllProvidersExhausted(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("boom")}
	secondary := &stubProvider{name: "secondary", err: errors.New("down")}
	g := NewGateway(nil, time.Second, time.Millisecond, primary, secondary)

	var out testSchema
	_, err := g.Infer(context.Background(), "q", &out)
	if !errors.Is(err, ErrAllProvidersExhausted) {
		t.Fatalf("expected ErrAllProvidersExhausted, got %v", err)
	}
	if primary.calls != 2 || secondary.calls != 1 {
		t.Fatalf("unexpected attempt counts: primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestGateway_CancelledContextStopsImmediately(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("boom")}
	secondary := &stubProvider{name: "secondary", text: `{}`}
	g := NewGateway(nil, time.Second, time.Hour, primary, secondary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out testSchema
	_, err := g.Infer(ctx, "q", &out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
