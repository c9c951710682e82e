package middleware

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"solo-rpc/message"
	"solo-rpc/protocol"
	"solo-rpc/rpcerror"
)

// echoHandler returns a success response immediately.
func echoHandler(ctx context.Context, req *message.Request) *message.Response {
	return &message.Response{Status: protocol.StatusOK, Payload: []byte("ok")}
}

// slowHandler takes 200ms to answer.
func slowHandler(ctx context.Context, req *message.Request) *message.Response {
	time.Sleep(200 * time.Millisecond)
	return &message.Response{Status: protocol.StatusOK, Payload: []byte("ok")}
}

func kindOf(t *testing.T, resp *message.Response) string {
	t.Helper()
	body, err := rpcerror.ParseBody(resp.Payload)
	if err != nil {
		t.Fatalf("error response payload should parse: %v", err)
	}
	return body.Kind
}

func TestLogging(t *testing.T) {
	handler := Logging(zap.NewNop())(echoHandler)

	resp := handler(context.Background(), &message.Request{Proc: 1})
	if resp == nil {
		t.Fatal("expect non-nil response")
	}
	if string(resp.Payload) != "ok" {
		t.Fatalf("expect payload 'ok', got '%s'", resp.Payload)
	}
}

func TestLoggingPassesFailuresThrough(t *testing.T) {
	failing := func(ctx context.Context, req *message.Request) *message.Response {
		return message.Fail(protocol.StatusAppError, rpcerror.KindApp, "no")
	}
	handler := Logging(zap.NewNop())(failing)

	resp := handler(context.Background(), &message.Request{Proc: 1})
	if resp.Status != protocol.StatusAppError {
		t.Fatalf("Status = %d, want %d", resp.Status, protocol.StatusAppError)
	}
}

func TestTimeoutPass(t *testing.T) {
	handler := Timeout(500 * time.Millisecond)(echoHandler)

	resp := handler(context.Background(), &message.Request{Proc: 1})
	if resp.Status != protocol.StatusOK {
		t.Fatalf("expect StatusOK, got %d", resp.Status)
	}
}

func TestTimeoutExceeded(t *testing.T) {
	// Timeout 50ms, handler needs 200ms.
	handler := Timeout(50 * time.Millisecond)(slowHandler)

	resp := handler(context.Background(), &message.Request{Proc: 1})
	if resp.Status != protocol.StatusInternal {
		t.Fatalf("expect StatusInternal, got %d", resp.Status)
	}
	if kind := kindOf(t, resp); kind != rpcerror.KindInternal {
		t.Fatalf("expect kind %q, got %q", rpcerror.KindInternal, kind)
	}
}

func TestRateLimit(t *testing.T) {
	// rate=1/s, burst=2: the first two pass, the third is rejected.
	handler := RateLimit(1, 2)(echoHandler)
	req := &message.Request{Proc: 1}

	for i := 0; i < 2; i++ {
		resp := handler(context.Background(), req)
		if resp.Status != protocol.StatusOK {
			t.Fatalf("request %d should pass, got status %d", i, resp.Status)
		}
	}

	resp := handler(context.Background(), req)
	if resp.Status != protocol.StatusInternal {
		t.Fatalf("request 3 should be rate limited, got status %d", resp.Status)
	}
}

func TestRecovery(t *testing.T) {
	panicking := func(ctx context.Context, req *message.Request) *message.Response {
		panic("boom")
	}
	handler := Recovery(zap.NewNop())(panicking)

	resp := handler(context.Background(), &message.Request{Proc: 1})
	if resp == nil {
		t.Fatal("expect a response, not a propagated panic")
	}
	if resp.Status != protocol.StatusInternal {
		t.Fatalf("expect StatusInternal, got %d", resp.Status)
	}
	if kind := kindOf(t, resp); kind != rpcerror.KindInternal {
		t.Fatalf("expect kind %q, got %q", rpcerror.KindInternal, kind)
	}
}

func TestChain(t *testing.T) {
	// Verify order: outer middleware sees the request first and the
	// response last.
	var order []string
	tag := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req *message.Request) *message.Response {
				order = append(order, name+".before")
				resp := next(ctx, req)
				order = append(order, name+".after")
				return resp
			}
		}
	}

	handler := Chain(tag("A"), tag("B"))(echoHandler)
	resp := handler(context.Background(), &message.Request{Proc: 1})
	if resp.Status != protocol.StatusOK {
		t.Fatalf("expect StatusOK, got %d", resp.Status)
	}

	want := []string{"A.before", "B.before", "B.after", "A.after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
