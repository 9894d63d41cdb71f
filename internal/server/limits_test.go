package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/go-hindi-bpe/internal/server"
	"github.com/example/go-hindi-bpe/internal/tokenizer"
)

// ---------------------------------------------------------------------------
// request size limits
// ---------------------------------------------------------------------------

func TestEncode_OversizedTextRejectedAs413(t *testing.T) {
	h, _ := newTestHandler(t, server.WithMaxTextBytes(10))

	rec := post(h, "/encode", `{"text":"`+strings.Repeat("x", 11)+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}

	var errBody map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}

	if errBody["error"] == "" {
		t.Error("want non-empty error field")
	}
}

func TestEncode_TextAtExactLimitIsAccepted(t *testing.T) {
	h, _ := newTestHandler(t, server.WithMaxTextBytes(5))

	if rec := post(h, "/encode", `{"text":"hello"}`); rec.Code != http.StatusOK {
		t.Fatalf("want 200 for exactly-limit text, got %d", rec.Code)
	}
}

func TestRoundTrip_OversizedTextRejected(t *testing.T) {
	// नमस्ते is 18 bytes.
	h, _ := newTestHandler(t, server.WithMaxTextBytes(17))

	if rec := post(h, "/roundtrip", `{"text":"नमस्ते"}`); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}
}

func TestDecode_TooManyIDsRejected(t *testing.T) {
	h, _ := newTestHandler(t, server.WithMaxTextBytes(3))

	if rec := post(h, "/decode", `{"ids":[5,6,7,8]}`); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// worker slots
// ---------------------------------------------------------------------------

// blockingCodec holds Decode until release is closed.
type blockingCodec struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCodec) Resolve(string) []tokenizer.Resolution { return nil }
func (b *blockingCodec) Ratio(string) float64                  { return 0 }

func (b *blockingCodec) Decode([]int) string {
	b.entered <- struct{}{}
	<-b.release

	return ""
}

func TestWorkers_TimeoutWhileWaitingReturns503(t *testing.T) {
	codec := &blockingCodec{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := server.NewHandler(codec,
		server.WithWorkers(1),
		server.WithRequestTimeout(20*time.Millisecond),
	)

	done := make(chan int, 1)

	go func() {
		done <- post(h, "/decode", `{"ids":[1]}`).Code
	}()

	<-codec.entered

	rec := post(h, "/decode", `{"ids":[1]}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("want 503 while the only worker is busy, got %d", rec.Code)
	}

	close(codec.release)

	if code := <-done; code != http.StatusOK {
		t.Errorf("first request = %d; want 200", code)
	}
}

func TestWorkers_CancelledRequestStopsWaiting(t *testing.T) {
	codec := &blockingCodec{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := server.NewHandler(codec, server.WithWorkers(1), server.WithRequestTimeout(time.Minute))

	go post(h, "/decode", `{"ids":[1]}`)

	<-codec.entered
	defer close(codec.release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader(`{"ids":[1]}`)).WithContext(ctx)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("want 503 for a cancelled request, got %d", rec.Code)
	}
}
