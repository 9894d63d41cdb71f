package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/example/go-hindi-bpe/internal/server"
	"github.com/example/go-hindi-bpe/internal/tokenizer"
)

func newTokenizer(t *testing.T, tokens ...string) *tokenizer.Tokenizer {
	t.Helper()

	tok, err := tokenizer.New(tokenizer.Options{MaxVocabSize: 100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, s := range tokens {
		if _, err := tok.Vocabulary().Insert(s); err != nil {
			t.Fatalf("Insert(%q): %v", s, err)
		}
	}

	return tok
}

func newTestHandler(t *testing.T, opts ...server.Option) (http.Handler, *tokenizer.Tokenizer) {
	t.Helper()

	tok := newTokenizer(t, "नमस्ते", "भारत", "क")

	return server.NewHandler(tok, opts...), tok
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	return rec
}

func mustID(t *testing.T, tok *tokenizer.Tokenizer, s string) int {
	t.Helper()

	id, ok := tok.Vocabulary().ID(s)
	if !ok {
		t.Fatalf("%q not in vocabulary", s)
	}

	return id
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func TestHealth_Returns200WithStatusOK(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("want status=ok, got %q", body["status"])
	}

	if _, ok := body["version"]; !ok {
		t.Error("want version field in response")
	}
}

// ---------------------------------------------------------------------------
// POST /encode
// ---------------------------------------------------------------------------

func TestEncode_ReturnsIDsAndTokens(t *testing.T) {
	h, tok := newTestHandler(t)

	rec := post(h, "/encode", `{"text":"नमस्ते भारत"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body struct {
		IDs    []int    `json:"ids"`
		Tokens []string `json:"tokens"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	wantIDs := []int{mustID(t, tok, "नमस्ते"), mustID(t, tok, tokenizer.BoundaryToken), mustID(t, tok, "भारत")}
	if !reflect.DeepEqual(body.IDs, wantIDs) {
		t.Errorf("ids = %v; want %v", body.IDs, wantIDs)
	}

	wantTokens := []string{"नमस्ते", tokenizer.BoundaryToken, "भारत"}
	if !reflect.DeepEqual(body.Tokens, wantTokens) {
		t.Errorf("tokens = %q; want %q", body.Tokens, wantTokens)
	}
}

func TestEncode_NormalizesToNFC(t *testing.T) {
	h, tok := newTestHandler(t)

	// U+0958 is a composition exclusion, so NFC yields ka + nukta.
	qa := "\u0915\u093c"
	if _, err := tok.Vocabulary().Insert(qa); err != nil {
		t.Fatal(err)
	}

	rec := post(h, "/encode", `{"text":"  \u0958  "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body struct {
		IDs    []int    `json:"ids"`
		Tokens []string `json:"tokens"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(body.IDs, []int{mustID(t, tok, qa)}) {
		t.Errorf("ids = %v, tokens = %q; want the normalized qa token", body.IDs, body.Tokens)
	}
}

func TestEncode_Validation(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, `{"text":`, http.StatusBadRequest},
		{"missing text", http.MethodPost, `{}`, http.StatusBadRequest},
		{"whitespace text", http.MethodPost, `{"text":"  \n"}`, http.StatusBadRequest},
	}

	h, _ := newTestHandler(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/encode", strings.NewReader(tt.body))
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d", tt.want, rec.Code)
			}

			var errBody map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&errBody); err != nil {
				t.Fatalf("decode error body: %v", err)
			}

			if errBody["error"] == "" {
				t.Error("want non-empty error field")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// POST /decode
// ---------------------------------------------------------------------------

func TestDecode_ReturnsText(t *testing.T) {
	h, tok := newTestHandler(t)

	ids := []int{mustID(t, tok, "नमस्ते"), mustID(t, tok, tokenizer.BoundaryToken), 0, mustID(t, tok, "भारत"), 999}
	payload, _ := json.Marshal(map[string][]int{"ids": ids})

	rec := post(h, "/decode", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	if body["text"] != "नमस्ते भारत" {
		t.Errorf("text = %q; want %q", body["text"], "नमस्ते भारत")
	}
}

func TestDecode_EmptyIDs(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(h, "/decode", `{"ids":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), `"text":""`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestDecode_MissingIDs(t *testing.T) {
	h, _ := newTestHandler(t)

	if rec := post(h, "/decode", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("want 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /roundtrip
// ---------------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantMatch bool
	}{
		{"known words", "नमस्ते भारत", true},
		{"unknown character", "कि", false},
	}

	h, _ := newTestHandler(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, _ := json.Marshal(map[string]string{"text": tt.text})

			rec := post(h, "/roundtrip", string(payload))
			if rec.Code != http.StatusOK {
				t.Fatalf("want 200, got %d", rec.Code)
			}

			var body struct {
				Original string  `json:"original"`
				Decoded  string  `json:"decoded"`
				IDs      []int   `json:"ids"`
				Match    bool    `json:"match"`
				Ratio    float64 `json:"ratio"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}

			if body.Original != tt.text || body.Match != tt.wantMatch {
				t.Errorf("original = %q, match = %v; want %q, %v", body.Original, body.Match, tt.text, tt.wantMatch)
			}

			if len(body.IDs) == 0 || body.Ratio <= 0 {
				t.Errorf("ids = %v, ratio = %v", body.IDs, body.Ratio)
			}
		})
	}
}

func TestResponses_KeepAngleBracketsUnescaped(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(h, "/encode", `{"text":"<b>"}`)
	if !strings.Contains(rec.Body.String(), `"<"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
