package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSarvamSynthesize(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46, 0x01, 0x02}
	var gotKey string
	var gotReq sarvamRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-subscription-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(sarvamResponse{
			Audios: []string{base64.StdEncoding.EncodeToString(audio)},
		})
	}))
	defer srv.Close()

	p := NewSarvam("sk-test").WithBaseURL(srv.URL)
	syn, err := p.Synthesize(context.Background(), "Tell me about yourself.", SynthesizeOptions{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(syn.Audio) != string(audio) {
		t.Fatalf("audio mismatch")
	}
	if syn.Format != "wav" {
		t.Fatalf("format = %q, want wav", syn.Format)
	}
	if gotKey != "sk-test" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if gotReq.Model != sarvamModel || gotReq.Speaker != sarvamDefaultVoice {
		t.Fatalf("request defaults = %+v", gotReq)
	}
	if len(gotReq.Inputs) != 1 || gotReq.Inputs[0] != "Tell me about yourself." {
		t.Fatalf("inputs = %v", gotReq.Inputs)
	}
}

func TestSarvamSynthesize_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewSarvam("sk-test").WithBaseURL(srv.URL)
	if _, err := p.Synthesize(context.Background(), "hello", SynthesizeOptions{}); err == nil {
		t.Fatalf("expected error on non-2xx status")
	}
}

func TestSarvamSynthesize_MissingKey(t *testing.T) {
	p := NewSarvam("")
	if _, err := p.Synthesize(context.Background(), "hello", SynthesizeOptions{}); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestTranslateSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tl"); got != "en" {
			t.Errorf("tl = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "hello there" {
			t.Errorf("q = %q", got)
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	p := NewTranslate().WithBaseURL(srv.URL)
	syn, err := p.Synthesize(context.Background(), "hello there", SynthesizeOptions{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(syn.Audio) != "mp3-bytes" || syn.Format != "mp3" {
		t.Fatalf("synthesis = %+v", syn)
	}
}

func TestTranslateSynthesize_TruncatesLongText(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLen = len(r.URL.Query().Get("q"))
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	p := NewTranslate().WithBaseURL(srv.URL)
	if _, err := p.Synthesize(context.Background(), string(long), SynthesizeOptions{}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if gotLen != 200 {
		t.Fatalf("sent %d chars, want 200", gotLen)
	}
}

func TestTranslateSynthesize_TruncatesOnRuneBoundary(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	// 3-byte runes, so the 200-byte cap falls mid-rune.
	long := strings.Repeat("न", 100)
	p := NewTranslate().WithBaseURL(srv.URL)
	if _, err := p.Synthesize(context.Background(), long, SynthesizeOptions{}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !utf8.ValidString(gotQ) {
		t.Fatalf("truncated text is not valid UTF-8: %q", gotQ)
	}
	if len(gotQ) != 198 {
		t.Fatalf("sent %d bytes, want 198", len(gotQ))
	}
}
