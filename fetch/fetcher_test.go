package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch_Success(t *testing.T) {
	body := "Hello, World!"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f := New(Config{})
	result, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.StatusCode != 200 {
		t.Errorf("status: got %d", result.StatusCode)
	}
	if string(result.Body) != body {
		t.Errorf("body: got %q", string(result.Body))
	}
	if !strings.HasPrefix(result.ContentType, "text/html") {
		t.Errorf("content type: got %q", result.ContentType)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{})
	result, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("error should wrap ErrUnreachable: %v", err)
	}
	if result.StatusCode != 404 {
		t.Errorf("status: got %d", result.StatusCode)
	}
}

func TestFetch_SizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	f := New(Config{MaxBytes: 1024})
	result, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(result.Body) != 1024 {
		t.Errorf("body should be capped at 1024 bytes, got %d", len(result.Body))
	}
}

func TestFetch_RedirectLimit(t *testing.T) {
	var srv *httptest.Server
	hops := 0
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, srv.URL+fmt.Sprintf("/hop%d", hops), http.StatusFound)
	}))
	defer srv.Close()

	f := New(Config{})
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected redirect-limit error")
	}
}

func TestFetch_RejectsBadURL(t *testing.T) {
	f := New(Config{})
	for _, raw := range []string{"ftp://example.com/x", "file:///etc/passwd", "not a url", "https://"} {
		_, err := f.Fetch(context.Background(), raw)
		if err == nil {
			t.Errorf("expected validation error for %q", raw)
			continue
		}
		// Blocked URLs surface the same way unreachable ones do.
		if !errors.Is(err, ErrUnreachable) {
			t.Errorf("error for %q should wrap ErrUnreachable: %v", raw, err)
		}
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://example.com/a?b=c"); err != nil {
		t.Errorf("valid url rejected: %v", err)
	}
	if err := ValidateURL("javascript:alert(1)"); err == nil {
		t.Error("javascript scheme accepted")
	}
}
