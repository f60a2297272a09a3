package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

func TestFetchFollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		// Relative Location, resolved against the origin.
		http.Redirect(w, r, "/report.pdf", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/report.pdf", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pdf-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := New(Config{UserAgent: "test-agent"})
	resp, err := client.Fetch(context.Background(), srv.URL+"/start", 5*time.Second)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.Status)
	}
	if string(resp.Body) != "pdf-bytes" {
		t.Errorf("body = %q, want pdf-bytes", resp.Body)
	}
	if resp.FinalURL != srv.URL+"/report.pdf" {
		t.Errorf("final URL = %q, want %q", resp.FinalURL, srv.URL+"/report.pdf")
	}
}

func TestFetchReturnsStatusWithoutError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	}))
	defer srv.Close()

	client := New(Config{})
	resp, err := client.Fetch(context.Background(), srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("Fetch() error = %v, want nil for non-200", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.Status)
	}
	if string(resp.Body) != "gone" {
		t.Errorf("body = %q, want error page body preserved", resp.Body)
	}
}

func TestFetchOKRejectsNon200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(Config{})
	_, err := client.FetchOK(context.Background(), srv.URL, 5*time.Second)
	var statusErr *dashboard.HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("FetchOK() error = %v, want HTTPStatusError", err)
	}
	if statusErr.Status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", statusErr.Status)
	}
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := New(Config{})
	_, err := client.Fetch(context.Background(), srv.URL, 100*time.Millisecond)
	if !dashboard.IsTimeout(err) {
		t.Fatalf("Fetch() error = %v, want TimeoutError", err)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	t.Parallel()

	client := New(Config{})
	_, err := client.Fetch(context.Background(), "http://127.0.0.1:1/none", time.Second)
	var netErr *dashboard.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Fetch() error = %v, want NetworkError", err)
	}
}
