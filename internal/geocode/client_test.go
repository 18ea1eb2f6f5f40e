package geocode_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"relish/internal/geocode"
	"relish/internal/services"
)

const samplePayload = `{
  "post code": "90210",
  "country": "United States",
  "country abbreviation": "US",
  "places": [
    {"place name": "Beverly Hills", "state": "California", "state abbreviation": "CA", "latitude": "34.0901", "longitude": "-118.4065"}
  ]
}`

func TestLookupReturnsPlaces(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(samplePayload)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	client, err := geocode.New(server.URL, "us")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	resp, err := client.Lookup(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if gotPath != "/us/90210" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if resp.PostCode != "90210" || resp.CountryCode != "US" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	place, ok := resp.PrimaryPlace()
	if !ok || place.Name != "Beverly Hills" || place.StateCode != "CA" {
		t.Fatalf("unexpected primary place: %#v", place)
	}
}

func TestLookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := geocode.New(server.URL, "us")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Lookup(context.Background(), "00000")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
}

func TestLookupServerFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := geocode.New(server.URL, "us")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Lookup(context.Background(), "90210")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestLookupTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, err := geocode.New(server.URL, "us", geocode.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Lookup(context.Background(), "90210")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestLookupRejectsUnknownPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"post code": "90210", "surprise": true}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	client, err := geocode.New(server.URL, "us")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Lookup(context.Background(), "90210")
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external marker, got %v", err)
	}
}

func TestLookupEmptyPlacesIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"post code": "90210", "country": "United States", "country abbreviation": "US", "places": []}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	client, err := geocode.New(server.URL, "us")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Lookup(context.Background(), "90210")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
}

func TestLookupValidatesPostalCode(t *testing.T) {
	client, err := geocode.New("https://api.example.test", "us")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.Lookup(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestNewValidatesInputs(t *testing.T) {
	if _, err := geocode.New("", "us"); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := geocode.New("https://api.example.test", " "); err == nil {
		t.Fatal("expected error for missing country")
	}
}
