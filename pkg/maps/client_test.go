package maps

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aryankapoor/zapkart-backend/pkg/config"
)

func TestNewClientWithoutAPIKey(t *testing.T) {
	if c := NewClient(config.GoogleMapsConfig{}); c != nil {
		t.Fatal("expected nil client when api key is missing")
	}
}

func TestAutocomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/places:autocomplete" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "test-key" {
			t.Fatalf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"suggestions": [
				{"placePrediction": {"placeId": "p1", "text": {"text": "12 MG Road, Bengaluru"}}},
				{"placePrediction": {"placeId": "p2", "text": {"text": "12 MG Road, Pune"}}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(
		config.GoogleMapsConfig{APIKey: "test-key", RegionCode: "IN"},
		WithBaseURL(server.URL),
	)

	got, err := client.Autocomplete(t.Context(), "12 MG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].PlaceID != "p1" || got[0].Text != "12 MG Road, Bengaluru" {
		t.Fatalf("unexpected suggestion %+v", got[0])
	}
}

func TestAutocompleteNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(
		config.GoogleMapsConfig{APIKey: "test-key"},
		WithBaseURL(server.URL),
	)

	if _, err := client.Autocomplete(t.Context(), "12 MG"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
