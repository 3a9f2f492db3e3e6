package freshdesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(serverURL string) *Client {
	client := NewClient("example", "test-key")
	client.baseURL = serverURL
	return client
}

func TestNewClientDomainCleanup(t *testing.T) {
	cases := map[string]string{
		"example":                       "https://example.freshdesk.com/api/v2",
		"example.freshdesk.com":         "https://example.freshdesk.com/api/v2",
		"https://example.freshdesk.com": "https://example.freshdesk.com/api/v2",
		"http://example":                "https://example.freshdesk.com/api/v2",
	}
	for input, want := range cases {
		if got := NewClient(input, "k").baseURL; got != want {
			t.Errorf("NewClient(%q).baseURL = %q, want %q", input, got, want)
		}
	}
}

func TestAddPrivateNote(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tickets/12345/notes" {
				t.Errorf("path = %s", r.URL.Path)
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != "test-key" || pass != "X" {
				t.Error("expected api key as basic-auth username")
			}

			var payload notePayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("bad request body: %v", err)
			}
			if payload.Body != "<p>answer</p>" {
				t.Errorf("Body = %q", payload.Body)
			}
			if !payload.Private {
				t.Error("note must be private")
			}

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(noteResponse{ID: 987})
		}))
		defer server.Close()

		result, err := newTestClient(server.URL).AddPrivateNote(context.Background(), "12345", "<p>answer</p>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success {
			t.Errorf("Success = false, error = %q", result.Error)
		}
		if result.NoteID != "987" {
			t.Errorf("NoteID = %q, want 987", result.NoteID)
		}
	})

	t.Run("api failure reported in result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"ticket not found"}`))
		}))
		defer server.Close()

		result, err := newTestClient(server.URL).AddPrivateNote(context.Background(), "99999", "note")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Success {
			t.Error("Success = true, want false")
		}
		if result.Error == "" {
			t.Error("Error must describe the failure")
		}
	})

	t.Run("transport failure reported in result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // connection refused from here on

		result, err := newTestClient(server.URL).AddPrivateNote(context.Background(), "12345", "note")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Success {
			t.Error("Success = true, want false")
		}
	})
}

func TestValidateConnection(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tickets" {
				t.Errorf("path = %s", r.URL.Path)
			}
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		if !newTestClient(server.URL).ValidateConnection(context.Background()) {
			t.Error("ValidateConnection = false, want true")
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		if newTestClient(server.URL).ValidateConnection(context.Background()) {
			t.Error("ValidateConnection = true, want false")
		}
	})
}
