package ddns_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"

	"github.com/Travis-Britz/netlify-ddns"
)

const testToken = "test-token-0123456789abcdef"

func newTestNetlify(t *testing.T, handler http.Handler) (*ddns.NetlifyClient, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer "+testToken {
			t.Errorf("Authorization header = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept header = %q", got)
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := ddns.NewNetlifyClient(testToken, srv.Client(), ddns.WithBaseURL(srv.URL+"/"), ddns.WithRateLimit(rate.Inf, 1))
	if err != nil {
		t.Fatalf("NewNetlifyClient: %s", err)
	}
	return c, &hits
}

func TestListRecords(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dns_zones/example_com/dns_records", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{"hostname":"example.com","type":"A","ttl":3600,"id":"r1","dns_zone_id":"example_com","managed":false,"value":"1.1.1.1","errors":[]},
			{"hostname":"example.com","type":"MX","ttl":300,"priority":10,"id":"r2","site_id":null,"dns_zone_id":"example_com","managed":true,"value":"mail.example.com"}
		]`)
	})
	c, _ := newTestNetlify(t, mux)

	records, err := c.ListRecords(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("ListRecords: %s", err)
	}
	want := ddns.RecordSet{
		{Hostname: "example.com", Type: "A", TTL: 3600, ID: "r1", DNSZoneID: "example_com", Value: "1.1.1.1", Errors: []json.RawMessage{}},
		{Hostname: "example.com", Type: "MX", TTL: 300, Priority: json.RawMessage("10"), ID: "r2", SiteID: json.RawMessage("null"), DNSZoneID: "example_com", Managed: true, Value: "mail.example.com"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestListRecordsUsesRegistrableZone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dns_zones/example_com/dns_records", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})
	c, _ := newTestNetlify(t, mux)

	records, err := c.ListRecords(context.Background(), "home.example.com")
	if err != nil {
		t.Fatalf("ListRecords: %s", err)
	}
	if len(records) != 0 {
		t.Fatalf("Expected no records; got %v", records)
	}
}

func TestCreateRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dns_zones/example_com/dns_records", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := map[string]any{
			"hostname":    "www.example.com",
			"type":        "A",
			"ttl":         float64(1800),
			"priority":    nil,
			"weight":      nil,
			"port":        nil,
			"flag":        nil,
			"tag":         nil,
			"id":          "",
			"site_id":     nil,
			"dns_zone_id": "example_com",
			"errors":      []any{},
			"managed":     false,
			"value":       "10.0.0.5",
		}
		if diff := cmp.Diff(want, body); diff != "" {
			t.Errorf("unexpected request body (-want +got):\n%s", diff)
		}
		body["id"] = "assigned"
		json.NewEncoder(w).Encode(body)
	})
	c, _ := newTestNetlify(t, mux)

	record, err := c.CreateRecord(context.Background(), "www.example.com", "example.com", "A", "10.0.0.5", 1800)
	if err != nil {
		t.Fatalf("CreateRecord: %s", err)
	}
	if record.ID != "assigned" || record.Value != "10.0.0.5" || record.Hostname != "www.example.com" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestDeleteRecord(t *testing.T) {
	var deleted atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/dns_zones/example_com/dns_records/r1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("method %s", r.Method)
		}
		deleted.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})
	c, _ := newTestNetlify(t, mux)

	err := c.DeleteRecord(context.Background(), &ddns.Record{ID: "r1", Hostname: "www.example.com", Type: "A"})
	if err != nil {
		t.Fatalf("DeleteRecord: %s", err)
	}
	if !deleted.Load() {
		t.Fatal("delete request was not sent")
	}
}

func TestProviderError(t *testing.T) {
	c, _ := newTestNetlify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":401,"message":"Access Denied"}`, http.StatusUnauthorized)
	}))

	_, err := c.ListRecords(context.Background(), "example.com")
	var perr *ddns.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ProviderError; got %v", err)
	}
	if perr.StatusCode != http.StatusUnauthorized || perr.Method != http.MethodGet {
		t.Fatalf("unexpected error: %+v", perr)
	}
	if perr.Body != `{"code":401,"message":"Access Denied"}` {
		t.Fatalf("unexpected body %q", perr.Body)
	}

	err = c.DeleteRecord(context.Background(), &ddns.Record{ID: "r1", Hostname: "example.com"})
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ProviderError from delete; got %v", err)
	}
}

func TestTransportErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c, err := ddns.NewNetlifyClient(testToken, nil, ddns.WithBaseURL(url))
	if err != nil {
		t.Fatalf("NewNetlifyClient: %s", err)
	}
	_, err = c.ListRecords(context.Background(), "example.com")
	var perr *ddns.ProviderError
	if !errors.As(err, &perr) || perr.Err == nil {
		t.Fatalf("Expected *ProviderError wrapping a transport error; got %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	for _, body := range []string{`not json`, `null`, `{"hostname":"x"}`} {
		c, _ := newTestNetlify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))
		if _, err := c.ListRecords(context.Background(), "example.com"); !errors.Is(err, ddns.ErrDecode) {
			t.Errorf("ListRecords with body %q: expected ErrDecode; got %v", body, err)
		}
	}

	c, _ := newTestNetlify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `null`)
	}))
	if _, err := c.CreateRecord(context.Background(), "example.com", "example.com", "A", "1.1.1.1", 60); !errors.Is(err, ddns.ErrDecode) {
		t.Errorf("CreateRecord: expected ErrDecode; got %v", err)
	}
}

func TestArgumentValidation(t *testing.T) {
	c, hits := newTestNetlify(t, http.NotFoundHandler())
	ctx := context.Background()

	creates := []struct {
		name                         string
		hostname, domain, typ, value string
	}{
		{"hostname", "", "example.com", "A", "1.1.1.1"},
		{"domain", "www.example.com", "", "A", "1.1.1.1"},
		{"type", "www.example.com", "example.com", " ", "1.1.1.1"},
		{"value", "www.example.com", "example.com", "A", ""},
	}
	for _, tt := range creates {
		t.Run("create/"+tt.name, func(t *testing.T) {
			_, err := c.CreateRecord(ctx, tt.hostname, tt.domain, tt.typ, tt.value, 3600)
			if !errors.Is(err, ddns.ErrInvalidArgument) {
				t.Fatalf("Expected ErrInvalidArgument; got %v", err)
			}
		})
	}

	if _, err := c.ListRecords(ctx, "  "); !errors.Is(err, ddns.ErrInvalidArgument) {
		t.Errorf("list empty domain: expected ErrInvalidArgument; got %v", err)
	}
	if _, err := c.ListRecords(ctx, "localhost"); !errors.Is(err, ddns.ErrInvalidArgument) {
		t.Errorf("list single label: expected ErrInvalidArgument; got %v", err)
	}
	if err := c.DeleteRecord(ctx, nil); !errors.Is(err, ddns.ErrNullArgument) {
		t.Errorf("delete nil: expected ErrNullArgument; got %v", err)
	}
	if err := c.DeleteRecord(ctx, &ddns.Record{Hostname: "test.example.com", Type: "A", Value: "192.168.1.1", DNSZoneID: "test_zone"}); !errors.Is(err, ddns.ErrInvalidArgument) {
		t.Errorf("delete without ID: expected ErrInvalidArgument; got %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("Expected no requests for invalid arguments; got %d", n)
	}
}

func TestTokenStaysOffSharedClient(t *testing.T) {
	var leaked atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			leaked.Store(true)
		}
		io.WriteString(w, "10.0.0.1")
	}))
	defer srv.Close()

	shared := srv.Client()
	if _, err := ddns.NewNetlifyClient(testToken, shared); err != nil {
		t.Fatalf("NewNetlifyClient: %s", err)
	}
	resp, err := shared.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %s", err)
	}
	resp.Body.Close()
	if leaked.Load() {
		t.Fatal("shared http.Client sent the Netlify token")
	}
}

func TestListZones(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dns_zones", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":"example_com","name":"example.com","records":[]}]`)
	})
	c, _ := newTestNetlify(t, mux)

	zones, err := c.ListZones(context.Background())
	if err != nil {
		t.Fatalf("ListZones: %s", err)
	}
	if diff := cmp.Diff([]ddns.Zone{{ID: "example_com", Name: "example.com"}}, zones); diff != "" {
		t.Fatalf("unexpected zones (-want +got):\n%s", diff)
	}
}

func TestNewNetlifyClientRequiresToken(t *testing.T) {
	if _, err := ddns.NewNetlifyClient("", nil); !errors.Is(err, ddns.ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument; got %v", err)
	}
}
