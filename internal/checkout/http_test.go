package checkout_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CeazyStore/internal/catalog"
	"CeazyStore/internal/checkout"
)

type fakeSessions struct {
	got checkout.SessionParams
	err error
}

func (f *fakeSessions) CreateSession(_ context.Context, p checkout.SessionParams) (checkout.Session, error) {
	f.got = p
	if f.err != nil {
		return checkout.Session{}, f.err
	}
	return checkout.Session{ID: "cs_test_123", URL: "https://checkout.example.com/cs_test_123"}, nil
}

func newCheckoutTS(t *testing.T, sessions checkout.SessionCreator) *httptest.Server {
	t.Helper()

	s := &checkout.Server{
		Store:    catalog.NewMemStore(),
		Sessions: sessions,
		Tokens:   checkout.NewTokenMaker("test-secret", time.Hour),
		BaseURL:  "http://localhost:5000",
		Log:      zap.NewNop(),
	}

	r := chi.NewRouter()
	r.Post("/api/purchase/{id}", s.PurchaseHandler())
	r.Post("/api/create-payment-intent", s.CreateSessionHandler())
	r.Get("/api/download/{token}", s.DownloadHandler())

	return httptest.NewServer(r)
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	resp, err := http.Post(url, "application/json", r)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestPurchase_Validation(t *testing.T) {
	ts := newCheckoutTS(t, &fakeSessions{})
	t.Cleanup(ts.Close)

	cases := []struct {
		path       string
		wantStatus int
		wantError  string
	}{
		{"/api/purchase/abc", http.StatusBadRequest, "Invalid album ID"},
		{"/api/purchase/999", http.StatusNotFound, "Album not found"},
		{"/api/purchase/1", http.StatusBadRequest, "Album not yet released"},
	}

	for _, tc := range cases {
		resp, raw := postJSON(t, ts.URL+tc.path, nil)
		if resp.StatusCode != tc.wantStatus {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.path, resp.StatusCode, tc.wantStatus, raw)
		}
		if !strings.Contains(string(raw), tc.wantError) {
			t.Fatalf("%s: body %q missing %q", tc.path, raw, tc.wantError)
		}
	}
}

func TestPurchase_ReleasedAlbum(t *testing.T) {
	ts := newCheckoutTS(t, &fakeSessions{})
	t.Cleanup(ts.Close)

	resp, raw := postJSON(t, ts.URL+"/api/purchase/2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", resp.StatusCode, raw)
	}

	var got struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		DownloadURL string `json:"downloadUrl"`
		Album       struct {
			ID    int     `json:"id"`
			Price *string `json:"price"`
		} `json:"album"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !got.Success || got.Message != "Purchase successful" {
		t.Fatalf("unexpected payload: %s", raw)
	}
	if !strings.HasPrefix(got.DownloadURL, "/api/download/") {
		t.Fatalf("downloadUrl = %q", got.DownloadURL)
	}
	if got.Album.ID != 2 || got.Album.Price == nil || *got.Album.Price != "5.00" {
		t.Fatalf("album summary: %s", raw)
	}
}

func TestPurchase_DownloadTokenRoundTrip(t *testing.T) {
	ts := newCheckoutTS(t, &fakeSessions{})
	t.Cleanup(ts.Close)

	_, raw := postJSON(t, ts.URL+"/api/purchase/2", nil)
	var purchase struct {
		DownloadURL string `json:"downloadUrl"`
	}
	if err := json.Unmarshal(raw, &purchase); err != nil {
		t.Fatalf("decode purchase: %v", err)
	}

	resp, err := http.Get(ts.URL + purchase.DownloadURL)
	if err != nil {
		t.Fatalf("get download: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d, want 200", resp.StatusCode)
	}

	var dl struct {
		AlbumID int     `json:"albumId"`
		URL     *string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dl); err != nil {
		t.Fatalf("decode download: %v", err)
	}
	if dl.AlbumID != 2 || dl.URL == nil || *dl.URL != "/purchase/evolution" {
		t.Fatalf("unexpected download payload: %+v", dl)
	}

	tampered, err := http.Get(ts.URL + purchase.DownloadURL + "x")
	if err != nil {
		t.Fatalf("get tampered: %v", err)
	}
	tampered.Body.Close()
	if tampered.StatusCode != http.StatusBadRequest {
		t.Fatalf("tampered token status = %d, want 400", tampered.StatusCode)
	}
}

func TestCreatePaymentIntent_AmountAndResponse(t *testing.T) {
	fake := &fakeSessions{}
	ts := newCheckoutTS(t, fake)
	t.Cleanup(ts.Close)

	resp, raw := postJSON(t, ts.URL+"/api/create-payment-intent", map[string]any{"albumId": 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d (%s)", resp.StatusCode, raw)
	}

	if fake.got.AmountCents != 500 {
		t.Fatalf("amount = %d, want 500", fake.got.AmountCents)
	}
	if fake.got.Currency != "usd" {
		t.Fatalf("currency = %q", fake.got.Currency)
	}
	if fake.got.Metadata["albumId"] != "2" || fake.got.Metadata["albumTitle"] != "EVOLUTION" {
		t.Fatalf("metadata = %v", fake.got.Metadata)
	}
	if !strings.Contains(fake.got.SuccessURL, "success=true&album=2") {
		t.Fatalf("successURL = %q", fake.got.SuccessURL)
	}

	var got struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
		Album     struct {
			ID         int     `json:"id"`
			Title      string  `json:"title"`
			Price      *string `json:"price"`
			CoverImage string  `json:"coverImage"`
		} `json:"album"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionID != "cs_test_123" || got.URL == "" {
		t.Fatalf("session payload: %s", raw)
	}
	if got.Album.Price == nil || *got.Album.Price != "5.00" || got.Album.Title != "EVOLUTION" {
		t.Fatalf("album summary: %s", raw)
	}
}

func TestCreatePaymentIntent_Validation(t *testing.T) {
	ts := newCheckoutTS(t, &fakeSessions{})
	t.Cleanup(ts.Close)

	cases := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"unreleased", map[string]any{"albumId": 1}, http.StatusBadRequest},
		{"unknown album", map[string]any{"albumId": 999}, http.StatusNotFound},
		{"missing albumId", map[string]any{}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		resp, raw := postJSON(t, ts.URL+"/api/create-payment-intent", tc.body)
		if resp.StatusCode != tc.wantStatus {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.name, resp.StatusCode, tc.wantStatus, raw)
		}
	}

	resp, err := http.Post(ts.URL+"/api/create-payment-intent", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json: status = %d, want 400", resp.StatusCode)
	}
}

func TestCreatePaymentIntent_ProcessorFailure(t *testing.T) {
	fake := &fakeSessions{err: errors.New("card network unreachable")}
	ts := newCheckoutTS(t, fake)
	t.Cleanup(ts.Close)

	resp, raw := postJSON(t, ts.URL+"/api/create-payment-intent", map[string]any{"albumId": 2})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if !strings.Contains(string(raw), "card network unreachable") {
		t.Fatalf("body %q missing processor error", raw)
	}
}
