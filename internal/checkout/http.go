package checkout

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CeazyStore/internal/catalog"
	"CeazyStore/pkg/kit"
)

const maxBodyBytes = 1 << 20

// Server validates purchasability and orchestrates checkout-session creation.
// The flow is two-phase: create a session here, then the client completes
// payment against the processor directly and gets redirected back.
type Server struct {
	Store    catalog.Store
	Sessions SessionCreator
	Tokens   *TokenMaker
	BaseURL  string
	Log      *zap.Logger
}

func (s *Server) PurchaseHandler() http.HandlerFunc      { return s.purchase }
func (s *Server) CreateSessionHandler() http.HandlerFunc { return s.createSession }
func (s *Server) DownloadHandler() http.HandlerFunc      { return s.download }

type albumSummary struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Price      *string `json:"price"`
	CoverImage string  `json:"coverImage"`
}

func summarize(a catalog.Album) albumSummary {
	return albumSummary{ID: a.ID, Title: a.Title, Price: a.Price, CoverImage: a.CoverImage}
}

// loadPurchasable resolves an album id and enforces the purchase
// preconditions, writing the error response itself when any fail.
func (s *Server) loadPurchasable(w http.ResponseWriter, r *http.Request, id int) (catalog.Album, bool) {
	a, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("get album failed", zap.Error(err), zap.Int("album_id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "Purchase failed", nil)
		return catalog.Album{}, false
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Album not found", map[string]any{"id": id})
		return catalog.Album{}, false
	}
	if !a.IsReleased {
		kit.WriteError(w, r, http.StatusBadRequest, "Album not yet released", nil)
		return catalog.Album{}, false
	}
	return a, true
}

type purchaseResp struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	DownloadURL string       `json:"downloadUrl"`
	Album       albumSummary `json:"album"`
}

// purchase is the simulated flow: no payment is collected, the caller just
// gets a signed download link for a released album.
func (s *Server) purchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "Invalid album ID", nil)
		return
	}

	a, ok := s.loadPurchasable(w, r, id)
	if !ok {
		return
	}

	tok, err := s.Tokens.Sign(a.ID)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("sign download token failed", zap.Error(err), zap.Int("album_id", a.ID))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "Purchase failed", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, purchaseResp{
		Success:     true,
		Message:     "Purchase successful",
		DownloadURL: "/api/download/" + tok,
		Album:       summarize(a),
	})
}

type createSessionReq struct {
	AlbumID int `json:"albumId"`
}

type createSessionResp struct {
	SessionID string       `json:"sessionId"`
	URL       string       `json:"url"`
	Album     albumSummary `json:"album"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req createSessionReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.AlbumID <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "albumId required", nil)
		return
	}

	a, ok := s.loadPurchasable(w, r, req.AlbumID)
	if !ok {
		return
	}

	amount, err := minorUnits(a.Price)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("bad album price", zap.Error(err), zap.Int("album_id", a.ID))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "Purchase failed", nil)
		return
	}

	base := r.Header.Get("Origin")
	if base == "" {
		base = s.BaseURL
	}

	sess, err := s.Sessions.CreateSession(r.Context(), SessionParams{
		AmountCents: amount,
		Currency:    "usd",
		Name:        a.Title,
		Description: fmt.Sprintf("Digital download of %s by %s", a.Title, a.Catalog),
		SuccessURL:  fmt.Sprintf("%s/?success=true&album=%d", base, a.ID),
		CancelURL:   base + "/?canceled=true",
		Metadata: map[string]string{
			"albumId":    strconv.Itoa(a.ID),
			"albumTitle": a.Title,
		},
	})
	if err != nil {
		if s.Log != nil {
			s.Log.Error("create checkout session failed", zap.Error(err), zap.Int("album_id", a.ID))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "Error creating checkout session: "+err.Error(), nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, createSessionResp{
		SessionID: sess.ID,
		URL:       sess.URL,
		Album:     summarize(a),
	})
}

type downloadResp struct {
	AlbumID int     `json:"albumId"`
	Title   string  `json:"title"`
	URL     *string `json:"url"`
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	id, err := s.Tokens.Parse(chi.URLParam(r, "token"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "Invalid download token", nil)
		return
	}

	a, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("get album failed", zap.Error(err), zap.Int("album_id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "Download failed", nil)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Album not found", map[string]any{"id": id})
		return
	}

	kit.WriteJSON(w, http.StatusOK, downloadResp{AlbumID: a.ID, Title: a.Title, URL: a.PurchaseURL})
}

// minorUnits converts a decimal price string to the processor's integer
// representation, e.g. "5.00" -> 500. A nil price converts to 0, matching the
// degenerate-seed handling described for released albums without a price.
func minorUnits(price *string) (int64, error) {
	if price == nil {
		return 0, nil
	}
	f, err := strconv.ParseFloat(*price, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}
