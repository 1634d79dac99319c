package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CeazyStore/pkg/kit"
)

const maxCreateBody = 1 << 20

type Server struct {
	Store Store
	Log   *zap.Logger
}

func (s *Server) ListHandler() http.HandlerFunc   { return s.list }
func (s *Server) GetHandler() http.HandlerFunc    { return s.get }
func (s *Server) CreateHandler() http.HandlerFunc { return s.create }

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	albums, err := s.Store.ListSortedByID(r.Context())
	if err != nil {
		if s.Log != nil {
			s.Log.Error("list albums failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "Failed to fetch albums", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, albums)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "Invalid album ID", nil)
		return
	}

	a, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("get album failed", zap.Error(err), zap.Int("album_id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "Failed to fetch album", nil)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "Album not found", map[string]any{"id": id})
		return
	}

	kit.WriteJSON(w, http.StatusOK, a)
}

// create is only ever mounted behind the admin token guard; the public API
// exposes no mutations.
func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)

	var in InsertAlbum
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.Catalog == "" || in.CoverImage == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "title, catalog and coverImage are required", nil)
		return
	}

	a, err := s.Store.Create(r.Context(), in)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("create album failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "Failed to create album", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, a)
}
