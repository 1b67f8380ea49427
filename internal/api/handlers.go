package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/orgharvest/orgharvest/internal/store"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// pageEnvelope is the list response shape: a total count, pagination links,
// and the page's records.
type pageEnvelope struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func (s *Server) listOrganizations(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := parsePagination(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	count, err := s.orgs.Count(r.Context())
	if err != nil {
		s.logger.Error("count organizations failed", zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	orgs, err := s.orgs.List(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error("list organizations failed", zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if orgs == nil {
		orgs = []store.Organization{}
	}

	env := pageEnvelope{Count: count, Results: orgs}
	if int64(page*pageSize) < count {
		env.Next = pageLink(r, page+1, pageSize)
	}
	if page > 1 {
		env.Previous = pageLink(r, page-1, pageSize)
	}
	s.writeJSON(w, r, http.StatusOK, env)
}

func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid organization id")
		return
	}
	org, err := s.orgs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, http.StatusNotFound, "organization not found")
			return
		}
		s.logger.Error("get organization failed", zap.Int64("id", id), zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, r, http.StatusOK, org)
}

func (s *Server) listIndustries(w http.ResponseWriter, r *http.Request) {
	s.listReference(w, r, s.industries, "industries")
}

func (s *Server) listKeywords(w http.ResponseWriter, r *http.Request) {
	s.listReference(w, r, s.keywords, "keywords")
}

func (s *Server) listReference(w http.ResponseWriter, r *http.Request, repo store.ReferenceRepository, kind string) {
	recs, err := repo.List(r.Context())
	if err != nil {
		s.logger.Error("list reference failed", zap.String("kind", kind), zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	if recs == nil {
		recs = []store.NamedRecord{}
	}
	s.writeJSON(w, r, http.StatusOK, pageEnvelope{Count: int64(len(recs)), Results: recs})
}

func (s *Server) combinationStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.combos.CountByStatus(r.Context())
	if err != nil {
		s.logger.Error("count combinations failed", zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, r, http.StatusOK, counts)
}

func parsePagination(r *http.Request) (page, pageSize int, err error) {
	page, err = positiveIntParam(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	pageSize, err = positiveIntParam(r, "page_size", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, nil
}

func positiveIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

func pageLink(r *http.Request, page, pageSize int) *string {
	link := fmt.Sprintf("%s?page=%d&page_size=%d", r.URL.Path, page, pageSize)
	return &link
}
