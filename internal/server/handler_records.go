package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/pbadmin/internal/dataprovider"
	"github.com/me/pbadmin/pkg/model"
	"github.com/me/pbadmin/pkg/pocketbase"
)

// parseListParams reads page, perPage, sort, order and a JSON filter object
// from the query string.
func parseListParams(q url.Values) (dataprovider.ListParams, error) {
	var params dataprovider.ListParams
	var details []model.FieldError

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"page", &params.Pagination.Page},
		{"perPage", &params.Pagination.PerPage},
	} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, model.FieldError{Field: f.name, Message: "must be an integer"})
			continue
		}
		*f.dst = n
	}
	if len(details) > 0 {
		return params, model.NewValidationError("invalid pagination", details...)
	}
	if err := params.Pagination.Validate(); err != nil {
		return params, err
	}

	order, err := model.ParseOrder(q.Get("order"))
	if err != nil {
		return params, err
	}
	params.Sort = model.SortSpec{Field: q.Get("sort"), Order: order}

	if raw := q.Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params.Filter); err != nil {
			var apiErr *model.APIError
			if errors.As(err, &apiErr) {
				return params, apiErr
			}
			return params, model.NewValidationError("invalid filter",
				model.FieldError{Field: "filter", Message: err.Error()})
		}
	}
	return params, nil
}

// respondProviderError maps a data provider failure to a response. A 401 or
// 403 from the backend first goes through the session error check.
func (s *Server) respondProviderError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := RequestIDFromContext(r.Context())
	backendStatus := model.StatusCode(err)

	status, code := http.StatusBadGateway, model.ErrBackend
	switch {
	case pocketbase.IsAuthError(err):
		s.auth.CheckSessionError(r.Context(), backendStatus)
		status, code = backendStatus, model.ErrUnauthorized
	case pocketbase.IsNotFound(err):
		status, code = http.StatusNotFound, model.ErrNotFound
	case backendStatus >= 400 && backendStatus < 500:
		status, code = backendStatus, model.ErrValidation
	}

	apiErr := &model.APIError{Code: code, Message: err.Error()}
	if cause := errors.Unwrap(err); cause != nil {
		apiErr.Details = []model.FieldError{{Field: "backend", Message: cause.Error()}}
	}
	respondError(w, reqID, status, apiErr)
}

func decodeRecord(r *http.Request) (model.Record, error) {
	var data model.Record
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, model.NewValidationError("Invalid JSON body: " + err.Error())
	}
	if data == nil {
		return nil, model.NewValidationError("body must be a JSON object")
	}
	return data, nil
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	resource := chi.URLParam(r, "resource")
	q := r.URL.Query()

	if ids := q["id"]; len(ids) > 0 {
		recs, err := s.provider.GetMany(r.Context(), resource, ids)
		if err != nil {
			s.respondProviderError(w, r, err)
			return
		}
		respondOK(w, reqID, recs)
		return
	}

	params, err := parseListParams(q)
	if err != nil {
		respondValidation(w, reqID, err)
		return
	}
	res, err := s.provider.GetList(r.Context(), resource, params)
	if err != nil {
		s.respondProviderError(w, r, err)
		return
	}
	respondList(w, reqID, res.Data, model.NewPagination(res.Total, params.Pagination))
}

func (s *Server) handleListReferences(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	params, err := parseListParams(r.URL.Query())
	if err != nil {
		respondValidation(w, reqID, err)
		return
	}
	res, err := s.provider.GetManyReference(r.Context(), chi.URLParam(r, "resource"), dataprovider.ReferenceParams{
		ListParams: params,
		Target:     chi.URLParam(r, "target"),
		ID:         chi.URLParam(r, "id"),
	})
	if err != nil {
		s.respondProviderError(w, r, err)
		return
	}
	respondList(w, reqID, res.Data, model.NewPagination(res.Total, params.Pagination))
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.provider.GetOne(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id"))
	if err != nil {
		s.respondProviderError(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), rec)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	data, err := decodeRecord(r)
	if err != nil {
		respondValidation(w, reqID, err)
		return
	}
	rec, err := s.provider.Create(r.Context(), chi.URLParam(r, "resource"), data)
	if err != nil {
		s.respondProviderError(w, r, err)
		return
	}
	respondCreated(w, reqID, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	data, err := decodeRecord(r)
	if err != nil {
		respondValidation(w, reqID, err)
		return
	}
	rec, err := s.provider.Update(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id"), data)
	if err != nil {
		s.respondProviderError(w, r, err)
		return
	}
	respondOK(w, reqID, rec)
}

func (s *Server) handleUpdateManyRecords(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		IDs  []string     `json:"ids"`
		Data model.Record `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, reqID, model.NewValidationError("Invalid JSON body: "+err.Error()))
		return
	}
	if req.Data == nil {
		respondValidation(w, reqID, model.NewValidationError("data is required",
			model.FieldError{Field: "data", Message: "must be a JSON object"}))
		return
	}

	ids, err := s.provider.UpdateMany(r.Context(), chi.URLParam(r, "resource"), req.IDs, req.Data)
	if err != nil {
		s.respondProviderError(w, r, err)
		return
	}
	respondOK(w, reqID, ids)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.provider.Delete(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id"))
	if err != nil {
		s.respondProviderError(w, r, err)
		return
	}
	respondOK(w, RequestIDFromContext(r.Context()), rec)
}

func (s *Server) handleDeleteManyRecords(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	ids := r.URL.Query()["id"]
	if len(ids) == 0 {
		respondValidation(w, reqID, model.NewValidationError("at least one id is required",
			model.FieldError{Field: "id", Message: "missing"}))
		return
	}
	out, err := s.provider.DeleteMany(r.Context(), chi.URLParam(r, "resource"), ids)
	if err != nil {
		s.respondProviderError(w, r, err)
		return
	}
	respondOK(w, reqID, out)
}
