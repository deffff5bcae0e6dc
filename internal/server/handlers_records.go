package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/storage"
)

// recordView adds the derived metrics to a record.
type recordView struct {
	*models.Record
	MacroDistribution models.MacroDistribution `json:"macro_distribution"`
	NutritionDensity  models.NutritionDensity  `json:"nutrition_density"`
}

func viewOf(r *models.Record) recordView {
	return recordView{Record: r, MacroDistribution: r.MacroDistribution(), NutritionDensity: r.NutritionDensity()}
}

// respondRecordErr reports an analysis failure together with the record it left behind.
func (s *Server) respondRecordErr(w http.ResponseWriter, rec *models.Record, err error) {
	status, body := s.errorBody(err)
	body.Record = rec
	s.respondJSON(w, status, body)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(storage.MaxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondErr(w, models.NewValidationError("image", "exceeds 10 MB"))
			return
		}
		s.respondErr(w, models.NewValidationError("body", "expected multipart form: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		s.respondErr(w, models.NewMissingParameterError("image"))
		return
	}
	defer file.Close()
	if err := storage.ValidateImage(header.Filename, header.Size); err != nil {
		s.respondErr(w, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageBytes+1))
	if err != nil {
		s.respondErr(w, err)
		return
	}

	rec, err := s.Records.Create(r.Context(), userFrom(r).ID, header.Filename, data, r.FormValue("description"))
	if err != nil {
		if rec != nil {
			s.respondRecordErr(w, rec, err)
			return
		}
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, viewOf(rec))
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, models.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	limit, err := queryInt(r, "limit", models.DefaultPageLimit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	recs, err := s.Records.List(r.Context(), userFrom(r).ID, models.Page{Offset: offset, Limit: limit})
	if err != nil {
		s.respondErr(w, err)
		return
	}
	views := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, viewOf(rec))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": views, "offset": offset, "count": len(views)})
}

func (s *Server) handleSearchRecords(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	res, err := s.Records.Search(r.Context(), userFrom(r).ID, r.URL.Query().Get("q"), limit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Records.Get(r.Context(), userFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(rec))
}

func (s *Server) handleRecordImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := s.Records.Image(r.Context(), userFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var upd models.RecordUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.respondErr(w, err)
		return
	}
	rec, err := s.Records.Update(r.Context(), userFrom(r).ID, chi.URLParam(r, "id"), upd)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(rec))
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.Records.Delete(r.Context(), userFrom(r).ID, chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type reanalyzeRequest struct {
	Description *string `json:"description"`
}

func (s *Server) handleReanalyzeRecord(w http.ResponseWriter, r *http.Request) {
	var req reanalyzeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondErr(w, err)
			return
		}
	}
	rec, err := s.Records.Reanalyze(r.Context(), userFrom(r).ID, chi.URLParam(r, "id"), req.Description)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(rec))
}
