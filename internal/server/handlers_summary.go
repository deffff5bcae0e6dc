package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/fikafood/fika/internal/export"
	"github.com/fikafood/fika/internal/summary"
)

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Summary.Daily(r.Context(), userFrom(r).ID, r.URL.Query().Get("date"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sum)
}

func periodRequest(r *http.Request) summary.PeriodRequest {
	q := r.URL.Query()
	return summary.PeriodRequest{
		Period:    q.Get("period"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
}

func (s *Server) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Summary.Period(r.Context(), userFrom(r).ID, periodRequest(r))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleExportPeriod(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Summary.Period(r.Context(), userFrom(r).ID, periodRequest(r))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	var buf bytes.Buffer
	if err := export.PeriodXLSX(&buf, sum); err != nil {
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(sum)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}
