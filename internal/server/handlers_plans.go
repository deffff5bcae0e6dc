package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/render"
)

func (s *Server) handleCreateMealPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.MealPlans.Generate(r.Context(), userFrom(r))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListMealPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.Store.ListMealPlans(r.Context(), userFrom(r).ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if plans == nil {
		plans = []*models.MealPlan{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": plans})
}

func (s *Server) handleGetMealPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.GetMealPlan(r.Context(), userFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteMealPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Store.DeleteMealPlan(r.Context(), userFrom(r).ID, id); err != nil {
		s.respondErr(w, err)
		return
	}
	s.PDFCache.Evict(id)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleMealPlanPDF(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	p, err := s.Store.GetMealPlan(r.Context(), u.ID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	style := s.DefaultStyle
	if name := r.URL.Query().Get("style"); name != "" {
		if style, err = render.ParseStyle(name); err != nil {
			s.respondErr(w, err)
			return
		}
	}

	doc := render.NewDocument(p, u)
	data, ok := s.PDFCache.Get(p.ID, style, doc.UserLabel)
	if !ok {
		var buf bytes.Buffer
		if err := render.New(style).Render(&buf, doc); err != nil {
			s.respondErr(w, err)
			return
		}
		data = buf.Bytes()
		s.PDFCache.Set(p.ID, style, doc.UserLabel, data)
		s.logger.Debug("rendered meal plan", zap.String("plan_id", p.ID), zap.Stringer("style", style), zap.Int("bytes", len(data)))
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
