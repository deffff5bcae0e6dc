package server

import (
	"net/http"

	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.Stats(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp := map[string]interface{}{"counts": stats}
	if len(s.DiskPaths) > 0 {
		if n, err := storage.DiskUsageBytes(s.DiskPaths...); err == nil {
			resp["disk_usage_bytes"] = n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type createUserRequest struct {
	Email string `json:"email"`
	models.UserUpdate
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	u := &models.User{Email: req.Email}
	if err := req.UserUpdate.Apply(u); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := s.Store.CreateUser(r.Context(), u); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, userFrom(r))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var upd models.UserUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.respondErr(w, err)
		return
	}
	u := userFrom(r)
	if err := upd.Apply(u); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := s.Store.UpdateUser(r.Context(), u); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, u)
}

type goalsResponse struct {
	Goals  models.GoalSet `json:"goals"`
	Active bool           `json:"active"`
}

func (s *Server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	g, err := s.Store.GetGoals(r.Context(), userFrom(r).ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, goalsResponse{Goals: g, Active: models.GoalsActive(g)})
}

func (s *Server) handlePutGoals(w http.ResponseWriter, r *http.Request) {
	var g models.GoalSet
	if err := decodeJSON(r, &g); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := g.ValidateManual(); err != nil {
		s.respondErr(w, err)
		return
	}
	g.Method = models.ProvenanceManual
	if err := s.Store.SaveGoals(r.Context(), userFrom(r).ID, g); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, goalsResponse{Goals: g, Active: true})
}

func (s *Server) handleDeleteGoals(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.ClearGoals(r.Context(), userFrom(r).ID); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type waterResponse struct {
	Water  models.HydrationGoal `json:"water"`
	Active bool                 `json:"active"`
}

func (s *Server) handleGetWater(w http.ResponseWriter, r *http.Request) {
	h, err := s.Store.GetHydration(r.Context(), userFrom(r).ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, waterResponse{Water: h, Active: models.HydrationActive(h)})
}

func (s *Server) handlePutWater(w http.ResponseWriter, r *http.Request) {
	var h models.HydrationGoal
	if err := decodeJSON(r, &h); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := h.ValidateManual(); err != nil {
		s.respondErr(w, err)
		return
	}
	h.Method = models.ProvenanceManual
	if err := s.Store.SaveHydration(r.Context(), userFrom(r).ID, h); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, waterResponse{Water: h, Active: true})
}

func (s *Server) handleDeleteWater(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.ClearHydration(r.Context(), userFrom(r).ID); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
