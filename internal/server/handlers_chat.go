package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fikafood/fika/internal/models"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	reply, err := s.Chat.Send(r.Context(), userFrom(r), req.ConversationID, req.Message)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.Store.ListConversations(r.Context(), userFrom(r).ID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if convs == nil {
		convs = []*models.Conversation{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": convs})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	c, err := s.Store.GetConversation(r.Context(), userFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if c.Messages, err = s.Store.GetMessages(r.Context(), c.ID); err != nil {
		s.respondErr(w, err)
		return
	}
	if c.Messages == nil {
		c.Messages = []*models.Message{}
	}
	s.respondJSON(w, http.StatusOK, c)
}
