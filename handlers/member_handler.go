package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"tandem-server/middleware"
	"tandem-server/models"
	"tandem-server/services"
)

type MemberHandler struct {
	members *services.MemberService
}

type membersResponse struct {
	Members []models.Member `json:"members"`
	Count   int             `json:"count"`
}

func NewMemberHandler(members *services.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

// List returns every member except the caller, optionally filtered by ?q=.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	members, err := h.members.List(r.Context(), accountID, r.URL.Query().Get("q"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if members == nil {
		members = []models.Member{}
	}
	middleware.WriteJSON(w, http.StatusOK, membersResponse{Members: members, Count: len(members)})
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.members.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, member)
}
