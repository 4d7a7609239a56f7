package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Rrens/support-chat/internal/api/middleware"
	"github.com/Rrens/support-chat/internal/api/response"
	"github.com/Rrens/support-chat/internal/domain"
	"github.com/Rrens/support-chat/internal/service"
)

// SupportHandler handles the chat and contact endpoints
type SupportHandler struct {
	supportService *service.SupportService
	contactService *service.ContactService
}

// NewSupportHandler creates a new support handler
func NewSupportHandler(supportService *service.SupportService, contactService *service.ContactService) *SupportHandler {
	return &SupportHandler{
		supportService: supportService,
		contactService: contactService,
	}
}

func chatID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "chatID"))
}

// ListChats returns the open chats visible to the caller
func (h *SupportHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	chats, err := h.supportService.ListVisibleChats(r.Context(), identity)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, chats)
}

// CreateChat opens a new chat
func (h *SupportHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.ChatCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	summary, err := h.supportService.CreateChat(r.Context(), identity, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, summary)
}

// ListMessages returns a chat's message log
func (h *SupportHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		response.BadRequest(w, "invalid chat ID")
		return
	}

	messages, err := h.supportService.ListMessages(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, messages)
}

// SendMessage appends a message to a chat. Responds 409 when the chat
// has been closed.
func (h *SupportHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := chatID(r)
	if err != nil {
		response.BadRequest(w, "invalid chat ID")
		return
	}

	var input domain.MessageSend
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	message, err := h.supportService.AppendMessage(r.Context(), identity, id, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, message)
}

// UpdateStatus changes a chat's lifecycle status
func (h *SupportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := chatID(r)
	if err != nil {
		response.BadRequest(w, "invalid chat ID")
		return
	}

	var input domain.ChatStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	summary, err := h.supportService.SetStatus(r.Context(), id, input.Status)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, summary)
}

// Contact forwards a contact-form submission by email
func (h *SupportHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var input service.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	if err := h.contactService.Send(r.Context(), input); err != nil {
		response.InternalError(w, "failed to send message")
		return
	}

	response.OK(w, map[string]string{"status": "sent"})
}
