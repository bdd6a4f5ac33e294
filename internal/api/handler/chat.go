package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Rrens/auditlens/internal/api/middleware"
	"github.com/Rrens/auditlens/internal/api/response"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/Rrens/auditlens/internal/service"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ChatHandler exposes chat sessions over HTTP
type ChatHandler struct {
	chat           *service.ChatService
	spooler        *Spooler
	maxUploadBytes int64
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService, spooler *Spooler, maxUploadBytes int64) *ChatHandler {
	return &ChatHandler{
		chat:           chat,
		spooler:        spooler,
		maxUploadBytes: maxUploadBytes,
	}
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=100000"`
}

type sendMessageResponse struct {
	SessionID string               `json:"session_id"`
	Reply     string               `json:"reply"`
	Documents []domain.DocumentRef `json:"documents,omitempty"`
	Persisted bool                 `json:"persisted"`
	Warning   string               `json:"warning,omitempty"`
}

// List returns every persisted session
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.ListSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, sessions)
}

// Start opens a new chat session
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	result, err := h.chat.StartChat(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, result)
}

// Resume re-attaches a persisted session
func (h *ChatHandler) Resume(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := middleware.GetSessionID(r.Context())

	info, err := h.chat.ResumeChat(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, info)
}

// History returns the persisted transcript
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := middleware.GetSessionID(r.Context())

	history, err := h.chat.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]any{
		"session_id": sessionID,
		"history":    history,
	})
}

// End closes a live session; its transcript is kept
func (h *ChatHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := middleware.GetSessionID(r.Context())

	if err := h.chat.EndChat(sessionID); err != nil {
		writeError(w, err)
		return
	}
	response.NoContent(w)
}

// Send runs one turn. Accepts multipart form data (content + files) or JSON.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := middleware.GetSessionID(r.Context())

	var (
		content     string
		attachments []domain.Attachment
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if h.maxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			response.Fail(w, http.StatusBadRequest, "invalid_form", "invalid multipart form: "+err.Error())
			return
		}
		defer r.MultipartForm.RemoveAll()

		content = strings.TrimSpace(r.FormValue("content"))
		if files := r.MultipartForm.File["files"]; len(files) > 0 {
			spooled, cleanup, err := h.spooler.Spool(files)
			if err != nil {
				writeError(w, err)
				return
			}
			defer cleanup()
			attachments = spooled
		}

		if content == "" && len(attachments) == 0 {
			writeError(w, domain.ErrEmptyMessage)
			return
		}
	} else {
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		req.Content = strings.TrimSpace(req.Content)
		if err := validate.Struct(req); err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrorBody{
				Code:    "validation_failed",
				Message: "invalid request",
				Details: validationDetails(err),
			})
			return
		}
		content = req.Content
	}

	reply, err := h.chat.SendMessage(r.Context(), sessionID, content, attachments)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := sendMessageResponse{
		SessionID: reply.SessionID,
		Reply:     reply.Text,
		Documents: reply.Documents,
		Persisted: reply.PersistError == nil,
	}
	if reply.PersistError != nil {
		resp.Warning = "reply was not saved to history"
	}
	response.OK(w, resp)
}

func validationDetails(err error) map[string]string {
	details := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		details["request"] = err.Error()
		return details
	}
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			details[e.Field()] = "field is required"
		case "max":
			details[e.Field()] = "must be at most " + e.Param() + " characters"
		default:
			details[e.Field()] = "validation failed on " + e.Tag()
		}
	}
	return details
}
