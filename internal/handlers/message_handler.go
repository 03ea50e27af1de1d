package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgeemedia/cse340-backend/internal/flash"
	"github.com/dgeemedia/cse340-backend/internal/middleware"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/services"
	"github.com/dgeemedia/cse340-backend/internal/views"
	"github.com/dgeemedia/cse340-backend/pkg/utils"
)

const MsgInvalidMessageID = "Invalid message id."

type MessageHandler struct {
	*Base
	Messages *services.MessageService
}

func NewMessageHandler(base *Base, messages *services.MessageService) *MessageHandler {
	return &MessageHandler{Base: base, Messages: messages}
}

type InboxPage struct {
	Messages []*models.Message
	Unread   int
	Sent     bool
}

type ComposePage struct {
	Recipients []models.Recipient
}

func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	who := identity(r)
	messages, err := h.Messages.Inbox(r.Context(), who)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	unread := 0
	for _, m := range messages {
		if !m.IsRead {
			unread++
		}
	}
	h.render(w, r, http.StatusOK, "inbox", views.Page{
		Title: "Inbox",
		Data:  InboxPage{Messages: messages, Unread: unread},
	})
}

func (h *MessageHandler) Sent(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Messages.Outbox(r.Context(), identity(r))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "inbox", views.Page{
		Title: "Sent messages",
		Data:  InboxPage{Messages: messages, Sent: true},
	})
}

// ComposePage lists only the accounts the viewer may write to. ?to and
// ?subject prefill a reply.
func (h *MessageHandler) ComposePage(w http.ResponseWriter, r *http.Request) {
	h.compose(w, r, http.StatusOK, nil, map[string]string{
		"recipient_id": r.URL.Query().Get("to"),
		"subject":      r.URL.Query().Get("subject"),
	})
}

func (h *MessageHandler) compose(w http.ResponseWriter, r *http.Request, status int, errs []string, form map[string]string) {
	recipients, err := h.Messages.Compose(r.Context(), identity(r))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, status, "compose", views.Page{
		Title:  "Compose message",
		Errors: errs,
		Form:   form,
		Data:   ComposePage{Recipients: recipients},
	})
}

// Send handles the compose form. A rejected message re-renders the form
// with what was typed.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	req := models.SendMessageRequest{
		RecipientID: r.FormValue("recipient_id"),
		Subject:     r.FormValue("subject"),
		Body:        r.FormValue("body"),
	}

	msg, err := h.Messages.Send(r.Context(), identity(r), req, services.OriginForm)
	if err != nil {
		if messages := services.ValidationMessages(err); len(messages) > 0 {
			if middleware.WantsJSON(r) {
				utils.Error(w, http.StatusBadRequest, messages[0])
				return
			}
			h.compose(w, r, http.StatusBadRequest, messages, formValues(r, "recipient_id", "subject", "body"))
			return
		}
		h.fail(w, r, err, "/messages/compose")
		return
	}

	if middleware.WantsJSON(r) {
		utils.JSON(w, http.StatusCreated, msg)
		return
	}
	flash.Set(w, flash.Success, "Message sent.")
	http.Redirect(w, r, "/messages/", http.StatusSeeOther)
}

func (h *MessageHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, services.ErrNotFound, "/messages/")
		return
	}
	msg, err := h.Messages.View(r.Context(), identity(r), id)
	if err != nil {
		h.fail(w, r, err, "/messages/")
		return
	}
	h.render(w, r, http.StatusOK, "message", views.Page{Title: "Message", Data: msg})
}

// MarkRead is the inbox checkbox call. It always answers JSON.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req models.MarkReadRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, MsgInvalidMessageID)
			return
		}
	} else {
		req.MessageID = models.FlexibleID(r.FormValue("message_id"))
		req.IsRead = r.FormValue("is_read") == "true" || r.FormValue("is_read") == "on"
	}

	id := atoi(req.MessageID.String())
	if id <= 0 {
		utils.Error(w, http.StatusBadRequest, MsgInvalidMessageID)
		return
	}

	msg, err := h.Messages.MarkRead(r.Context(), identity(r), id, req.IsRead)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			utils.Error(w, http.StatusNotFound, "Message not found.")
		case errors.Is(err, services.ErrForbidden):
			utils.Error(w, http.StatusForbidden, "Only the recipient can change the read state.")
		default:
			h.serverError(w, r, err)
		}
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

// Delete answers JSON to scripts and redirects browsers.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, services.ErrNotFound, "/messages/")
		return
	}
	if err := h.Messages.Delete(r.Context(), identity(r), id); err != nil {
		h.fail(w, r, err, "/messages/")
		return
	}
	if middleware.WantsJSON(r) {
		utils.JSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	flash.Set(w, flash.Success, "Message deleted.")
	http.Redirect(w, r, "/messages/", http.StatusSeeOther)
}

func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Messages.UnreadCount(r.Context(), identity(r))
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, MsgTryAgain)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"unread": n})
}
