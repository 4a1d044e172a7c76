package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/api/responses"
	"github.com/jdelacruz/tradepost-backend/api/validators"
	"github.com/jdelacruz/tradepost-backend/internal/messages"
	"github.com/jdelacruz/tradepost-backend/internal/realtime"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
)

type sendMessageRequest struct {
	ConversationID *string `json:"conversation_id,omitempty" validate:"omitempty,uuid"`
	SellerID       *string `json:"seller_id,omitempty" validate:"omitempty,uuid"`
	Body           string  `json:"body" validate:"required,min=1,max=4000"`
	AttachmentID   *string `json:"attachment_id,omitempty" validate:"omitempty,uuid"`
}

func (req sendMessageRequest) toInput(sender messages.Viewer) (messages.SendMessageInput, error) {
	input := messages.SendMessageInput{
		Sender: sender,
		Body:   validators.SanitizeString(req.Body, 4000),
	}
	if req.ConversationID != nil {
		id, err := uuid.Parse(*req.ConversationID)
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid conversation id")
		}
		input.ConversationID = &id
	}
	if req.SellerID != nil {
		id, err := uuid.Parse(*req.SellerID)
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid seller id")
		}
		input.SellerID = &id
	}
	if req.AttachmentID != nil {
		id, err := uuid.Parse(*req.AttachmentID)
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid attachment id")
		}
		input.AttachmentID = &id
	}
	return input, nil
}

// MessageSend posts a chat message. Buyers may open a new thread by naming
// a seller; sellers reply within existing conversations.
func MessageSend(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "message service unavailable"))
			return
		}

		viewer, err := viewerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sendMessageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput(viewer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.SendMessage(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

// ConversationsList returns the viewer's threads with unread counts.
func ConversationsList(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "message service unavailable"))
			return
		}

		viewer, err := viewerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		conversations, err := svc.ListConversations(r.Context(), viewer, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"conversations": conversations})
	}
}

// MessagesList pages one conversation's history, newest first.
func MessagesList(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "message service unavailable"))
			return
		}

		viewer, err := viewerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		conversationID, err := validators.ParsePathUUID(chi.URLParam(r, "conversationId"), "conversation id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListMessages(r.Context(), viewer, conversationID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ConversationMarkRead marks the counterpart's messages as read.
func ConversationMarkRead(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "message service unavailable"))
			return
		}

		viewer, err := viewerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		conversationID, err := validators.ParsePathUUID(chi.URLParam(r, "conversationId"), "conversation id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.MarkConversationRead(r.Context(), viewer, conversationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}

// TypingStart records a short-lived typing marker for the conversation.
func TypingStart(svc realtime.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "realtime service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		conversationID, err := validators.ParsePathUUID(chi.URLParam(r, "conversationId"), "conversation id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkTyping(r.Context(), conversationID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "typing"})
	}
}

// TypingPeek reports whether the named peer is currently typing.
func TypingPeek(svc realtime.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "realtime service unavailable"))
			return
		}

		conversationID, err := validators.ParsePathUUID(chi.URLParam(r, "conversationId"), "conversation id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		peerID, err := validators.ParsePathUUID(r.URL.Query().Get("peer_id"), "peer id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		typing, err := svc.PeerTyping(r.Context(), conversationID, peerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"typing": typing})
	}
}
