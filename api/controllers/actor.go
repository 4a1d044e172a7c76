package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/api/middleware"
	"github.com/jdelacruz/tradepost-backend/api/validators"
	"github.com/jdelacruz/tradepost-backend/internal/messages"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
	"github.com/jdelacruz/tradepost-backend/pkg/pagination"
)

// actorID pulls the authenticated user out of the request context.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

// actorSellerID pulls the seller scope out of the request context. Routes
// behind RequireSeller guarantee it is present for seller accounts.
func actorSellerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.SellerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid seller id")
	}
	return id, nil
}

// viewerFromRequest builds the chat viewer identity for messaging endpoints.
func viewerFromRequest(r *http.Request) (messages.Viewer, error) {
	userID, err := actorID(r)
	if err != nil {
		return messages.Viewer{}, err
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return messages.Viewer{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}
	viewer := messages.Viewer{UserID: userID, Role: role}
	if raw := middleware.SellerIDFromContext(r.Context()); raw != "" {
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			return messages.Viewer{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid seller id")
		}
		viewer.SellerID = &sellerID
	}
	return viewer, nil
}

// paginationFromQuery reads the shared limit/cursor query parameters.
func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}, nil
}
