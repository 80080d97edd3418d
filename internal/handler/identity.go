package handler

import (
	"context"
	"net/http"

	"github.com/resumatic/backend/internal/contextkeys"
	"github.com/resumatic/backend/internal/domain"
	"github.com/resumatic/backend/internal/service"
)

// authIdentity pulls the external auth identity the middleware stored.
func authIdentity(ctx context.Context) (authUserID, email string, err error) {
	id, ok := ctx.Value(contextkeys.AuthUserID).(string)
	if !ok || id == "" {
		return "", "", domain.ErrUnauthorized("unauthorized")
	}
	email, _ = ctx.Value(contextkeys.UserEmail).(string)
	return id, email, nil
}

// requireAccount resolves the authenticated request to its account row,
// creating it lazily if the client got here before the auth provider's
// user-created webhook landed.
func requireAccount(r *http.Request, accounts *service.AccountService) (*domain.Account, error) {
	authUserID, email, err := authIdentity(r.Context())
	if err != nil {
		return nil, err
	}
	return accounts.GetOrCreate(r.Context(), authUserID, email, "")
}
