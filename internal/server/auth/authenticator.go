package auth

import (
	"context"

	"github.com/dmitrijs2005/backoffice/internal/server/models"
)

// Authenticator runs the per-request chain: validate token, then load the
// user it names.
type Authenticator struct {
	tokens     *TokenService
	identities *IdentityResolver
}

func NewAuthenticator(tokens *TokenService, identities *IdentityResolver) *Authenticator {
	return &Authenticator{tokens: tokens, identities: identities}
}

// Authenticate returns the caller behind token. Token failures come back as
// common.ErrInvalidCredentials, a vanished account as common.ErrSubjectNotFound.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	subject, err := a.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	return a.identities.Resolve(ctx, subject)
}
