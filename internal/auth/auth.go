package auth

import (
	"context"
	"fmt"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/quackchatNotification/internal/domain"
)

// Verifier turns a client ID token into a verified caller.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*domain.Caller, error)
}

// FirebaseVerifier verifies Firebase Auth ID tokens.
type FirebaseVerifier struct {
	client *firebaseauth.Client
}

func NewFirebaseVerifier(client *firebaseauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*domain.Caller, error) {
	decodedToken, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	caller := &domain.Caller{UID: decodedToken.UID}
	if email, ok := decodedToken.Claims["email"].(string); ok {
		caller.Email = email
	}
	return caller, nil
}

type callerKey struct{}

// WithCaller attaches a verified caller to ctx.
func WithCaller(ctx context.Context, caller *domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller attached by WithCaller, or nil.
func CallerFrom(ctx context.Context) *domain.Caller {
	caller, _ := ctx.Value(callerKey{}).(*domain.Caller)
	return caller
}

// Require returns domain.ErrUnauthenticated unless caller carries a uid.
func Require(caller *domain.Caller) error {
	if caller == nil || caller.UID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}
