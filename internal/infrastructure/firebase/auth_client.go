package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// VerifiedToken is the identity extracted from a verified Firebase ID token.
type VerifiedToken struct {
	UID   string
	Email string
}

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (*VerifiedToken, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	verified := &VerifiedToken{UID: result.UID}
	if email, ok := result.Claims["email"].(string); ok {
		verified.Email = email
	}
	return verified, nil
}

// SetRoleClaim mirrors the stored role into the user's custom claims so clients can
// gate admin screens without an extra read. Existing claims are preserved.
func (f *FirebaseAuthClient) SetRoleClaim(ctx context.Context, uid, role string) error {
	user, err := f.client.GetUser(ctx, uid)
	if err != nil {
		return err
	}

	claims := make(map[string]interface{}, len(user.CustomClaims)+1)
	for k, v := range user.CustomClaims {
		claims[k] = v
	}
	claims["role"] = role

	return f.client.SetCustomUserClaims(ctx, uid, claims)
}
