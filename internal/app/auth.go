package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/pkg/types"
)

// KV keys of the local account.
const (
	UserKey  = "user"
	TokenKey = "token"
)

const mockToken = "mock-jwt-token"

var ErrNotLoggedIn = errors.New("not logged in")

// Auth is a local stand-in for an account service. Logging in records the
// user and a placeholder token; nothing is verified.
type Auth struct {
	kv     storage.KV
	userID string
}

func NewAuth(kv storage.KV, userID string) *Auth {
	return &Auth{kv: kv, userID: userID}
}

// Login stores a user for email.
func (a *Auth) Login(ctx context.Context, name, email string) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return types.User{}, fmt.Errorf("email is required")
	}
	if strings.TrimSpace(name) == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	user := types.User{ID: a.userID, Name: name, Email: email}

	data, err := json.Marshal(user)
	if err != nil {
		return types.User{}, err
	}
	if err := a.kv.Set(ctx, UserKey, string(data)); err != nil {
		return types.User{}, fmt.Errorf("failed to store user: %w", err)
	}
	if err := a.kv.Set(ctx, TokenKey, mockToken); err != nil {
		return types.User{}, fmt.Errorf("failed to store token: %w", err)
	}
	return user, nil
}

// Current returns the logged in user. Both keys must be present.
func (a *Auth) Current(ctx context.Context) (types.User, error) {
	data, err := a.kv.Get(ctx, UserKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return types.User{}, ErrNotLoggedIn
	}
	if err != nil {
		return types.User{}, err
	}
	if _, err := a.kv.Get(ctx, TokenKey); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return types.User{}, ErrNotLoggedIn
		}
		return types.User{}, err
	}

	var user types.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return types.User{}, fmt.Errorf("%w: stored user is unreadable", ErrNotLoggedIn)
	}
	return user, nil
}

// Logout removes the stored user and token.
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.kv.Remove(ctx, UserKey); err != nil {
		return err
	}
	return a.kv.Remove(ctx, TokenKey)
}
