// Package profile is the identity and stats collaborator used by rooms:
// display names, lifetime corrects and wins, nectar and titles.
package profile

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("profile not found")

type Profile struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	Title          string `json:"title"`
	Corrects       int    `json:"corrects"`
	Wins           int    `json:"wins"`
	Nectar         int    `json:"nectar"`
	LifetimeNectar int    `json:"lifetimeNectar"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
}

type Store interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Ensure(ctx context.Context, userID, name string) (Profile, error)
	ApplyCorrectAnswer(ctx context.Context, userID string, stars int) error
	ApplyWin(ctx context.Context, userID string) error
}

// DisplayName picks username, then the local part of email, then "Player".
func DisplayName(username, email string) string {
	if name := strings.TrimSpace(username); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(email), "@"); ok && local != "" {
		return local
	}
	return "Player"
}
