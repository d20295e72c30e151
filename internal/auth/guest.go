package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	authmw "github.com/mindtype-hq/mindtype/internal/auth/middleware"
)

const guestCookie = "mt_guest_id"

// GuestLoginHandler issues a participant token bound to a guest identity.
// The identity rides a long-lived cookie so a returning browser keeps its
// guest id (and with it, recoverable sessions) across restarts.
func GuestLoginHandler(a *authmw.AuthService) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		GuestID     string `json:"guest_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		// Reuse an existing guest identity when the cookie is intact.
		if c, err := r.Cookie(guestCookie); err == nil && strings.HasPrefix(c.Value, "guest|") {
			tok, err := a.IssueJWT(c.Value, "participant")
			if err == nil {
				refreshGuestCookie(w, c.Value)
				_ = json.NewEncoder(w).Encode(out{AccessToken: tok, GuestID: c.Value})
				return
			}
		}

		guestID := "guest|" + uuid.NewString()
		tok, err := a.IssueJWT(guestID, "participant")
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		refreshGuestCookie(w, guestID)
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, GuestID: guestID})
	}
}

func refreshGuestCookie(w http.ResponseWriter, guestID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     guestCookie,
		Value:    guestID,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}
