// Package links issues and validates the one-time links embedded in emails
// for subscription management.
package links

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultExpiry is how long a link stays valid after issue.
const DefaultExpiry = 60 * time.Minute

// Link is a single-use token tied to a user's email with an expiry.
type Link struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	ExpireTime time.Time `json:"expire_time"`
}

// Store persists one-time links.
type Store interface {
	PutLink(l Link) error
	GetLink(id string) (*Link, error)
	DeleteLink(id string) error
	AllLinks() ([]Link, error)
}

// Handler issues, validates and cleans up one-time links.
type Handler struct {
	store  Store
	expiry time.Duration
	now    func() time.Time
}

// NewHandler creates a Handler. A zero expiry uses DefaultExpiry.
func NewHandler(store Store, expiry time.Duration) *Handler {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Handler{store: store, expiry: expiry, now: time.Now}
}

// Issue creates and persists a fresh link for the email.
func (h *Handler) Issue(email string) (Link, error) {
	l := Link{
		ID:         uuid.NewString(),
		Email:      email,
		ExpireTime: h.now().UTC().Add(h.expiry),
	}
	if err := h.store.PutLink(l); err != nil {
		return Link{}, fmt.Errorf("storing one-time link: %w", err)
	}
	return l, nil
}

// Validate looks up a token and returns the associated email if the link
// exists and has not expired. The link is consumed on successful validation.
func (h *Handler) Validate(id string) (string, error) {
	l, err := h.store.GetLink(id)
	if err != nil {
		return "", fmt.Errorf("looking up one-time link: %w", err)
	}
	if l == nil {
		return "", fmt.Errorf("one-time link does not exist")
	}
	if !l.ExpireTime.After(h.now().UTC()) {
		return "", fmt.Errorf("one-time link is expired")
	}
	if err := h.store.DeleteLink(id); err != nil {
		return "", fmt.Errorf("consuming one-time link: %w", err)
	}
	return l.Email, nil
}

// RemoveExpired deletes every expired link and returns how many went away.
func (h *Handler) RemoveExpired() (int, error) {
	all, err := h.store.AllLinks()
	if err != nil {
		return 0, err
	}

	removed := 0
	now := h.now().UTC()
	for _, l := range all {
		if l.ExpireTime.After(now) {
			continue
		}
		if err := h.store.DeleteLink(l.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
