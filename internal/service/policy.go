package service

import "github.com/sefazor/eventphotos-backend/internal/models"

type Action string

const (
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Authorizer answers "can user perform action on event". Photo actions are
// authorized through the photo's event.
type Authorizer interface {
	Can(userID uint, action Action, event *models.Event) bool
}

// OwnerPolicy etkinlik üzerindeki her işlemi yalnızca sahibine açar
type OwnerPolicy struct{}

func (OwnerPolicy) Can(userID uint, _ Action, event *models.Event) bool {
	return event != nil && userID != 0 && event.UserID == userID
}
