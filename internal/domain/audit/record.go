package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// New builds an entry stamped with the given time. details is marshalled
// as JSON; a nil map yields "{}".
func New(action Action, loanID, actorID string, details map[string]any, at time.Time) (*Entry, error) {
	if details == nil {
		details = map[string]any{}
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		EntryID:   uuid.NewString(),
		Action:    action,
		ActorID:   actorID,
		Details:   string(b),
		CreatedAt: at.UTC(),
	}
	if loanID != "" {
		e.LoanID = &loanID
	}
	return e, nil
}
