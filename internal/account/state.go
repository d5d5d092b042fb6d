package account

import (
	"github.com/dimitrije/adme-site/internal/models"
)

type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseLoading
	PhaseAuthenticated
	// PhaseProfileError is signed in, but the profile could not be loaded.
	PhaseProfileError
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseProfileError:
		return "profile_error"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is what every account surface reads.
type State struct {
	User    *models.Identity
	Profile *models.Profile
	Session *models.Session
	Loading bool
	Err     error
	Phase   Phase
}

// Observer is called with a snapshot after every state change.
type Observer func(State)
