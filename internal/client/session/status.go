package session

import "fmt"

type Status int

const (
	Initializing Status = iota
	Unauthenticated
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// transitions lists the allowed moves. Self-loops on Unauthenticated and
// Authenticated cover logout-when-logged-out and profile refreshes.
var transitions = map[Status][]Status{
	Initializing:    {Authenticated, Unauthenticated},
	Unauthenticated: {Authenticating, Unauthenticated},
	Authenticating:  {Authenticated, Unauthenticated},
	Authenticated:   {Unauthenticated, Authenticating, Authenticated},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
