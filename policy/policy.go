// Package policy decides whether an actor may perform an action on a
// resource. Decisions are pure: no storage access, no request state.
package policy

import "net/http"

// Actor is the identity behind a request after credential resolution.
// The zero value is the anonymous actor.
type Actor struct {
	UserID      uint
	IsStaff     bool
	IsSuperuser bool
}

// Anonymous is the actor of a request without credentials.
var Anonymous = Actor{}

func (a Actor) IsAuthenticated() bool { return a.UserID != 0 }

// IsAdmin reports staff or superuser.
func (a Actor) IsAdmin() bool { return a.IsStaff || a.IsSuperuser }

type Action int

const (
	Read Action = iota
	Write
)

func (a Action) String() string {
	if a == Read {
		return "read"
	}
	return "write"
}

// ActionFor maps an HTTP method to an action. Safe methods read, the rest write.
func ActionFor(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Read
	}
	return Write
}

// Resource describes the record a decision is about. OwnerID is zero for
// collections and for records without an owner.
type Resource struct {
	Kind    string
	OwnerID uint
}

// Decision is the outcome of Decide.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) Allowed() bool { return d == Allow }

// Policy is a single reusable rule.
type Policy interface {
	Allows(actor Actor, action Action, res Resource) bool
}

// Func adapts a function to Policy.
type Func func(actor Actor, action Action, res Resource) bool

func (f Func) Allows(actor Actor, action Action, res Resource) bool { return f(actor, action, res) }

// Decide evaluates p.
func Decide(p Policy, actor Actor, action Action, res Resource) Decision {
	if p.Allows(actor, action, res) {
		return Allow
	}
	return Deny
}

// AdminOrReadOnly lets anyone read and only superusers write.
var AdminOrReadOnly Policy = Func(func(actor Actor, action Action, _ Resource) bool {
	if action == Read {
		return true
	}
	return actor.IsSuperuser
})

// OwnerOrReadOnly lets anyone read; writes need staff, superuser or ownership.
var OwnerOrReadOnly Policy = Func(func(actor Actor, action Action, res Resource) bool {
	if action == Read {
		return true
	}
	return actor.IsAdmin() || isOwner(actor, res)
})

// Authenticated rejects the anonymous actor for every action.
var Authenticated Policy = Func(func(actor Actor, _ Action, _ Resource) bool {
	return actor.IsAuthenticated()
})

// OwnerOrStaff restricts every action, reads included, to the owner and admins.
var OwnerOrStaff Policy = Func(func(actor Actor, _ Action, res Resource) bool {
	return actor.IsAdmin() || isOwner(actor, res)
})

func isOwner(actor Actor, res Resource) bool {
	return actor.IsAuthenticated() && res.OwnerID == actor.UserID
}

// AllOf allows only when every policy allows.
func AllOf(policies ...Policy) Policy {
	return Func(func(actor Actor, action Action, res Resource) bool {
		for _, p := range policies {
			if !p.Allows(actor, action, res) {
				return false
			}
		}
		return true
	})
}

// Per-resource compositions.
var (
	Rooms         = AdminOrReadOnly
	RoomImages    = AdminOrReadOnly
	BookingDetail = AllOf(Authenticated, OwnerOrReadOnly, OwnerOrStaff)
	UserDetail    = AllOf(Authenticated, OwnerOrStaff)
)

// SeesAll reports whether list endpoints return every record to actor
// rather than only the actor's own.
func SeesAll(actor Actor) bool { return actor.IsAdmin() }
