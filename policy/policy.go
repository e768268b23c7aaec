// Package policy holds the per-resource, per-action authorization table
// and the identity checks that sit on top of it.
package policy

import "errors"

type Resource string

const (
	Venues             Resource = "venues"
	Events             Resource = "events"
	Registrations      Resource = "registrations"
	Users              Resource = "users"
	RegistrationExport Resource = "registration_export"
)

type Action string

const (
	List          Action = "list"
	Retrieve      Action = "retrieve"
	Create        Action = "create"
	Update        Action = "update"
	PartialUpdate Action = "partial_update"
	Destroy       Action = "destroy"
)

// Requirement is the minimum caller capability for an action.
type Requirement int

const (
	Anyone Requirement = iota
	Authenticated
	Admin
)

type Rule struct {
	Require Requirement
	// SelfScoped rules hide rows owned by other callers unless the caller
	// is an admin. Hidden rows surface as not found.
	SelfScoped bool
	// CreatorOnly rules additionally require the caller to be the row's
	// creator, admins included.
	CreatorOnly bool
}

var table = map[Resource]map[Action]Rule{
	Venues: {
		List:          {Require: Admin},
		Retrieve:      {Require: Admin},
		Create:        {Require: Admin},
		Update:        {Require: Admin},
		PartialUpdate: {Require: Admin},
		Destroy:       {Require: Admin},
	},
	Events: {
		List:          {Require: Anyone},
		Retrieve:      {Require: Anyone},
		Create:        {Require: Admin},
		Update:        {Require: Admin, CreatorOnly: true},
		PartialUpdate: {Require: Admin, CreatorOnly: true},
		Destroy:       {Require: Admin, CreatorOnly: true},
	},
	Registrations: {
		List:          {Require: Authenticated, SelfScoped: true},
		Retrieve:      {Require: Authenticated, SelfScoped: true},
		Create:        {Require: Authenticated},
		PartialUpdate: {Require: Admin},
	},
	Users: {
		List:          {Require: Admin},
		Retrieve:      {Require: Authenticated, SelfScoped: true},
		Create:        {Require: Anyone},
		PartialUpdate: {Require: Admin},
		Destroy:       {Require: Admin},
	},
	RegistrationExport: {
		List: {Require: Admin},
	},
}

var (
	ErrNotAuthenticated = errors.New("Authentication credentials were not provided.")
	ErrPermissionDenied = errors.New("You do not have permission to perform this action.")
	ErrNotAllowed       = errors.New("action not allowed")
)

// Caller is the identity a request runs as. The zero value is anonymous.
type Caller struct {
	UserID  int64
	IsAdmin bool
}

func (c Caller) Authenticated() bool { return c.UserID != 0 }

// Lookup returns the rule for an action and whether the action is exposed.
func Lookup(res Resource, act Action) (Rule, bool) {
	rule, ok := table[res][act]
	return rule, ok
}

// Check applies the capability requirement of (res, act) to c.
func Check(c Caller, res Resource, act Action) error {
	rule, ok := Lookup(res, act)
	if !ok {
		return ErrNotAllowed
	}
	switch rule.Require {
	case Authenticated:
		if !c.Authenticated() {
			return ErrNotAuthenticated
		}
	case Admin:
		if !c.Authenticated() {
			return ErrNotAuthenticated
		}
		if !c.IsAdmin {
			return ErrPermissionDenied
		}
	}
	return nil
}

// Visible reports whether a row owned by ownerID may be seen by c under a
// self-scoped rule.
func Visible(c Caller, ownerID int64) bool {
	return c.IsAdmin || (c.Authenticated() && c.UserID == ownerID)
}

// CreatorError rejects a mutation attempted by someone other than the creator.
type CreatorError struct {
	Action Action
}

func (e *CreatorError) Error() string {
	switch e.Action {
	case PartialUpdate:
		return "Only the event creator can partially update the event."
	case Destroy:
		return "Only the event creator can delete the event."
	default:
		return "Only the event creator can update the event."
	}
}

// CheckCreator enforces creator-only mutation for rules that ask for it.
func CheckCreator(c Caller, res Resource, act Action, createdBy int64) error {
	rule, ok := Lookup(res, act)
	if !ok {
		return ErrNotAllowed
	}
	if !rule.CreatorOnly || c.UserID == createdBy {
		return nil
	}
	return &CreatorError{Action: act}
}
