package permissions

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/classroom-service/internal/models"
)

// ErrMalformedInput is returned by Decide for inputs that can only come from
// a programming error, such as a zero actor id or an unknown operation.
var ErrMalformedInput = errors.New("malformed authorization input")

// Decision is the outcome of a permission check.
type Decision int

const (
	// Deny means the operation is not permitted.
	Deny Decision = iota

	// Allow means the operation is permitted.
	Allow
)

// String returns "allow" or "deny".
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// DenyReason describes why a check was denied. Access reasons mean the actor
// may not perform the operation at all; precondition reasons mean the actor
// may, but the resource is not in a state that permits it right now.
type DenyReason int

const (
	ReasonNone DenyReason = iota

	// Access reasons
	ReasonRoleNotPermitted
	ReasonNotGroupOwner
	ReasonNoGroup
	ReasonNotGroupMember
	ReasonNotSender
	ReasonNotSubject

	// Precondition reasons
	ReasonGroupClosed
	ReasonGroupFull
	ReasonAlreadyMember
	ReasonNotInGroup
)

// String returns a human-readable reason. Precondition reasons are returned
// to clients verbatim.
func (r DenyReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonRoleNotPermitted:
		return "role is not permitted to perform this operation"
	case ReasonNotGroupOwner:
		return "teacher does not own the group"
	case ReasonNoGroup:
		return "lesson is not assigned to a group"
	case ReasonNotGroupMember:
		return "student is not a member of the lesson's group"
	case ReasonNotSender:
		return "only the sender can modify this message"
	case ReasonNotSubject:
		return "access is limited to the actor's own records"
	case ReasonGroupClosed:
		return "Group is not open for joining"
	case ReasonGroupFull:
		return "Group is full"
	case ReasonAlreadyMember:
		return "Student is already in this group"
	case ReasonNotInGroup:
		return "Student is not in this group"
	default:
		return "unknown"
	}
}

// Precondition reports whether r describes resource state rather than access
func (r DenyReason) Precondition() bool {
	switch r {
	case ReasonGroupClosed, ReasonGroupFull, ReasonAlreadyMember, ReasonNotInGroup:
		return true
	default:
		return false
	}
}

// Result describes the outcome of a permission check.
type Result struct {
	Operation Operation
	Decision  Decision

	// Reason is only meaningful when Decision is Deny.
	Reason DenyReason
}

func (r Result) Allowed() bool {
	return r.Decision == Allow
}

// Facts are ownership facts flattened by the caller. The evaluator never
// follows relationships itself.
type Facts struct {
	// OwnerTeacherID is the teacher owning the group the resource resolves
	// to. Nil when the resource has no group.
	OwnerTeacherID *uint

	// IsMember reports whether the actor is a student of that group.
	IsMember bool

	// SenderID is the author of a message.
	SenderID uint

	// SubjectUserID is the user a record or account belongs to.
	SubjectUserID uint

	// Group state, used by join and leave.
	GroupOpen   bool
	MemberCount int
	MaxStudents int
}

// OwnedBy reports whether teacherID owns the resource's group
func (f Facts) OwnedBy(teacherID uint) bool {
	return f.OwnerTeacherID != nil && *f.OwnerTeacherID == teacherID
}

// check returns ReasonNone to allow
type check func(actor models.Actor, facts Facts) DenyReason

type rule struct {
	admin, teacher, student check
}

func allow(models.Actor, Facts) DenyReason { return ReasonNone }

func denyRole(models.Actor, Facts) DenyReason { return ReasonRoleNotPermitted }

func ownsGroup(actor models.Actor, facts Facts) DenyReason {
	if facts.OwnerTeacherID == nil {
		return ReasonNoGroup
	}
	if !facts.OwnedBy(actor.ID) {
		return ReasonNotGroupOwner
	}
	return ReasonNone
}

func isMember(_ models.Actor, facts Facts) DenyReason {
	if !facts.IsMember {
		return ReasonNotGroupMember
	}
	return ReasonNone
}

func isSender(actor models.Actor, facts Facts) DenyReason {
	if facts.SenderID != actor.ID {
		return ReasonNotSender
	}
	return ReasonNone
}

func isSubject(actor models.Actor, facts Facts) DenyReason {
	if facts.SubjectUserID != actor.ID {
		return ReasonNotSubject
	}
	return ReasonNone
}

func canJoin(_ models.Actor, facts Facts) DenyReason {
	switch {
	case !facts.GroupOpen:
		return ReasonGroupClosed
	case facts.MemberCount >= facts.MaxStudents:
		return ReasonGroupFull
	case facts.IsMember:
		return ReasonAlreadyMember
	default:
		return ReasonNone
	}
}

func canLeave(_ models.Actor, facts Facts) DenyReason {
	if !facts.IsMember {
		return ReasonNotInGroup
	}
	return ReasonNone
}

var (
	adminOnly    = rule{admin: allow, teacher: denyRole, student: denyRole}
	ownerOrAdmin = rule{admin: allow, teacher: ownsGroup, student: denyRole}
)

// rules is the complete decision table
var rules = map[Operation]rule{
	OpReadCatalog: {admin: allow, teacher: allow, student: allow},

	OpCreateProgram: adminOnly,
	OpUpdateProgram: adminOnly,
	OpDeleteProgram: adminOnly,

	OpCreateGroup: adminOnly,
	OpUpdateGroup: adminOnly,
	OpDeleteGroup: adminOnly,
	OpJoinGroup:   {admin: denyRole, teacher: denyRole, student: canJoin},
	OpLeaveGroup:  {admin: denyRole, teacher: denyRole, student: canLeave},

	OpCreateLesson:  adminOnly,
	OpUpdateLesson:  adminOnly,
	OpDeleteLesson:  adminOnly,
	OpCommentLesson: ownerOrAdmin,

	OpListAttendance:          {admin: allow, teacher: allow, student: denyRole},
	OpReadAttendance:          ownerOrAdmin,
	OpReadAttendanceByStudent: {admin: allow, teacher: allow, student: isSubject},
	OpMarkAttendance:          ownerOrAdmin,
	OpBulkMarkAttendance:      ownerOrAdmin,
	OpUpdateAttendance:        ownerOrAdmin,
	OpDeleteAttendance:        ownerOrAdmin,
	OpExportAttendance:        ownerOrAdmin,

	OpCreateMaterial: ownerOrAdmin,
	OpUpdateMaterial: ownerOrAdmin,
	OpDeleteMaterial: ownerOrAdmin,

	OpListAllMessages:    adminOnly,
	OpReadLessonMessages: {admin: allow, teacher: ownsGroup, student: isMember},
	OpCreateMessage:      {admin: allow, teacher: ownsGroup, student: isMember},
	OpUpdateMessage:      {admin: allow, teacher: isSender, student: isSender},
	OpDeleteMessage:      {admin: allow, teacher: isSender, student: isSender},

	OpManageUsers:      adminOnly,
	OpManageOwnAccount: {admin: isSubject, teacher: isSubject, student: isSubject},
}

// Decide renders a decision for actor performing op given facts. Expected
// denials are returned as a Deny result; an error means the input itself is
// malformed.
func Decide(actor models.Actor, op Operation, facts Facts) (Result, error) {
	if actor.ID == 0 {
		return Result{}, fmt.Errorf("%w: actor id is zero", ErrMalformedInput)
	}

	r, ok := rules[op]
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown operation %d", ErrMalformedInput, int(op))
	}

	var c check
	switch actor.Role {
	case models.RoleAdmin:
		c = r.admin
	case models.RoleTeacher:
		c = r.teacher
	case models.RoleStudent:
		c = r.student
	default:
		return Result{}, fmt.Errorf("%w: invalid role %v", ErrMalformedInput, actor.Role)
	}

	reason := c(actor, facts)
	if reason != ReasonNone {
		return Result{Operation: op, Decision: Deny, Reason: reason}, nil
	}
	return Result{Operation: op, Decision: Allow}, nil
}
