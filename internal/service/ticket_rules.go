package service

import (
	"fmt"
	"net/http"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CodeTicketResolved marks refusals caused by the resolved state.
const CodeTicketResolved = "TICKET_RESOLVED"

// ErrTicketResolved is returned when a human comment targets a resolved ticket.
var ErrTicketResolved = apperrors.NewDomainError(CodeTicketResolved, "ticket is resolved and no longer accepts comments", http.StatusConflict, nil)

const ticketCreatedComment = "Ticket created and added to the queue."

// CanCreate reports whether the actor may submit tickets. IT agents work tickets, they
// do not file them.
func CanCreate(a domain.Actor) bool {
	return a.Role.Valid() && a.Role != domain.RoleIT
}

// CanView covers the submitter, the assignee, admins, and IT agents looking at the open
// queue they can claim from.
func CanView(a domain.Actor, t *domain.Ticket) bool {
	switch {
	case a.Role == domain.RoleAdmin:
		return true
	case t.IsSubmitter(a.Email), t.IsAssignedTo(a.ID):
		return true
	case a.Role == domain.RoleIT && t.AssignedTo == nil && t.Status == domain.TicketStatusOpen:
		return true
	}
	return false
}

// CanComment returns nil when the actor may add a human comment.
func CanComment(a domain.Actor, t *domain.Ticket) error {
	if a.Role != domain.RoleAdmin && !t.IsSubmitter(a.Email) && !t.IsAssignedTo(a.ID) {
		return apperrors.NewForbidden("only the submitter, the assignee or an admin may comment")
	}
	if t.Resolved() {
		return ErrTicketResolved
	}
	return nil
}

// CanChangeStatus allows admins always, including reopening a resolved ticket, and the
// assigned IT agent while the ticket is unresolved.
func CanChangeStatus(a domain.Actor, t *domain.Ticket) bool {
	if a.Role == domain.RoleAdmin {
		return true
	}
	return a.Role == domain.RoleIT && t.IsAssignedTo(a.ID) && !t.Resolved()
}

// CanReassign follows the status rule.
func CanReassign(a domain.Actor, t *domain.Ticket) bool {
	return CanChangeStatus(a, t)
}

// CanClaim lets an IT agent take an unassigned, unresolved ticket.
func CanClaim(a domain.Actor, t *domain.Ticket) bool {
	return a.Role == domain.RoleIT && t.AssignedTo == nil && !t.Resolved()
}

// CanUploadAttachment covers post-creation uploads. Submitters attach at creation only.
func CanUploadAttachment(a domain.Actor, t *domain.Ticket) bool {
	return t.IsAssignedTo(a.ID) && a.Role.IsAgent()
}

// ValidAssignee checks the agent invariant for assignment targets.
func ValidAssignee(u *domain.User) bool {
	return u != nil && u.Approved() && u.Role.IsAgent()
}

func statusChangedComment(status domain.TicketStatus) string {
	return fmt.Sprintf("Ticket status changed to %s.", status.Label())
}

func assignmentComment(assignee *domain.User) string {
	if assignee == nil {
		return "Ticket unassigned."
	}
	return fmt.Sprintf("Ticket assigned to %s.", assignee.DisplayName())
}
