package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func ruleTicket(status domain.TicketStatus, assignee string) *domain.Ticket {
	t := &domain.Ticket{Status: status, SubmittedByEmail: "Nurse@Example.org"}
	if assignee != "" {
		t.AssignedTo = &assignee
	}
	return t
}

var (
	adminActor     = domain.Actor{ID: "admin", Email: "admin@example.org", Role: domain.RoleAdmin}
	agentActor     = domain.Actor{ID: "agent", Email: "agent@example.org", Role: domain.RoleIT}
	otherAgent     = domain.Actor{ID: "agent-2", Email: "agent2@example.org", Role: domain.RoleIT}
	submitterActor = domain.Actor{ID: "nurse", Email: "nurse@example.org", Role: domain.RoleNurse}
	strangerActor  = domain.Actor{ID: "doc", Email: "doc@example.org", Role: domain.RoleDoctor}
)

func TestCanCreate(t *testing.T) {
	for _, role := range domain.Roles {
		assert.Equal(t, role != domain.RoleIT, CanCreate(domain.Actor{Role: role}), role)
	}
	assert.False(t, CanCreate(domain.Actor{}))
}

func TestCanView(t *testing.T) {
	open := ruleTicket(domain.TicketStatusOpen, "")
	assigned := ruleTicket(domain.TicketStatusInProgress, "agent")

	assert.True(t, CanView(adminActor, assigned))
	assert.True(t, CanView(submitterActor, assigned))
	assert.True(t, CanView(agentActor, assigned))
	assert.False(t, CanView(otherAgent, assigned))
	assert.True(t, CanView(otherAgent, open))
	assert.False(t, CanView(strangerActor, open))
}

func TestCanComment(t *testing.T) {
	active := ruleTicket(domain.TicketStatusInProgress, "agent")
	resolved := ruleTicket(domain.TicketStatusResolved, "agent")

	assert.NoError(t, CanComment(submitterActor, active))
	assert.NoError(t, CanComment(agentActor, active))
	assert.NoError(t, CanComment(adminActor, active))
	assert.True(t, apperrors.HasCode(CanComment(strangerActor, active), apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(CanComment(otherAgent, active), apperrors.CodeForbidden))

	for _, a := range []domain.Actor{submitterActor, agentActor, adminActor} {
		assert.ErrorIs(t, CanComment(a, resolved), ErrTicketResolved)
	}
}

func TestCanChangeStatus(t *testing.T) {
	active := ruleTicket(domain.TicketStatusInProgress, "agent")
	resolved := ruleTicket(domain.TicketStatusResolved, "agent")

	assert.True(t, CanChangeStatus(adminActor, active))
	assert.True(t, CanChangeStatus(adminActor, resolved))
	assert.True(t, CanChangeStatus(agentActor, active))
	assert.False(t, CanChangeStatus(agentActor, resolved))
	assert.False(t, CanChangeStatus(otherAgent, active))
	assert.False(t, CanChangeStatus(submitterActor, active))
	assert.Equal(t, CanChangeStatus(agentActor, active), CanReassign(agentActor, active))
}

func TestCanClaim(t *testing.T) {
	assert.True(t, CanClaim(agentActor, ruleTicket(domain.TicketStatusOpen, "")))
	assert.True(t, CanClaim(agentActor, ruleTicket(domain.TicketStatusInProgress, "")))
	assert.False(t, CanClaim(agentActor, ruleTicket(domain.TicketStatusResolved, "")))
	assert.False(t, CanClaim(agentActor, ruleTicket(domain.TicketStatusOpen, "agent-2")))
	assert.False(t, CanClaim(adminActor, ruleTicket(domain.TicketStatusOpen, "")))
}

func TestCanUploadAttachment(t *testing.T) {
	assigned := ruleTicket(domain.TicketStatusInProgress, "agent")
	assert.True(t, CanUploadAttachment(agentActor, assigned))
	assert.False(t, CanUploadAttachment(submitterActor, assigned))
	assert.False(t, CanUploadAttachment(otherAgent, assigned))
}

func TestValidAssignee(t *testing.T) {
	assert.True(t, ValidAssignee(&domain.User{Role: domain.RoleIT, Status: domain.UserStatusApproved}))
	assert.True(t, ValidAssignee(&domain.User{Role: domain.RoleAdmin, Status: domain.UserStatusApproved}))
	assert.False(t, ValidAssignee(&domain.User{Role: domain.RoleIT, Status: domain.UserStatusPending}))
	assert.False(t, ValidAssignee(&domain.User{Role: domain.RoleNurse, Status: domain.UserStatusApproved}))
	assert.False(t, ValidAssignee(nil))
}

func TestSystemCommentText(t *testing.T) {
	assert.Equal(t, "Ticket status changed to in progress.", statusChangedComment(domain.TicketStatusInProgress))
	assert.Equal(t, "Ticket unassigned.", assignmentComment(nil))
	assert.Equal(t, "Ticket assigned to Ivan Petrov.", assignmentComment(&domain.User{Name: "ivan petrov"}))
}
