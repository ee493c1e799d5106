// Package profiles stores users and the agents they own.
package profiles

import "context"

// System defines user and agent persistence.
type System interface {
	// Find returns the user with their agents ordered by creation.
	Find(ctx context.Context, userID string) (*AuthUser, error)

	// Save creates the user on first call and updates profile fields after.
	Save(ctx context.Context, userID string, cmd SaveUserCommand) (*AuthUser, error)

	// SaveAgent creates or updates one of the user's agents.
	SaveAgent(ctx context.Context, userID string, cmd SaveAgentCommand) (*AgentProfile, error)

	// DeleteAgent removes the agent and its conversation record together.
	DeleteAgent(ctx context.Context, userID, agentID string) error

	// SetActive toggles account activation. Users are never hard-deleted.
	SetActive(ctx context.Context, userID string, active bool) (*AuthUser, error)

	// ListActive returns every active user with their agents.
	ListActive(ctx context.Context) ([]AuthUser, error)
}
