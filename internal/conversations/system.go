package conversations

import "context"

// System is the conversation backing store. Writes are last-writer-wins.
type System interface {
	// List returns the user's conversations, most recently updated first.
	List(ctx context.Context, userID string) ([]Conversation, error)

	// Find returns the conversation for the pair or ErrNotFound.
	Find(ctx context.Context, userID, agentID string) (*Conversation, error)

	// Upsert applies u to the pair's record, creating it when absent.
	Upsert(ctx context.Context, userID, agentID string, u Update) (*Conversation, error)

	// Delete removes the pair's record. Missing records are not an error.
	Delete(ctx context.Context, userID, agentID string) error
}
