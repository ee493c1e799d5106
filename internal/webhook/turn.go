package webhook

import (
	"context"
	"strings"
	"time"
)

const (
	// AudioPlaceholder is sent as message text for a voice note without text.
	AudioPlaceholder = "Audio-Nachricht"

	// FilePlaceholder is sent as message text for file-only turns.
	FilePlaceholder = "Datei gesendet."
)

// HistoryEntry is a prior message as serialized into the outbound history.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// File is a binary attachment referenced through a BlobReader.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Ref      string
}

// Audio is a recorded voice note.
type Audio struct {
	Ref        string
	MimeType   string
	DurationMs int64
	Waveform   []float64
}

// Turn is one outbound user turn.
type Turn struct {
	ConversationID string
	MessageID      string
	Text           string
	Files          []File
	Audio          *Audio
	History        []HistoryEntry
}

// HasAttachments reports whether the turn carries binary content.
func (t Turn) HasAttachments() bool {
	return len(t.Files) > 0 || t.Audio != nil
}

// Empty reports whether the turn has neither text nor attachments.
func (t Turn) Empty() bool {
	return strings.TrimSpace(t.Text) == "" && !t.HasAttachments()
}

// Content returns the message text to send, substituting a placeholder when
// attachments are present without text.
func (t Turn) Content() string {
	if text := strings.TrimSpace(t.Text); text != "" {
		return text
	}
	switch {
	case t.Audio != nil:
		return AudioPlaceholder
	case len(t.Files) > 0:
		return FilePlaceholder
	default:
		return ""
	}
}

// AudioNotification is the compact upload-then-notify payload some webhook
// receivers accept for voice notes. Dispatch always sends audio inline; the
// type is kept for receivers that integrate both shapes.
type AudioNotification struct {
	MessageID      string    `json:"message_id"`
	ProfileID      string    `json:"profile_id"`
	ConversationID string    `json:"conversation_id"`
	StoragePath    string    `json:"storage_path"`
	SignedURL      string    `json:"signed_url"`
	Mime           string    `json:"mime"`
	DurationMs     int64     `json:"duration_ms"`
	Waveform       []float64 `json:"waveform,omitempty"`
}

// BlobReader loads attachment bytes by reference.
type BlobReader interface {
	ReadBlob(ctx context.Context, ref string) ([]byte, error)
}

// BlobReaderFunc adapts a function to BlobReader.
type BlobReaderFunc func(ctx context.Context, ref string) ([]byte, error)

func (f BlobReaderFunc) ReadBlob(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}
