package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
)

const octetStream = "application/octet-stream"

// Payload is an encoded request body ready for dispatch.
type Payload struct {
	ContentType string
	Body        []byte
	Multipart   bool
}

type jsonBody struct {
	ChatID    string         `json:"chatId"`
	MessageID string         `json:"messageId"`
	Message   string         `json:"message"`
	History   []HistoryEntry `json:"history"`
}

// Builder encodes turns into webhook payloads.
type Builder struct {
	blobs         BlobReader
	maxAttachment int64
}

// NewBuilder creates a Builder reading attachments through blobs. A
// maxAttachment of zero disables the per-attachment size check.
func NewBuilder(blobs BlobReader, maxAttachment int64) *Builder {
	return &Builder{blobs: blobs, maxAttachment: maxAttachment}
}

// Build encodes turn as JSON, or as multipart/form-data when it carries files
// or audio. Empty turns are refused with ErrEmptyTurn.
func (b *Builder) Build(ctx context.Context, turn Turn) (*Payload, error) {
	if turn.Empty() {
		return nil, ErrEmptyTurn
	}

	history := turn.History
	if history == nil {
		history = []HistoryEntry{}
	}

	if !turn.HasAttachments() {
		body, err := json.Marshal(jsonBody{
			ChatID:    turn.ConversationID,
			MessageID: turn.MessageID,
			Message:   turn.Content(),
			History:   history,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return &Payload{ContentType: "application/json", Body: body}, nil
	}

	return b.buildMultipart(ctx, turn, history)
}

func (b *Builder) buildMultipart(ctx context.Context, turn Turn, history []HistoryEntry) (*Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrEncoding, err)
	}

	fields := [][2]string{
		{"chatId", turn.ConversationID},
		{"messageId", turn.MessageID},
		{"message", turn.Content()},
		{"history", string(historyJSON)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrEncoding, f[0], err)
		}
	}

	for i, file := range turn.Files {
		data, err := b.read(ctx, file.Ref, file.Name)
		if err != nil {
			return nil, err
		}
		field := "attachment_" + strconv.Itoa(i)
		if err := writeFilePart(w, field, file.Name, ResolveMimeType(file.Name, file.MimeType), data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrEncoding, field, err)
		}
	}

	if a := turn.Audio; a != nil {
		data, err := b.read(ctx, a.Ref, "audio")
		if err != nil {
			return nil, err
		}
		mt := ResolveMimeType("", a.MimeType)
		if err := writeFilePart(w, "audio", audioFilename(mt), mt, data); err != nil {
			return nil, fmt.Errorf("%w: audio: %v", ErrEncoding, err)
		}
		if err := w.WriteField("audioDurationMs", strconv.FormatInt(a.DurationMs, 10)); err != nil {
			return nil, fmt.Errorf("%w: audioDurationMs: %v", ErrEncoding, err)
		}
		if len(a.Waveform) > 0 {
			wave, err := json.Marshal(a.Waveform)
			if err != nil {
				return nil, fmt.Errorf("%w: waveform: %v", ErrEncoding, err)
			}
			if err := w.WriteField("waveform", string(wave)); err != nil {
				return nil, fmt.Errorf("%w: waveform: %v", ErrEncoding, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	return &Payload{
		ContentType: w.FormDataContentType(),
		Body:        buf.Bytes(),
		Multipart:   true,
	}, nil
}

func (b *Builder) read(ctx context.Context, ref, name string) ([]byte, error) {
	if b.blobs == nil {
		return nil, fmt.Errorf("%w: no blob reader for %s", ErrEncoding, name)
	}
	data, err := b.blobs.ReadBlob(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrEncoding, name, err)
	}
	if b.maxAttachment > 0 && int64(len(data)) > b.maxAttachment {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrEncoding, name, len(data), b.maxAttachment)
	}
	return data, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(w *multipart.Writer, field, filename, contentType string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

// ResolveMimeType returns declared when it is a valid media type, otherwise
// the type registered for name's extension, otherwise
// application/octet-stream.
func ResolveMimeType(name, declared string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.Contains(mt, "/") {
			return declared
		}
	}
	if ext := filepath.Ext(name); ext != "" {
		if mt := mime.TypeByExtension(strings.ToLower(ext)); mt != "" {
			return mt
		}
	}
	return octetStream
}

func audioFilename(mimeType string) string {
	mt, _, _ := mime.ParseMediaType(mimeType)
	switch mt {
	case "audio/webm":
		return "voice-note.webm"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "voice-note.m4a"
	case "audio/mpeg":
		return "voice-note.mp3"
	case "audio/ogg":
		return "voice-note.ogg"
	case "audio/wav", "audio/x-wav":
		return "voice-note.wav"
	default:
		return "voice-note"
	}
}
