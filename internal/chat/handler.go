package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/agent-chat/internal/auth"
	"github.com/JaimeStill/agent-chat/internal/webhook"
	"github.com/JaimeStill/agent-chat/pkg/handlers"
	"github.com/JaimeStill/agent-chat/pkg/pagination"
	"github.com/JaimeStill/agent-chat/pkg/routes"
	"github.com/JaimeStill/agent-chat/pkg/storage"
)

const (
	maxJSONBody     = 64 << 10
	multipartMemory = 8 << 20
)

type Handler struct {
	svc     *Service
	blobs   storage.System
	maxBody int64
	pages   pagination.Config
	logger  *slog.Logger
}

// NewHandler creates the chat API. Uploaded attachments are written to
// blobs before the turn is sent; maxBody bounds a whole multipart request.
func NewHandler(svc *Service, blobs storage.System, maxBody int64, pages pagination.Config, logger *slog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		blobs:   blobs,
		maxBody: maxBody,
		pages:   pages,
		logger:  logger.With("handler", "chat"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Tags: []string{"Chat"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/conversations", Handler: h.List, OpenAPI: Spec.List},
			{Method: "GET", Pattern: "/agents/{id}/conversation", Handler: h.Load, OpenAPI: Spec.Load},
			{Method: "GET", Pattern: "/agents/{id}/state", Handler: h.State, OpenAPI: Spec.State},
			{Method: "POST", Pattern: "/agents/{id}/messages", Handler: h.Send, OpenAPI: Spec.Send},
			{Method: "POST", Pattern: "/reconcile", Handler: h.Reconcile, OpenAPI: Spec.Reconcile},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	convs, err := h.svc.List(r.Context(), id.UserID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	page := pagination.FromQuery(r.URL.Query(), h.pages)
	handlers.RespondJSON(w, http.StatusOK, pagination.Slice(convs, page))
}

func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	conv, err := h.svc.Load(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, conv)
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	state := h.svc.State(id.UserID, r.PathValue("id"))
	handlers.RespondJSON(w, http.StatusOK, map[string]State{"state": state})
}

type sendRequest struct {
	Text string `json:"text"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	agentID := r.PathValue("id")

	var (
		in  SendInput
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		in, err = h.readMultipart(w, r, id.UserID, agentID)
	} else {
		var req sendRequest
		err = handlers.DecodeJSON(r, maxJSONBody, &req)
		in.Text = req.Text
	}
	if err != nil {
		handlers.RespondError(w, h.logger, statusOf(err), err)
		return
	}

	result, err := h.svc.Send(r.Context(), id.UserID, agentID, in)
	if err != nil {
		h.discard(r.Context(), in)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	report, err := h.svc.Reconcile(r.Context(), id.UserID)
	if err != nil && report == nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) readMultipart(w http.ResponseWriter, r *http.Request, userID, agentID string) (SendInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return SendInput{}, fmt.Errorf("%w: %v", handlers.ErrInvalidBody, err)
	}
	defer r.MultipartForm.RemoveAll()

	in := SendInput{Text: r.FormValue("text")}
	prefix := path.Join("attachments", userID, agentID)

	for _, fh := range r.MultipartForm.File["files"] {
		ref, size, err := h.store(r.Context(), prefix, fh)
		if err != nil {
			h.discard(r.Context(), in)
			return SendInput{}, err
		}
		in.Files = append(in.Files, FileInput{
			Name:     fh.Filename,
			MimeType: webhook.ResolveMimeType(fh.Filename, declaredType(fh)),
			Size:     size,
			Ref:      ref,
		})
	}

	if audio := r.MultipartForm.File["audio"]; len(audio) > 0 {
		duration, err := parseDuration(r.FormValue("audio_duration_ms"))
		if err != nil {
			h.discard(r.Context(), in)
			return SendInput{}, err
		}
		waveform, err := parseWaveform(r.FormValue("waveform"))
		if err != nil {
			h.discard(r.Context(), in)
			return SendInput{}, err
		}

		ref, size, err := h.store(r.Context(), prefix, audio[0])
		if err != nil {
			h.discard(r.Context(), in)
			return SendInput{}, err
		}
		in.Audio = &AudioInput{
			Ref:        ref,
			MimeType:   webhook.ResolveMimeType(audio[0].Filename, declaredType(audio[0])),
			Size:       size,
			DurationMs: duration,
			Waveform:   waveform,
		}
	}

	return in, nil
}

func (h *Handler) store(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, int64, error) {
	f, err := fh.Open()
	if err != nil {
		return "", 0, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	key := path.Join(prefix, uuid.NewString()+strings.ToLower(path.Ext(fh.Filename)))
	n, err := h.blobs.Store(ctx, key, f)
	if err != nil {
		return "", 0, err
	}
	return key, n, nil
}

// discard removes blobs written for a turn that was never recorded.
func (h *Handler) discard(ctx context.Context, in SendInput) {
	Discard(ctx, h.blobs, in, h.logger)
}

// Discard deletes the blobs a turn stored before it failed.
func Discard(ctx context.Context, blobs storage.System, in SendInput, logger *slog.Logger) {
	refs := make([]string, 0, len(in.Files)+1)
	for _, f := range in.Files {
		refs = append(refs, f.Ref)
	}
	if in.Audio != nil {
		refs = append(refs, in.Audio.Ref)
	}
	for _, ref := range refs {
		if err := blobs.Delete(ctx, ref); err != nil {
			logger.Warn("failed to discard attachment", "ref", ref, "error", err)
		}
	}
}

// declaredType is the part's Content-Type, ignoring the generic octet-stream
// that clients send when they do not know the type.
func declaredType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/octet-stream") {
		return ""
	}
	return ct
}

func parseDuration(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("%w: invalid audio_duration_ms %q", handlers.ErrInvalidBody, s)
	}
	return ms, nil
}

func parseWaveform(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var waveform []float64
	if err := json.Unmarshal([]byte(s), &waveform); err != nil {
		return nil, fmt.Errorf("%w: invalid waveform: %v", handlers.ErrInvalidBody, err)
	}
	return waveform, nil
}

func statusOf(err error) int {
	if errors.Is(err, handlers.ErrInvalidBody) {
		return http.StatusBadRequest
	}
	return MapHTTPStatus(err)
}
