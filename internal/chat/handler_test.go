package chat_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/agent-chat/internal/auth"
	"github.com/JaimeStill/agent-chat/internal/chat"
	"github.com/JaimeStill/agent-chat/internal/conversations"
	"github.com/JaimeStill/agent-chat/pkg/logging"
	"github.com/JaimeStill/agent-chat/pkg/pagination"
	"github.com/JaimeStill/agent-chat/pkg/routes"
	"github.com/JaimeStill/agent-chat/pkg/storage"
)

func newAPI(t *testing.T, h *harness) (http.Handler, storage.System) {
	t.Helper()

	cfg := &storage.Config{BasePath: t.TempDir(), MaxUploadSize: "1MB"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("storage config: %v", err)
	}
	blobs, err := storage.New(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	// Attachments written by the handler are read back by the builder.
	h.svc = newServiceWithReader(t, h, blobReader{blobs})

	r := routes.New(logging.Discard())
	r.RegisterGroup(chat.NewHandler(h.svc, blobs, 4<<20, pagination.Config{DefaultPageSize: 10, MaxPageSize: 50}, logging.Discard()).Routes())
	return r.Build(), blobs
}

type blobReader struct{ s storage.System }

func (b blobReader) ReadBlob(ctx context.Context, ref string) ([]byte, error) {
	return b.s.Retrieve(ctx, ref)
}

func authed(r *http.Request) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: userID, Role: "user"}))
}

func TestHandler_SendJSON(t *testing.T) {
	srv := webhookServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"message":"Hi there"}`)
	})
	h := newHarness(t, srv.URL)
	api, _ := newAPI(t, h)

	req := authed(httptest.NewRequest(http.MethodPost, "/agents/a1/messages", strings.NewReader(`{"text":"Hallo"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var res chat.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Reply.Content != "Hi there" || res.Conversation.Preview != "Hi there" {
		t.Errorf("result = %+v", res)
	}
}

func TestHandler_SendMultipart(t *testing.T) {
	var got struct {
		message string
		file    []byte
		audio   []byte
		dur     string
	}
	srv := webhookServer(t, func(w http.ResponseWriter, r *http.Request) {
		got.message = r.FormValue("message")
		got.dur = r.FormValue("audioDurationMs")
		if f, _, err := r.FormFile("attachment_0"); err == nil {
			got.file, _ = io.ReadAll(f)
		}
		if f, _, err := r.FormFile("audio"); err == nil {
			got.audio, _ = io.ReadAll(f)
		}
		io.WriteString(w, "received")
	})
	h := newHarness(t, srv.URL)
	api, _ := newAPI(t, h)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("files", "report.pdf")
	fw.Write([]byte("%PDF-1.4"))
	aw, _ := mw.CreateFormFile("audio", "note.webm")
	aw.Write([]byte("webm-bytes"))
	mw.WriteField("audio_duration_ms", "1500")
	mw.WriteField("waveform", "[0.1,0.5]")
	mw.Close()

	req := authed(httptest.NewRequest(http.MethodPost, "/agents/a1/messages", &body))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got.message != "Audio-Nachricht" {
		t.Errorf("message = %q, want audio placeholder", got.message)
	}
	if string(got.file) != "%PDF-1.4" || string(got.audio) != "webm-bytes" || got.dur != "1500" {
		t.Errorf("webhook received file %q audio %q duration %q", got.file, got.audio, got.dur)
	}

	var res chat.Result
	json.NewDecoder(rec.Body).Decode(&res)
	atts := res.Message.Attachments
	if len(atts) != 2 || atts[0].Kind != conversations.KindFile || atts[1].Kind != conversations.KindAudio {
		t.Fatalf("attachments = %+v", atts)
	}
	if !strings.HasPrefix(atts[0].Ref, "attachments/u1/a1/") || atts[0].MimeType != "application/pdf" {
		t.Errorf("file attachment = %+v", atts[0])
	}
	if atts[1].DurationSeconds == nil || *atts[1].DurationSeconds != 1.5 {
		t.Errorf("audio duration = %v, want 1.5", atts[1].DurationSeconds)
	}
}

func TestHandler_FailedSendDiscardsBlobs(t *testing.T) {
	h := newHarness(t, "")
	api, blobs := newAPI(t, h)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("files", "report.pdf")
	fw.Write([]byte("%PDF-1.4"))
	mw.Close()

	req := authed(httptest.NewRequest(http.MethodPost, "/agents/a1/messages", &body))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 for missing endpoint: %s", rec.Code, rec.Body)
	}
	if ok, _ := blobs.Exists(context.Background(), "attachments"); ok {
		t.Error("attachments were left in storage")
	}
}

func TestHandler_Errors(t *testing.T) {
	h := newHarness(t, "http://unused.invalid")
	api, _ := newAPI(t, h)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"empty turn", "/agents/a1/messages", `{"text":""}`, http.StatusBadRequest},
		{"unknown field", "/agents/a1/messages", `{"txt":"x"}`, http.StatusBadRequest},
		{"unknown agent", "/agents/zz/messages", `{"text":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authed(httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			rec := httptest.NewRecorder()
			api.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
		})
	}
}

func TestHandler_LoadStateReconcile(t *testing.T) {
	h := newHarness(t, "")
	api, _ := newAPI(t, h)

	do := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, authed(httptest.NewRequest(method, path, nil)))
		return rec
	}

	if rec := do(http.MethodGet, "/agents/a1/state"); !strings.Contains(rec.Body.String(), `"absent"`) {
		t.Errorf("state before load = %s", rec.Body)
	}

	rec := do(http.MethodGet, "/agents/a1/conversation")
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d: %s", rec.Code, rec.Body)
	}
	var conv conversations.Conversation
	json.NewDecoder(rec.Body).Decode(&conv)
	if len(conv.Messages) != 1 || conv.ID == "" {
		t.Errorf("loaded = %+v", conv)
	}

	if rec := do(http.MethodGet, "/agents/a1/state"); !strings.Contains(rec.Body.String(), `"loaded"`) {
		t.Errorf("state after load = %s", rec.Body)
	}

	if rec := do(http.MethodGet, "/conversations?page_size=5"); rec.Code != http.StatusOK ||
		!strings.Contains(rec.Body.String(), conv.ID) || !strings.Contains(rec.Body.String(), `"page_size":5`) {
		t.Errorf("list = %d %s", rec.Code, rec.Body)
	}

	rec = do(http.MethodPost, "/reconcile")
	var report chat.Report
	json.NewDecoder(rec.Body).Decode(&report)
	if rec.Code != http.StatusOK || report.UserID != userID {
		t.Errorf("reconcile = %d %+v", rec.Code, report)
	}
}
