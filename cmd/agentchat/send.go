package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/agent-chat/internal/chat"
	"github.com/JaimeStill/agent-chat/internal/webhook"
	"github.com/JaimeStill/agent-chat/pkg/storage"
)

type sendOptions struct {
	userID     string
	agentID    string
	text       string
	files      []string
	audio      string
	durationMs int64
	asJSON     bool
}

func newSendCmd(opts *options) *cobra.Command {
	so := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one turn to an agent and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			in, err := so.input(ctx, a.infra.Storage)
			if err != nil {
				chat.Discard(ctx, a.infra.Storage, in, a.infra.Logger)
				return err
			}

			res, err := a.module.Domain.Chat.Send(ctx, so.userID, so.agentID, in)
			if err != nil {
				chat.Discard(ctx, a.infra.Storage, in, a.infra.Logger)
				return err
			}

			if so.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Reply.Content)
			if res.DispatchError != "" {
				return fmt.Errorf("dispatch failed: %s", res.DispatchError)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&so.userID, "user", "", "user id (required)")
	f.StringVar(&so.agentID, "agent", "", "agent id (required)")
	f.StringVar(&so.text, "text", "", "message text")
	f.StringArrayVar(&so.files, "file", nil, "file to attach (repeatable)")
	f.StringVar(&so.audio, "audio", "", "voice note to attach")
	f.Int64Var(&so.durationMs, "audio-duration-ms", 0, "voice note duration in milliseconds")
	f.BoolVar(&so.asJSON, "json", false, "print the full result as JSON")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("agent")

	return cmd
}

// input copies local files into blob storage so the turn is built and
// recorded exactly as an upload through the API would be. On error the
// returned input holds whatever was stored so far.
func (so *sendOptions) input(ctx context.Context, blobs storage.System) (chat.SendInput, error) {
	in := chat.SendInput{Text: so.text}
	prefix := path.Join("attachments", so.userID, so.agentID)

	for _, p := range so.files {
		ref, size, err := storeFile(ctx, blobs, prefix, p)
		if err != nil {
			return in, err
		}
		name := filepath.Base(p)
		in.Files = append(in.Files, chat.FileInput{
			Name:     name,
			MimeType: webhook.ResolveMimeType(name, ""),
			Size:     size,
			Ref:      ref,
		})
	}

	if so.audio != "" {
		ref, size, err := storeFile(ctx, blobs, prefix, so.audio)
		if err != nil {
			return in, err
		}
		in.Audio = &chat.AudioInput{
			Ref:        ref,
			MimeType:   webhook.ResolveMimeType(so.audio, ""),
			Size:       size,
			DurationMs: so.durationMs,
		}
	}
	return in, nil
}

func storeFile(ctx context.Context, blobs storage.System, prefix, p string) (string, int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", 0, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	ref := path.Join(prefix, uuid.NewString()+strings.ToLower(filepath.Ext(p)))
	n, err := blobs.Store(ctx, ref, f)
	if err != nil {
		return "", 0, fmt.Errorf("store %s: %w", p, err)
	}
	return ref, n, nil
}
