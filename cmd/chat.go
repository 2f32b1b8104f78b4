package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"maidchan/pkg/assistant"
	"maidchan/pkg/bus"
	"maidchan/pkg/config"
	"maidchan/pkg/logger"
	"maidchan/pkg/ui/chat"

	"github.com/spf13/cobra"
)

const cliChannelName = "cli"

var (
	chatUser    string
	chatID      string
	chatUseTUI  bool
	messageText string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the assistant from the terminal",
	Long:  "Sends one message through the rules, or starts an interactive session when no message is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := resolveMessage(args)

		cfg, err := config.LoadOrDefault()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		if chatUseTUI {
			appLogger = logger.Discard()
		}

		maid, err := newAssistant(cfg, nil, appLogger)
		if err != nil {
			return err
		}

		session := &chatSession{
			assistant: maid,
			user:      chatUser,
			chat:      chatID,
			log:       appLogger.With("component", "cmd.chat"),
		}

		ctx := cmd.Context()
		if chatUseTUI {
			if text != "" {
				return chat.RunOneShot(ctx, session.reply, text, session.info())
			}
			return chat.RunInteractive(ctx, session.reply, session.info())
		}

		out := cmd.OutOrStdout()
		if text != "" {
			session.send(ctx, out, text)
			return nil
		}

		return session.repl(ctx, cmd.InOrStdin(), out)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&messageText, "message", "m", "", "message text to send")
	chatCmd.Flags().StringVar(&chatUser, "user", "me", "sender id used for mentions")
	chatCmd.Flags().StringVar(&chatID, "chat", cliChannelName, "chat id used to pick rule scopes")
	chatCmd.Flags().BoolVar(&chatUseTUI, "tui", false, "use the full-screen playground")
}

// chatSession sends terminal input through the assistant as one chat member.
type chatSession struct {
	assistant *assistant.Assistant
	user      string
	chat      string
	log       *slog.Logger
}

func (s *chatSession) inbound(text string) bus.InboundMessage {
	return bus.InboundMessage{
		Channel:  cliChannelName,
		SenderID: s.user,
		ChatID:   s.chat,
		Content:  text,
	}
}

func (s *chatSession) reply(ctx context.Context, text string) (chat.Reply, error) {
	reply, _ := s.assistant.Respond(ctx, s.inbound(text))
	return chat.Reply{Text: reply.Text, Rule: reply.Rule, Scope: reply.Scope.String()}, nil
}

func (s *chatSession) info() chat.RuntimeInfo {
	scopes := s.assistant.Scopes(s.chat)
	names := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		names = append(names, scope.String())
	}

	return chat.RuntimeInfo{
		Assistant: s.assistant.Name(),
		Chat:      s.chat,
		User:      s.user,
		Scopes:    names,
		Rules:     s.assistant.Registry().Len(),
	}
}

func (s *chatSession) send(ctx context.Context, out io.Writer, text string) {
	reply, ok := s.assistant.Respond(ctx, s.inbound(text))
	if !ok {
		s.log.Debug("No reply", "rule", reply.Rule, "request_id", reply.RequestID)
		return
	}

	printAssistantMessage(out, s.assistant.Name(), reply.Text)
}

func (s *chatSession) repl(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(out)
			return nil
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if chat.IsExitCommand(text) {
			return nil
		}

		s.send(ctx, out, text)
	}
}

func resolveMessage(args []string) string {
	if value := strings.TrimSpace(messageText); value != "" {
		return value
	}

	if len(args) == 0 {
		return ""
	}

	return strings.TrimSpace(strings.Join(args, " "))
}

func printAssistantMessage(out io.Writer, name string, message string) {
	lines := assistantLines(message)
	for _, line := range lines {
		fmt.Fprintf(out, "%s: %s\n", name, line)
	}
	if len(lines) > 0 {
		fmt.Fprintln(out)
	}
}

func assistantLines(message string) []string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "\n")
}

