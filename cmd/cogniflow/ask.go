package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/viant/cogniflow"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/runtime/execution"
	"github.com/viant/cogniflow/runtime/orchestrator"
	"github.com/viant/cogniflow/service/event"
	"github.com/viant/cogniflow/service/messaging/memory"
)

const drainTimeout = 2 * time.Second

func newAskCmd(opts *options) *cobra.Command {
	var yes bool
	var imagePath string
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Plan, review and answer a single query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(opts)
			if err != nil {
				return err
			}
			attachment, err := loadAttachment(imagePath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			srv, err := cogniflow.New(cogniflow.WithConfig(config), cogniflow.WithLogger(log.Logger))
			if err != nil {
				return err
			}
			defer srv.Close(context.Background())
			session, err := srv.NewSession()
			if err != nil {
				return err
			}
			state, err := ask(ctx, session, strings.Join(args, " "), attachment, yes, cmd.InOrStdin(), cmd.OutOrStdout(), log.Logger)
			if err != nil {
				return err
			}
			if state != execution.StateDone {
				return fmt.Errorf("task finished in state %s", state)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "execute the plan without review")
	cmd.Flags().StringVar(&imagePath, "image", "", "image file attached to the query")
	return cmd
}

func loadAttachment(path string) (*conversation.Attachment, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("unsupported attachment type %q", filepath.Ext(path))
	}
	return &conversation.Attachment{Name: filepath.Base(path), MimeType: mimeType, Data: data}, nil
}

// ask submits query, lets the operator review the plan unless autoApprove is
// set, and renders snapshots as they arrive. Snapshots travel bus → queue →
// listener so rendering never blocks the orchestrator.
func ask(ctx context.Context, session *orchestrator.Orchestrator, query string, attachment *conversation.Attachment, autoApprove bool, in io.Reader, out io.Writer, logger zerolog.Logger) (execution.ProcessState, error) {
	queue := memory.NewQueue[event.Event[*orchestrator.Snapshot]](memory.DefaultConfig())
	publisher := event.NewPublisher[*orchestrator.Snapshot](queue)
	sub := session.Subscribe(event.QueueSink(ctx, publisher, func(err error) {
		logger.Warn().Err(err).Msg("failed to queue snapshot")
	}))
	r := newRenderer(out)
	listener := event.NewListener(publisher, r.render, logger)
	listener.Start()
	defer listener.Stop()
	defer sub.Unsubscribe()

	go func() {
		<-ctx.Done()
		session.Cancel()
	}()

	wait, err := session.Submit(ctx, query, attachment)
	if err != nil {
		return session.State(), err
	}
	state, err := wait(context.Background())
	if err != nil {
		return state, err
	}
	if state == execution.StateAwaitingExecution {
		if !autoApprove && !confirm(in, r, session.Snapshot().Seq) {
			session.Cancel()
		} else {
			snapshot := session.Snapshot()
			model := snapshot.Turns[len(snapshot.Turns)-1]
			if wait, err = session.ExecutePlan(ctx, model.ID); err != nil {
				return session.State(), err
			}
			if state, err = wait(context.Background()); err != nil {
				return state, err
			}
		}
	}
	snapshot := session.Snapshot()
	r.waitFor(snapshot.Seq, drainTimeout)
	return snapshot.State, nil
}

func confirm(in io.Reader, r *renderer, seq uint64) bool {
	r.waitFor(seq, drainTimeout)
	r.printf("Execute this plan? [y/N] ")
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
