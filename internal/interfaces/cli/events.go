package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/Musaid-NLQ/internal/application/query"
	"github.com/turtacn/Musaid-NLQ/internal/bootstrap"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// EventSource delivers consumed turn-completed messages to a handler until
// ctx ends.
type EventSource interface {
	Subscribe(topic string, handler kafka.MessageHandler)
	Start(ctx context.Context) error
	Close() error
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the turn-completed event stream",
	}
	cmd.AddCommand(newEventsTailCmd(nil))
	return cmd
}

// newEventsTailCmd builds the tail command. A nil source means a Kafka
// consumer built from the configuration.
func newEventsTailCmd(source EventSource) *cobra.Command {
	var (
		groupID       string
		fromBeginning bool
		limit         int
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print turn-completed events as they are published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			kcfg := cliCtx.Config.Kafka
			src := source
			if src == nil {
				if !kcfg.Enabled || len(kcfg.Brokers) == 0 {
					return errors.New(errors.ErrCodeInvalidParam, "kafka is not enabled in the configuration")
				}
				if groupID == "" {
					groupID = kcfg.GroupID
				}
				offset := "latest"
				if fromBeginning {
					offset = "earliest"
				}
				src, err = kafka.NewConsumer(kafka.ConsumerConfig{
					Brokers:         kcfg.Brokers,
					GroupID:         groupID,
					Topics:          []string{kcfg.TurnTopic},
					AutoOffsetReset: offset,
					Security:        bootstrap.KafkaSecurity(kcfg),
				}, cliCtx.Logger)
				if err != nil {
					return err
				}
			}
			defer src.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return tailEvents(ctx, cmd, cliCtx.Logger, src, kcfg.TurnTopic, limit, stop)
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "consumer group (default from config)")
	cmd.Flags().BoolVar(&fromBeginning, "from-beginning", false, "start at the earliest retained event for a new group")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "stop after n events (0 means until interrupted)")
	return cmd
}

// tailEvents prints each turn event. Malformed messages are logged and
// skipped so one bad record does not stall the tail.
func tailEvents(ctx context.Context, cmd *cobra.Command, logger logging.Logger, src EventSource, topic string, limit int, stop func()) error {
	seen := 0
	src.Subscribe(topic, func(_ context.Context, msg *kafka.Message) error {
		env, err := kafka.MessageToEventEnvelope(msg)
		if err != nil {
			logger.Warn("skipping malformed event", logging.Int64("offset", msg.Offset), logging.Err(err))
			return nil
		}
		if env.EventType != kafka.EventTurnCompleted {
			return nil
		}
		var ev query.TurnEvent
		if err := env.DecodePayload(&ev); err != nil {
			logger.Warn("skipping undecodable event", logging.String("event_id", env.EventID), logging.Err(err))
			return nil
		}
		if err := PrintResult(cmd, turnEventView{TurnEvent: ev, Partition: msg.Partition, Offset: msg.Offset}); err != nil {
			return err
		}
		seen++
		if limit > 0 && seen >= limit {
			stop()
		}
		return nil
	})

	if err := src.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

//Personal.AI order the ending
