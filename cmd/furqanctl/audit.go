// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/moderation"
	"github.com/taibuivan/alfurqan/internal/platform/constants"
)

func auditCmd(opts *options) *cobra.Command {
	var (
		kind, id, actor, action string
		since                   time.Duration
		limit                   int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print audit events as JSON lines",
		Long: `Print audit events as JSON lines.

With --id, prints the full history of one item, oldest first. Otherwise
prints the newest events matching the filters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := auditFilter(kind, actor, action, since, limit, time.Now())
			if err != nil {
				return err
			}
			if id != "" && filter.ContentType == "" {
				return fmt.Errorf("--id requires --type")
			}

			return opts.connect(cmd, func(pool *pgxpool.Pool) error {
				store := moderation.NewPostgresStore(pool)

				var found []moderation.Event
				if id != "" {
					found, err = store.History(cmd.Context(), filter.ContentType, id)
				} else {
					found, err = store.Events(cmd.Context(), filter)
				}
				if err != nil {
					return err
				}

				encoder := json.NewEncoder(cmd.OutOrStdout())
				for _, event := range found {
					if err := encoder.Encode(event); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "Content type")
	cmd.Flags().StringVar(&id, "id", "", "Item id (requires --type)")
	cmd.Flags().StringVar(&actor, "actor", "", "Actor user id")
	cmd.Flags().StringVar(&action, "action", "", "submitted, decided, revised or deleted")
	cmd.Flags().DurationVar(&since, "since", 0, "Only events newer than this, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", constants.MaxListLimit, "Maximum number of events")
	return cmd
}

// auditFilter turns flag values into a filter, validating the enumerations.
func auditFilter(kind, actor, action string, since time.Duration, limit int, now time.Time) (moderation.AuditFilter, error) {
	filter := moderation.AuditFilter{ActorID: actor, Limit: limit}

	if kind != "" {
		parsed, err := content.ParseKind(kind)
		if err != nil {
			return filter, fmt.Errorf("unknown content type %q", kind)
		}
		filter.ContentType = parsed
	}

	switch moderation.Action(action) {
	case "", moderation.ActionSubmitted, moderation.ActionDecided, moderation.ActionRevised, moderation.ActionDeleted:
		filter.Action = moderation.Action(action)
	default:
		return filter, fmt.Errorf("unknown action %q", action)
	}

	if since > 0 {
		filter.Since = now.Add(-since)
	}
	return filter, nil
}

func queueCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the review queue",
	}

	var kind string
	depth := &cobra.Command{
		Use:   "depth",
		Short: "Count items waiting for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter content.Kind
			if kind != "" {
				parsed, err := content.ParseKind(kind)
				if err != nil {
					return fmt.Errorf("unknown content type %q", kind)
				}
				filter = parsed
			}

			return opts.connect(cmd, func(pool *pgxpool.Pool) error {
				queue := moderation.NewQueue(moderation.NewPostgresStore(pool), constants.QueuePageSize)
				count, err := queue.Depth(cmd.Context(), filter)
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "%d\n", count)
				return nil
			})
		},
	}
	depth.Flags().StringVar(&kind, "type", "", "Content type (all when empty)")
	cmd.AddCommand(depth)

	return cmd
}
