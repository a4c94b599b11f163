package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/CdubVentures/spec-harvester-sub006/internal/queue"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and maintain the product queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list <category>",
	Short: "List every selectable queue row, highest priority first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := db.QueueRowsByCategory(args[0])
		if err != nil {
			return err
		}
		for _, r := range queue.SortSelectable(rows, time.Now()) {
			fmt.Printf("%-20s status=%-12s priority=%d attempts=%d rounds=%d\n",
				r.ProductID, r.Status, r.Priority, r.AttemptsTotal, r.RoundsCompleted)
		}
		return nil
	},
}

var queueNextCmd = &cobra.Command{
	Use:   "next <category>",
	Short: "Print the next product the queue would select",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := db.QueueRowsByCategory(args[0])
		if err != nil {
			return err
		}
		next := queue.SelectNext(rows, time.Now())
		if next == nil {
			fmt.Println("no selectable row")
			return nil
		}
		fmt.Println(next.ProductID)
		return nil
	},
}

var queueStaleCmd = &cobra.Command{
	Use:   "sweep-stale <category>",
	Short: "Move completed rows older than --after-days into the stale state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := args[0]
		rows, err := db.QueueRowsByCategory(category)
		if err != nil {
			return err
		}
		moved := queue.MarkStale(rows, staleAfterDays, time.Now())
		for _, r := range rows {
			if err := db.UpsertQueueRow(category, r); err != nil {
				return err
			}
		}
		fmt.Printf("moved %d rows to stale\n", len(moved))
		for _, id := range moved {
			fmt.Println("  -", id)
		}
		return nil
	},
}

var staleAfterDays int

func init() {
	queueStaleCmd.Flags().IntVar(&staleAfterDays, "after-days", 30, "days since last_completed_at before a complete row goes stale")
	queueCmd.AddCommand(queueListCmd, queueNextCmd, queueStaleCmd)
}
