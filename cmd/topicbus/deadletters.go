package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/randalmurphal/topicbus/pkg/topicbus/deadletter"
	"github.com/spf13/cobra"
)

func deadLettersCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:     "deadletters",
		Aliases: []string{"dl"},
		Short:   "Inspect the dead-letter journal",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "dead-letter journal path (default: dead_letters in config)")

	openStore := func() (*deadletter.SQLiteStore, error) {
		path := dbPath
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return nil, err
			}
			path = cfg.DeadLetterPath()
		}
		if path == "" {
			return nil, errors.New("no journal: pass --db or set dead_letters in config")
		}
		return deadletter.NewSQLiteStore(path)
	}

	cmd.AddCommand(deadLettersListCmd(openStore))
	cmd.AddCommand(deadLettersCountCmd(openStore))
	cmd.AddCommand(deadLettersDeleteCmd(openStore))
	return cmd
}

type storeOpener func() (*deadletter.SQLiteStore, error)

func deadLettersListCmd(open storeOpener) *cobra.Command {
	var (
		topic string
		limit int
		raw   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal records, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			var records []deadletter.Record
			if topic != "" {
				records, err = store.ListByTopic(topic, limit)
			} else {
				records, err = store.List(limit)
			}
			if err != nil {
				return err
			}

			if raw {
				for _, rec := range records {
					fmt.Fprintln(cmd.OutOrStdout(), string(rec.Envelope))
				}
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RECORDED\tENVELOPE\tTOPIC\tREASON\tDETAIL")
			for _, rec := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					rec.RecordedAt.Format(time.RFC3339), rec.EnvelopeID, rec.Topic, rec.Reason, rec.Detail)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "only records for this topic")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to print (0 = all)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the stored envelope JSON, one per line")
	return cmd
}

func deadLettersCountCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of journal records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func deadLettersDeleteCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <envelope-id>...",
		Short: "Remove journal records for envelope IDs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.Delete(id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
			}
			logger.Info("deleted dead letters", "count", len(args))
			return nil
		},
	}
}
