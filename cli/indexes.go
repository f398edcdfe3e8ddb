package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pantrypal/db"
)

// NewIndexesCommand creates the unique indexes and exits.
func NewIndexesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the unique MongoDB indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			store := db.New(cfg.MongoURI, cfg.MongoDatabase, log)
			if err := store.Connect(ctx); err != nil {
				return err
			}
			defer store.Disconnect(context.Background())

			if err := store.EnsureIndexes(ctx); err != nil {
				return err
			}
			for coll, key := range db.IndexKeys() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s.%s unique\n", coll, key)
			}
			return nil
		},
	}
}
