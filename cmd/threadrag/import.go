package main

import (
	"fmt"
	"os"

	"github.com/siherrmann/threadrag/core/corpus"
	"github.com/siherrmann/threadrag/database"
	"github.com/siherrmann/threadrag/helper"
	loadSql "github.com/siherrmann/threadrag/sql"
	"github.com/spf13/cobra"
)

func newImportCommand(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the file corpus into Postgres",
		Long: `Read chunks, embeddings and metadata from the data directory and
upsert them into Postgres, so later runs can use --source postgres.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := helper.NewLogger(os.Stderr, a.config.LogLevel)

			c, err := corpus.LoadFiles(cmd.Context(), a.config.DataDir, logger)
			if err != nil {
				return err
			}

			dbConfig, err := helper.NewDatabaseConfiguration()
			if err != nil {
				return err
			}
			db, err := helper.NewDatabase("threadrag", dbConfig, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := loadSql.Init(db.Instance); err != nil {
				return err
			}

			handler, err := database.NewCorpusDBHandler(db, c.Dimensions(), force)
			if err != nil {
				return err
			}
			if err := handler.Import(cmd.Context(), c); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d chunks of %d threads.\n", c.Len(), len(c.Threads()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reload the SQL functions before importing")

	return cmd
}
