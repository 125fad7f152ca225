package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/prompts"
)

var schemaJSON bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the database schema",
	Long: `Inspect the configured database: collections, document counts, field
types inferred from sample documents, and indexes.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "Output the schema as JSON")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := GetConfigFromContext(cmd)
	if err != nil {
		return err
	}

	client, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(ctx) }()

	schema, err := client.Schema(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to introspect schema")
	}

	out := cmd.OutOrStdout()

	if schemaJSON {
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeInternal, "failed to encode schema")
		}

		fmt.Fprintln(out, string(data))

		return nil
	}

	fmt.Fprintln(out, prompts.FormatSchema(schema))

	return nil
}
