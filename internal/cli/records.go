package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/pbadmin/pkg/model"
)

// parseData decodes a --data flag holding a JSON object.
func parseData(s string) (model.Record, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("--data is required")
	}
	var data model.Record
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, fmt.Errorf("parse --data: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("--data must be a JSON object")
	}
	return data, nil
}

func newGetCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <resource> <id> [id...]",
		Short: "Show one record, or several by id",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireSession(ctx); err != nil {
				return err
			}
			resource, ids := args[0], args[1:]
			out := cmd.OutOrStdout()

			if len(ids) == 1 {
				rec, err := app.Provider.GetOne(ctx, resource, ids[0])
				if err != nil {
					return app.checkError(ctx, err)
				}
				if asJSON {
					return printJSON(out, rec)
				}
				printRecord(out, rec)
				return nil
			}

			recs, err := app.Provider.GetMany(ctx, resource, ids)
			if err != nil {
				return app.checkError(ctx, err)
			}
			if asJSON {
				return printJSON(out, recs)
			}
			printRecords(out, recs)
			if len(recs) < len(ids) {
				fmt.Fprintf(out, "\n(%d of %d ids found)\n", len(recs), len(ids))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	return cmd
}

func newCreateCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "create <resource>",
		Short: "Create a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fields, err := parseData(data)
			if err != nil {
				return err
			}
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			rec, err := app.Provider.Create(ctx, args[0], fields)
			if err != nil {
				return app.checkError(ctx, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %v\n", args[0], rec.ID())
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "Record fields as a JSON object")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "update <resource> <id> [id...]",
		Short: "Update one or more records with the same fields",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fields, err := parseData(data)
			if err != nil {
				return err
			}
			if err := app.requireSession(ctx); err != nil {
				return err
			}
			resource, ids := args[0], args[1:]

			if len(ids) == 1 {
				rec, err := app.Provider.Update(ctx, resource, ids[0], fields)
				if err != nil {
					return app.checkError(ctx, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %v\n", resource, rec.ID())
				return nil
			}

			done, err := app.Provider.UpdateMany(ctx, resource, ids, fields)
			if err != nil {
				return app.checkError(ctx, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d %s records: %s\n", len(done), resource, strings.Join(done, ", "))
			return nil
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "Fields to set as a JSON object")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <resource> <id> [id...]",
		Short: "Delete one or more records",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.requireSession(ctx); err != nil {
				return err
			}
			resource, ids := args[0], args[1:]

			if len(ids) == 1 {
				rec, err := app.Provider.Delete(ctx, resource, ids[0])
				if err != nil {
					return app.checkError(ctx, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %v\n", resource, rec.ID())
				return nil
			}

			done, err := app.Provider.DeleteMany(ctx, resource, ids)
			if err != nil {
				return app.checkError(ctx, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s records: %s\n", len(done), resource, strings.Join(done, ", "))
			return nil
		},
	}
}
