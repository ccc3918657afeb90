package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/pbadmin/internal/dataprovider"
	"github.com/me/pbadmin/pkg/model"
)

// listFlags are the paging, sorting and filter flags shared by list and refs.
type listFlags struct {
	page    int
	perPage int
	sort    string
	order   string
	filters []string
	asJSON  bool
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", model.DefaultPage, "Page number (1-based)")
	cmd.Flags().IntVar(&f.perPage, "per-page", model.DefaultPerPage, "Records per page")
	cmd.Flags().StringVar(&f.sort, "sort", "id", "Sort field")
	cmd.Flags().StringVar(&f.order, "order", "ASC", "Sort order (ASC or DESC)")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "Filter field=value (repeatable); strings match by substring")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print raw JSON")
}

func (f *listFlags) params() (dataprovider.ListParams, error) {
	page := model.PageSpec{Page: f.page, PerPage: f.perPage}
	if err := page.Validate(); err != nil {
		return dataprovider.ListParams{}, err
	}
	order, err := model.ParseOrder(f.order)
	if err != nil {
		return dataprovider.ListParams{}, err
	}
	filter, err := parseFilters(f.filters)
	if err != nil {
		return dataprovider.ListParams{}, err
	}
	return dataprovider.ListParams{
		Pagination: page,
		Sort:       model.SortSpec{Field: f.sort, Order: order},
		Filter:     filter,
	}, nil
}

// parseFilters turns field=value arguments into a FilterSpec. true/false
// become booleans and numeric literals become numbers; everything else
// stays a string.
func parseFilters(args []string) (model.FilterSpec, error) {
	spec := model.NewFilterSpec()
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q (want field=value)", arg)
		}
		spec = spec.With(field, parseLiteral(value))
	}
	return spec, nil
}

func parseLiteral(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	var n json.Number
	if err := json.Unmarshal([]byte(s), &n); err == nil {
		return n
	}
	return s
}

func printListResult(cmd *cobra.Command, res dataprovider.ListResult, f *listFlags) error {
	out := cmd.OutOrStdout()
	if f.asJSON {
		return printJSON(out, res)
	}
	if len(res.Data) == 0 {
		fmt.Fprintln(out, "No records found.")
		return nil
	}
	printRecords(out, res.Data)

	pg := model.NewPagination(res.Total, model.PageSpec{Page: f.page, PerPage: f.perPage})
	if pg.HasMore || pg.Page > 1 {
		fmt.Fprintf(out, "\n(page %d, %d of %d shown)\n", pg.Page, len(res.Data), res.Total)
	}
	return nil
}

func newListCmd() *cobra.Command {
	var f listFlags

	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List records of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			params, err := f.params()
			if err != nil {
				return err
			}
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			res, err := app.Provider.GetList(ctx, args[0], params)
			if err != nil {
				return app.checkError(ctx, err)
			}
			return printListResult(cmd, res, &f)
		},
	}
	f.register(cmd)
	return cmd
}

func newRefsCmd() *cobra.Command {
	var f listFlags

	cmd := &cobra.Command{
		Use:   "refs <resource> <target> <id>",
		Short: "List records whose target field references id",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			params, err := f.params()
			if err != nil {
				return err
			}
			if err := app.requireSession(ctx); err != nil {
				return err
			}

			res, err := app.Provider.GetManyReference(ctx, args[0], dataprovider.ReferenceParams{
				ListParams: params,
				Target:     args[1],
				ID:         args[2],
			})
			if err != nil {
				return app.checkError(ctx, err)
			}
			return printListResult(cmd, res, &f)
		},
	}
	f.register(cmd)
	return cmd
}
