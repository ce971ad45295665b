package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	sqlserver "github.com/jchilcher/sqlserver"
)

func newSelectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select QUERY",
		Short: "Run a query and print its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(cmd.Context(), func(c *sqlserver.Client) error {
				rs, err := c.Query(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRows(cmd.OutOrStdout(), rs)
				return nil
			})
		},
	}
}

func newExecCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec QUERY [ARG...]",
		Short: "Run a parameterized write and commit it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := make([]interface{}, len(args)-1)
			for i, a := range args[1:] {
				params[i] = opts.value(a)
			}
			return opts.withClient(cmd.Context(), func(c *sqlserver.Client) error {
				n, err := c.Update(cmd.Context(), args[0], params...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
				return nil
			})
		},
	}
}

func newInsertCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insert TABLE COLUMN=VALUE...",
		Short: "Insert one row",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := parseAssignments(opts, args[1:])
			if err != nil {
				return err
			}
			return opts.withClient(cmd.Context(), func(c *sqlserver.Client) error {
				n, err := c.Insert(cmd.Context(), args[0], cols)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
				return nil
			})
		},
	}
}

func newUpsertCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upsert TABLE KEY KEYVALUE COLUMN=VALUE...",
		Short: "Update the row whose KEY equals KEYVALUE, or insert it",
		Long: "Update the row whose KEY equals KEYVALUE, or insert it.\n" +
			"KEYVALUE is compared as an integer when it parses as one, otherwise as text.",
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := parseAssignments(opts, args[3:])
			if err != nil {
				return err
			}
			var key interface{} = args[2]
			if n, err := strconv.ParseInt(args[2], 10, 64); err == nil {
				key = n
			}
			return opts.withClient(cmd.Context(), func(c *sqlserver.Client) error {
				n, err := c.Upsert(cmd.Context(), args[0], args[1], key, cols)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
				return nil
			})
		},
	}
}

func newBulkCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bulk TABLE FILE.csv",
		Short: "Insert every row of a CSV file; the header row names the columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := readCSV(opts, f)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			return opts.withClient(cmd.Context(), func(c *sqlserver.Client) error {
				n, err := c.BulkInsert(cmd.Context(), args[0], rows)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d rows inserted\n", n)
				return nil
			})
		},
	}
}

func parseAssignments(opts *rootOptions, args []string) (sqlserver.Columns, error) {
	var cols sqlserver.Columns
	for _, a := range args {
		name, val, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected COLUMN=VALUE, got %q", a)
		}
		cols = cols.Set(name, opts.value(val))
	}
	return cols, nil
}

func readCSV(opts *rootOptions, r io.Reader) ([]sqlserver.Columns, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}
	var rows []sqlserver.Columns
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		cols := make(sqlserver.Columns, len(header))
		for i, name := range header {
			cols[i] = sqlserver.Column{Name: name, Value: opts.value(rec[i])}
		}
		rows = append(rows, cols)
	}
	return rows, nil
}

func printRows(w io.Writer, rs *sqlserver.ResultSet) {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader(rs.Columns)

	row := make([]string, len(rs.Columns))
	for _, r := range rs.Rows {
		for i, v := range r {
			if v == nil {
				row[i] = "NULL"
				continue
			}
			row[i] = fmt.Sprint(v)
		}
		tw.Append(row)
	}
	tw.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rs.Rows))
}
