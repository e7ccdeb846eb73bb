package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atinyakov/parol/internal/models"
	"github.com/atinyakov/parol/internal/prompt"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add a record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.password("Master password: ")
			if err != nil {
				return err
			}
			r, err := prompt.Record(a.in, a.errOut, models.NewRecord())
			if err != nil {
				return err
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()
			n, err := a.keeper.Add(ctx, pw, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %d added\n", n-1)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List records without passwords",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.password("Master password: ")
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()
			records, err := a.keeper.List(ctx, pw)
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), records)
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "show <index>",
		Short: "Show one record",
		Long: `Show one record. The password is masked unless --reveal is given.

Example:
  parol show 0 --reveal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			pw, err := a.password("Master password: ")
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()
			r, err := a.keeper.Get(ctx, pw, idx)
			if err != nil {
				return err
			}

			secret := "********"
			if reveal {
				secret = r.Password
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Application: %s\n", r.Application)
			fmt.Fprintf(out, "Username:    %s\n", r.Username)
			fmt.Fprintf(out, "Password:    %s\n", secret)
			fmt.Fprintf(out, "Notes:       %s\n", r.Notes)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&reveal, "reveal", "r", false, "print the password in clear")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <index>",
		Short: "Edit a record; empty answers keep a field, \"-\" clears it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			pw, err := a.password("Master password: ")
			if err != nil {
				return err
			}

			current, err := a.get(cmd, pw, idx)
			if err != nil {
				return err
			}
			r, err := prompt.Record(a.in, a.errOut, current)
			if err != nil {
				return err
			}

			// The lock timeout starts only after the user is done typing.
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()
			if err := a.keeper.Replace(ctx, pw, idx, current, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %d updated\n", idx)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"delete"},
		Short:   "Remove a record; later records move down by one",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			pw, err := a.password("Master password: ")
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()
			r, err := a.keeper.Remove(ctx, pw, idx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record %d (%s) removed\n", idx, r.Application)
			return nil
		},
	}
}

func (a *app) get(cmd *cobra.Command, pw string, idx int) (models.Record, error) {
	ctx, cancel := a.withTimeout(cmd)
	defer cancel()
	return a.keeper.Get(ctx, pw, idx)
}

func parseIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid index %q: must be a non-negative integer", s)
	}
	return idx, nil
}

func printTable(w io.Writer, records []models.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tAPPLICATION\tUSERNAME\tNOTES")
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, r.Application, r.Username, r.Notes)
	}
	return tw.Flush()
}
