package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atinyakov/parol/internal/kdbx"
	"github.com/atinyakov/parol/internal/models"
)

const envKDBXPassword = "PAROL_KDBX_PASSWORD"

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.kdbx>",
		Short: "Export all records to a KeePass database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			kpw, err := a.kdbxPassword(true)
			if err != nil {
				return err
			}
			if err := kdbx.ExportFile(args[0], models.NewCollectionFrom(records), kpw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(records), args[0])
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.kdbx>",
		Short: "Append all entries of a KeePass database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.password("Master password: ")
			if err != nil {
				return err
			}
			kpw, err := a.kdbxPassword(false)
			if err != nil {
				return err
			}
			c, err := kdbx.ImportFile(args[0], kpw)
			if err != nil {
				return err
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()
			n, err := a.keeper.Import(ctx, pw, c.Records())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records, %d in total\n", c.Len(), n)
			return nil
		},
	}
}

func (a *app) kdbxPassword(confirm bool) (string, error) {
	if pw, ok := os.LookupEnv(envKDBXPassword); ok {
		return pw, nil
	}
	if confirm {
		return a.newPassword("KeePass password: ")
	}
	return a.ask("KeePass password: ")
}
