package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errPasswordMismatch = errors.New("passwords do not match")

func newPasswdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			oldPw, err := a.password("Current master password: ")
			if err != nil {
				return err
			}
			newPw, err := a.newPassword("New master password: ")
			if err != nil {
				return err
			}
			a.warnWeak(newPw)

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()
			if err := a.keeper.ChangePassword(ctx, oldPw, newPw); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Master password changed")
			return nil
		},
	}
}

// newPassword prompts twice and requires both answers to match.
func (a *app) newPassword(label string) (string, error) {
	pw, err := a.ask(label)
	if err != nil {
		return "", err
	}
	confirm, err := a.ask("Repeat: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errPasswordMismatch
	}
	return pw, nil
}
