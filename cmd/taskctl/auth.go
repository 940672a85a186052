package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskapp/pkg/client"
)

// readPassword takes --password when given, otherwise the first line of stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("password is required")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register USERNAME",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			reg := client.Registration{Username: args[0], Password: password}
			if phone, _ := cmd.Flags().GetString("phone"); phone != "" {
				reg.Phone = &phone
			}
			if pic, _ := cmd.Flags().GetString("picture-url"); pic != "" {
				reg.ProfilePictureURL = &pic
			}
			_, err = c.ctrl.Register(cmd.Context(), reg)
			return err
		},
	}
	cmd.Flags().String("password", "", "password (read from stdin when omitted)")
	cmd.Flags().String("phone", "", "optional phone number")
	cmd.Flags().String("picture-url", "", "optional profile picture URL")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login USERNAME",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			_, err = c.ctrl.Login(cmd.Context(), args[0], password)
			return err
		},
	}
	cmd.Flags().String("password", "", "password (read from stdin when omitted)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.ctrl.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.requireLogin()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", id.Username, id.ID)
			return nil
		},
	}
}
