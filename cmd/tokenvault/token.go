package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrEthical07/tokenvault"
	"github.com/spf13/cobra"
)

func parseKind(s string) (tokenvault.CredentialKind, error) {
	switch strings.ToLower(s) {
	case "access", "accesstoken":
		return tokenvault.AccessToken, nil
	case "refresh", "refreshtoken":
		return tokenvault.RefreshToken, nil
	default:
		return 0, fmt.Errorf("unknown token kind %q (want access or refresh)", s)
	}
}

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Read, write and delete stored tokens",
	}
	cmd.PersistentFlags().StringP("user", "u", "", "user id")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(&cobra.Command{
		Use:   "get [access|refresh]",
		Short: "Print a stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			userID, _ := cmd.Flags().GetString("user")

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			var value string
			if kind == tokenvault.AccessToken {
				value, err = client.Tokens().GetAccessToken(cmd.Context(), userID)
			} else {
				value, err = client.Tokens().GetRefreshToken(cmd.Context(), userID)
			}
			if errors.Is(err, tokenvault.ErrNotFound) {
				return fmt.Errorf("no %s stored for %s", kind, userID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	set := &cobra.Command{
		Use:   "set [access|refresh]",
		Short: "Store a token (reads stdin when --value is omitted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			userID, _ := cmd.Flags().GetString("user")
			value, _ := cmd.Flags().GetString("value")
			if !cmd.Flags().Changed("value") {
				if value, err = readValue(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			if kind == tokenvault.AccessToken {
				err = client.Tokens().SetAccessToken(cmd.Context(), value, userID)
			} else {
				err = client.Tokens().SetRefreshToken(cmd.Context(), value, userID)
			}
			if err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "stored %s for %s", kind, userID)
			return nil
		},
	}
	set.Flags().String("value", "", "token value")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove both tokens for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Logout(cmd.Context(), userID); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "deleted tokens for %s", userID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether the stored access token needs a refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			needsRefresh, err := client.AccessTokenNeedsRefresh(cmd.Context(), userID)
			if errors.Is(err, tokenvault.ErrNotFound) {
				printWarning(cmd.OutOrStdout(), "%s is not authenticated", userID)
				return nil
			}
			if err != nil {
				return err
			}
			if needsRefresh {
				printWarning(cmd.OutOrStdout(), "access token for %s needs refresh", userID)
			} else {
				printSuccess(cmd.OutOrStdout(), "access token for %s is fresh", userID)
			}
			return nil
		},
	})

	return cmd
}

func readValue(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		return "", errors.New("empty token value")
	}
	return value, nil
}
