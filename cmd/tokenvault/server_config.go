package main

import (
	"fmt"
	"sort"

	"github.com/MrEthical07/tokenvault/serverconfig"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newServerConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server-config",
		Short: "Inspect the server's advertised configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Fetch and print the server configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			cfg, err := client.ServerConfig(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printInfo(w, "version:  %s", cfg.Version)
			printInfo(w, "git hash: %s", cfg.GitHash)
			if cfg.Server != nil {
				printInfo(w, "server:   %s (%s)", cfg.Server.Name, cfg.Server.URL)
			}
			if cfg.Environment != nil {
				printInfo(w, "vault:    %s", cfg.Environment.Vault)
				printInfo(w, "api:      %s", cfg.Environment.API)
				printInfo(w, "identity: %s", cfg.Environment.Identity)
			}

			names := make([]string, 0, len(cfg.FeatureStates))
			for name := range cfg.FeatureStates {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "    %s = %v\n", name, cfg.FeatureStates[name])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "supports [min-version]",
		Short: "Check whether the server version is at least min-version",
		Long: fmt.Sprintf(`Check whether the server version is at least min-version.
Without an argument, checks cipher key encryption (%s).
Exits non-zero when unsupported.`, serverconfig.MinVersionCipherKeyEncryption),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			minVersion := serverconfig.MinVersionCipherKeyEncryption
			if len(args) == 1 {
				minVersion = args[0]
			}

			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			if client.SupportsCapability(cmd.Context(), minVersion) {
				printSuccess(cmd.OutOrStdout(), "server supports %s", minVersion)
				return nil
			}
			return fmt.Errorf("server does not support %s", color.YellowString(minVersion))
		},
	})

	return cmd
}
