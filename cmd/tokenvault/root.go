package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/tokenvault"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cliConfig mirrors .tokenvault.yaml.
type cliConfig struct {
	Keychain struct {
		Namespace string `mapstructure:"namespace"`
		AppID     string `mapstructure:"app_id"`
	} `mapstructure:"keychain"`

	Store storeConfig `mapstructure:"store"`

	Server struct {
		BaseURL    string        `mapstructure:"base_url"`
		ConfigPath string        `mapstructure:"config_path"`
		Timeout    time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// app carries the per-invocation state shared by subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     cliConfig
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: logrus.New()}

	root := &cobra.Command{
		Use:   "tokenvault",
		Short: "Inspect and manage stored client credentials",
		Long: `tokenvault reads and writes per-user access and refresh tokens in a secure
store (OS keychain, encrypted file, or Redis), and checks server capabilities
against the server's advertised version.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
			return a.loadConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.tokenvault.yaml)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("store", "keyring", "secure store backend (keyring, file, redis, memory)")
	flags.String("namespace", "tokenvault", "keychain namespace")
	flags.String("app-id", "", "app id (default: persisted per store)")
	flags.String("server", "", "server base URL")
	flags.String("log-level", "warn", "log level")

	_ = a.v.BindPFlag("store.backend", flags.Lookup("store"))
	_ = a.v.BindPFlag("keychain.namespace", flags.Lookup("namespace"))
	_ = a.v.BindPFlag("keychain.app_id", flags.Lookup("app-id"))
	_ = a.v.BindPFlag("server.base_url", flags.Lookup("server"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	a.v.SetDefault("store.redis.addr", "127.0.0.1:6379")
	a.v.SetDefault("store.redis.password", "")
	a.v.SetDefault("store.redis.db", 0)
	a.v.SetDefault("store.redis.prefix", "tv")
	a.v.SetDefault("store.file.path", defaultFilePath())
	a.v.SetDefault("store.file.passphrase", "")
	a.v.SetDefault("store.file.kdf_memory_kb", 0)
	a.v.SetDefault("store.file.kdf_time", 0)
	a.v.SetDefault("store.file.kdf_threads", 0)
	a.v.SetDefault("server.config_path", "/api/config")
	a.v.SetDefault("server.timeout", 10*time.Second)

	root.AddCommand(newTokenCmd(a))
	root.AddCommand(newServerConfigCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	v := a.v
	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".tokenvault")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("TOKENVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	level, err := logrus.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		return err
	}
	a.log.SetLevel(level)
	a.log.SetOutput(cmd.ErrOrStderr())
	return nil
}

// client builds a tokenvault client over the configured store.
func (a *app) client(ctx context.Context) (*tokenvault.Client, error) {
	store, err := openStore(a.cfg.Store, a.cfg.Keychain.Namespace)
	if err != nil {
		return nil, err
	}

	cfg := tokenvault.DefaultConfig()
	if a.cfg.Keychain.Namespace != "" {
		cfg.Keychain.Namespace = a.cfg.Keychain.Namespace
	}
	cfg.Keychain.AppID = a.cfg.Keychain.AppID
	cfg.Server.BaseURL = a.cfg.Server.BaseURL
	cfg.Server.ConfigPath = a.cfg.Server.ConfigPath
	if a.cfg.Server.Timeout > 0 {
		cfg.Server.Timeout = a.cfg.Server.Timeout
	}

	return tokenvault.New().
		WithConfig(cfg).
		WithStore(store).
		WithLogger(a.log).
		Build(ctx)
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print all settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := a.v.AllSettings()
			if store, ok := settings["store"].(map[string]any); ok {
				if file, ok := store["file"].(map[string]any); ok {
					if _, ok := file["passphrase"]; ok {
						file["passphrase"] = "<redacted>"
					}
				}
			}
			printSettings(cmd.OutOrStdout(), "", settings)
			return nil
		},
	})
	return cmd
}

func printSettings(w io.Writer, prefix string, settings map[string]any) {
	for k, v := range settings {
		if nested, ok := v.(map[string]any); ok {
			printSettings(w, prefix+k+".", nested)
			continue
		}
		fmt.Fprintf(w, "%s%s: %v\n", prefix, k, v)
	}
}

func printSuccess(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "[+] "+format+"\n", args...)
}

func printWarning(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, "[!] "+format+"\n", args...)
}

func printInfo(w io.Writer, format string, args ...any) {
	color.New(color.FgCyan).Fprintf(w, "[*] "+format+"\n", args...)
}
