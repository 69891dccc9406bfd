// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/telekom/o365ctl/pkg/o365ctl/config"
	"github.com/telekom/o365ctl/pkg/o365ctl/output"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage o365ctl configuration",
	}

	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigViewCommand(),
		newConfigSetValueCommand(),
		newConfigPathCommand(),
	)

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		tenant       string
		clientID     string
		tokenStorage string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an o365ctl config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			path := rt.configPathValue()
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config already exists: %s", path)
				}
			}
			cfg := config.DefaultConfig()
			if tenant != "" {
				cfg.Tenant = tenant
			}
			cfg.ClientID = clientID
			if tokenStorage != "" {
				cfg.Settings.TokenStorage = tokenStorage
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(path, &cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Initialized config at %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant ID or domain (default \"common\")")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Application (client) ID of the public client app")
	cmd.Flags().StringVar(&tokenStorage, "token-storage", "", "Token storage backend: keychain or file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}

func newConfigViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			return output.WriteObject(rt.Writer(), output.FormatYAML, rt.cfg)
		},
	}
}

// configSetters maps the keys accepted by "config set" to their field updates.
var configSetters = map[string]func(*config.Config, string) error{
	"tenant":    func(c *config.Config, v string) error { c.Tenant = v; return nil },
	"client-id": func(c *config.Config, v string) error { c.ClientID = v; return nil },
	"authority": func(c *config.Config, v string) error { c.Authority = v; return nil },
	"scopes": func(c *config.Config, v string) error {
		c.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
		return nil
	},
	"discovery": func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", v)
		}
		c.Discovery = b
		return nil
	},
	"callback-timeout": func(c *config.Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration: %s", v)
		}
		c.CallbackTimeout = d
		return nil
	},
	"ca-file": func(c *config.Config, v string) error { c.CAFile = v; return nil },
	"insecure-skip-tls-verify": func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", v)
		}
		c.InsecureSkipTLS = b
		return nil
	},
	"worker.runtime": func(c *config.Config, v string) error { c.Worker.Runtime = v; return nil },
	"worker.runtime-args": func(c *config.Config, v string) error {
		c.Worker.RuntimeArgs = strings.Fields(v)
		return nil
	},
	"worker.entry-point":     func(c *config.Config, v string) error { c.Worker.EntryPoint = v; return nil },
	"worker.project-dir":     func(c *config.Config, v string) error { c.Worker.ProjectDir = v; return nil },
	"settings.output-format": func(c *config.Config, v string) error { c.Settings.OutputFormat = v; return nil },
	"settings.token-storage": func(c *config.Config, v string) error { c.Settings.TokenStorage = v; return nil },
	"settings.log-file":      func(c *config.Config, v string) error { c.Settings.LogFile = v; return nil },
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newConfigSetValueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Supported keys:\n  " + strings.Join(configKeys(), "\n  "),
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return configKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			// Environment overrides must not leak into the saved file.
			cfg, err := config.LoadOrDefault(rt.configPathValue())
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			set, ok := configSetters[key]
			if !ok {
				return fmt.Errorf("unsupported key: %s", key)
			}
			if err := set(cfg, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(rt.configPathValue(), cfg); err != nil {
				return err
			}
			rt.log.Infow("Config value updated", "key", key)
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), rt.configPathValue())
			return nil
		},
	}
}
