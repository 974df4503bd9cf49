// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/storefront-tui/internal/config"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return OutputJSON(e.out, e.jsonMode, "config show", func() (interface{}, error) {
					cfg, err := e.config()
					if err != nil {
						return nil, err
					}
					if !e.jsonMode {
						if err := toml.NewEncoder(e.out).Encode(cfg); err != nil {
							return nil, err
						}
					}
					return cfg, nil
				})
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return OutputJSON(e.out, e.jsonMode, "config path", func() (interface{}, error) {
					path, err := configPath(e)
					if err != nil {
						return nil, err
					}
					if !e.jsonMode {
						fmt.Fprintln(e.out, path)
					}
					return map[string]string{"config_path": path}, nil
				})
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check the configuration file for errors",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return OutputJSON(e.out, e.jsonMode, "config validate", func() (interface{}, error) {
					return validateConfig(e)
				})
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Long:  "Print one configuration value.\n\nKeys:\n  " + strings.Join(config.Keys(), "\n  "),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return OutputJSON(e.out, e.jsonMode, "config get", func() (interface{}, error) {
					cfg, err := e.config()
					if err != nil {
						return nil, err
					}
					v, err := cfg.Get(args[0])
					if err != nil {
						return nil, err
					}
					if !e.jsonMode {
						fmt.Fprintln(e.out, v)
					}
					return map[string]interface{}{"key": args[0], "value": v}, nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one configuration value and save it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return OutputJSON(e.out, e.jsonMode, "config set", func() (interface{}, error) {
					return setConfig(e, args[0], args[1])
				})
			},
		},
	)
	return cmd
}

// configPath is the file commands read and write: --config when given,
// otherwise the default TOML file.
func configPath(e *env) (string, error) {
	if e.configPath != "" {
		return e.configPath, nil
	}
	return config.ConfigPathTOML()
}

// validateConfig decodes the file without the validation Load applies, so
// every problem can be reported instead of the first load error.
func validateConfig(e *env) (*ConfigValidationData, error) {
	path, err := configPath(e)
	if err != nil {
		return nil, err
	}
	data := &ConfigValidationData{Path: path, Valid: true}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if strings.HasSuffix(path, ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			data.Valid = false
			data.Errors = []string{err.Error()}
		}
	}
	if data.Valid {
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			data.Valid = false
			var verrs config.ValidateErrors
			if errors.As(err, &verrs) {
				for _, v := range verrs {
					data.Errors = append(data.Errors, v.Error())
				}
			} else {
				data.Errors = []string{err.Error()}
			}
		}
	}

	if !e.jsonMode {
		fmt.Fprintf(e.out, "%s %s\n", RenderLabel("Config"), path)
		if data.Valid {
			fmt.Fprintln(e.out, SuccessStyle.Render("[OK] configuration is valid"))
		} else {
			for _, msg := range data.Errors {
				fmt.Fprintln(e.out, ErrorStyle.Render("[X] "+msg))
			}
		}
	}
	if !data.Valid {
		return data, fmt.Errorf("configuration has %d error(s)", len(data.Errors))
	}
	return data, nil
}

func setConfig(e *env, key, value string) (interface{}, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if err := cfg.Set(key, value); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to save: %w", err)
	}
	path, err := configPath(e)
	if err != nil {
		return nil, err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return nil, err
	}
	v, _ := cfg.Get(key)
	if !e.jsonMode {
		fmt.Fprintf(e.out, "%s %v\n", RenderLabel(key), v)
	}
	return map[string]interface{}{"key": key, "value": v, "config_path": path}, nil
}
