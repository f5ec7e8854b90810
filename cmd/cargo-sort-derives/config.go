package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sortderives/internal/config"
	sderrors "sortderives/internal/errors"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sort-derives configuration",
		Long:  "View, create and validate the " + config.FileName + " file in the current directory",
	}

	cmd.AddCommand(a.newConfigShowCmd())
	cmd.AddCommand(a.newConfigInitCmd())
	cmd.AddCommand(a.newConfigCheckCmd())
	return cmd
}

func (a *app) newConfigShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Display the configuration after applying SORT_DERIVES_* environment overrides.

Examples:
  cargo sort-derives config show              # TOML
  cargo sort-derives config show --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigShow(format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "toml", "Output format (toml, json)")
	return cmd
}

func (a *app) runConfigShow(format string) error {
	cfg, err := config.LoadConfig(a.dir)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "toml":
		data, err = cfg.TOML()
		if err == nil {
			data = append([]byte(sourceComment(a.dir)), data...)
		}
	case "json":
		data, err = cfg.JSON()
		if err == nil {
			data = append(data, '\n')
		}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	_, err = a.stdout.Write(data)
	return err
}

func sourceComment(dir string) string {
	path := config.Path(dir)
	if _, err := os.Stat(path); err != nil {
		return "# Source: defaults (no " + config.FileName + " found)\n"
	}
	return "# Source: " + path + "\n"
}

func (a *app) newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.FileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteStarter(a.dir, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func (a *app) newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report problems in " + config.FileName,
		Long: `Strictly decode the config file and report unknown keys, values of the wrong
type and a malformed order. Exits with status 2 when problems are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigCheck()
		},
	}
}

func (a *app) runConfigCheck() error {
	path := config.Path(a.dir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(a.stdout, "No %s found, defaults apply\n", config.FileName)
		return nil
	}

	problems, err := config.Check(path)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		fmt.Fprintf(a.stdout, "%s: ok\n", path)
		return nil
	}

	for _, p := range problems {
		fmt.Fprintf(a.stdout, "%s: %v\n", path, p)
	}
	return sderrors.NewSortError(sderrors.ConfigInvalid,
		fmt.Sprintf("%d problem(s) in %s", len(problems), path), nil, nil).WithDetails(problems)
}
