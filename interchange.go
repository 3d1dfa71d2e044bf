package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nissyi-gh/taskmgr/internal/config"
	"github.com/nissyi-gh/taskmgr/internal/notify"
	"github.com/nissyi-gh/taskmgr/internal/prompt"
	"github.com/nissyi-gh/taskmgr/internal/view"
	"github.com/nissyi-gh/taskmgr/internal/yamlio"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Add tasks from a YAML file",
		Long: `Add tasks from a YAML file, or from stdin when the file is "-" or omitted.

  tasks:
    - title: "Buy milk"
      description: ""
      priority: low
      due_date: "2026-10-20"
      completed: false

Every entry is checked before any task is added. Tasks appear in the list
in file order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = a.stdin
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			if err := a.open(notify.Discard{}); err != nil {
				return err
			}
			defer a.close()

			n, err := yamlio.Import(a.store, r, a.defaultPriority())
			if err != nil {
				return err
			}
			a.printer().Notify(fmt.Sprintf("Imported %d task(s)", n), notify.Success)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		filter string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tasks as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := view.ParseFilter(filter)
			if err != nil {
				return err
			}

			if err := a.open(notify.Discard{}); err != nil {
				return err
			}
			defer a.close()

			tasks := view.FilterAndSearch(a.store.Tasks(), f, "")

			if output == "" || output == "-" {
				return yamlio.Export(a.stdout, tasks)
			}
			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := yamlio.Export(out, tasks); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, pending or completed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newPromptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt [id]",
		Short: "Print an assistant prompt that produces importable tasks",
		Long: `Print an assistant prompt that produces tasks in the import format.

With an id, the prompt asks for a breakdown of that task.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprint(a.stdout, prompt.GenerateNew())
				return nil
			}

			if err := a.open(notify.Discard{}); err != nil {
				return err
			}
			defer a.close()

			t, err := resolve(a.store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, prompt.GenerateFromTask(t, a.store.Tasks()))
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			return a.cfg.Encode(a.stdout)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.resolvedConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default configuration to the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := a.resolvedConfigPath()
				if err != nil {
					return err
				}
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config file %s already exists", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("stat config file: %w", err)
				}
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("create config dir: %w", err)
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create config file: %w", err)
				}
				if err := config.Default().Encode(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, path)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	if p := os.Getenv("TASKMGR_CONFIG"); p != "" {
		return p, nil
	}
	return config.DefaultConfigPath(os.Getenv)
}
