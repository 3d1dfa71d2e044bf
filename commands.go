package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nissyi-gh/taskmgr/internal/model"
	"github.com/nissyi-gh/taskmgr/internal/notify"
	"github.com/nissyi-gh/taskmgr/internal/taskstore"
	"github.com/nissyi-gh/taskmgr/internal/ui"
	"github.com/nissyi-gh/taskmgr/internal/view"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

func newRootCmd(stdin, stdout, stderr *os.File) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "taskmgr",
		Short: "A personal task list manager",
		Long: `A personal task list manager.

Run without a subcommand on a terminal to open the interactive UI.
Otherwise the task list is printed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTerminal(stdin) && isTerminal(stdout) {
				return runTUI(a)
			}
			return runList(a, listOptions{})
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/taskmgr/config.toml)")
	flags.StringVar(&a.backend, "storage", "", "storage backend: sqlite, file or memory")
	flags.StringVar(&a.dataPath, "data", "", "database file (sqlite) or directory (file)")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newEditCmd(a),
		newToggleCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newStatsCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newPromptCmd(a),
		newConfigCmd(a),
	)
	return root
}

func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

func runTUI(a *app) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	center := notify.NewCenter(a.cfg.Notify.Duration)
	if err := a.open(center); err != nil {
		return err
	}
	defer a.close()

	m := ui.NewModel(a.store, center, ui.Options{
		Filter:          a.defaultFilter(),
		DefaultPriority: a.defaultPriority(),
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// resolve maps an id or unique id prefix to a task.
func resolve(s *taskstore.Store, ref string) (model.Task, error) {
	id, err := s.Resolve(ref)
	if err != nil {
		return model.Task{}, err
	}
	t, _ := s.Get(id)
	return t, nil
}

func parseDue(s string) (*string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !model.ValidDate(s) {
		return nil, fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", s)
	}
	return &s, nil
}

func newAddCmd(a *app) *cobra.Command {
	var (
		description string
		priority    string
		due         string
	)

	cmd := &cobra.Command{
		Use:   "add <title>...",
		Short: "Add a task",
		Long: `Add a task. The words of the title are joined with spaces.

The new task id is printed on stdout.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(a.printer()); err != nil {
				return err
			}
			defer a.close()

			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return errors.New("title is required")
			}

			p := a.defaultPriority()
			if priority != "" {
				var err error
				if p, err = model.ParsePriority(priority); err != nil {
					return err
				}
			}
			dueDate, err := parseDue(due)
			if err != nil {
				return err
			}

			t, err := a.store.Create(model.Draft{
				Title:       title,
				Description: description,
				Priority:    p,
				DueDate:     dueDate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, t.ID)
			return nil
		},
	}

	addTaskFieldFlags(cmd.Flags(), &description, &priority, &due)
	return cmd
}

// addTaskFieldFlags registers the field flags shared by add and edit.
func addTaskFieldFlags(fs *pflag.FlagSet, description, priority, due *string) {
	fs.StringVarP(description, "description", "d", "", "task description")
	fs.StringVarP(priority, "priority", "p", "", "priority: low, medium or high")
	fs.StringVar(due, "due", "", "due date (YYYY-MM-DD)")
}

type listOptions struct {
	filter string
	search string
	json   bool
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.filter, "filter", "f", "", "all, pending or completed (default from config)")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "case-insensitive search in title and description")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output as JSON")
	return cmd
}

func runList(a *app, opts listOptions) error {
	if err := a.open(a.printer()); err != nil {
		return err
	}
	defer a.close()

	filter := a.defaultFilter()
	if opts.filter != "" {
		var err error
		if filter, err = view.ParseFilter(opts.filter); err != nil {
			return err
		}
	}

	all := a.store.Tasks()
	tasks := view.FilterAndSearch(all, filter, opts.search)

	if opts.json {
		return encodeJSON(a.stdout, tasks)
	}

	switch {
	case len(all) == 0:
		fmt.Fprintln(a.stdout, "No tasks yet. Add one with: taskmgr add <title>")
	case len(tasks) == 0:
		fmt.Fprintln(a.stdout, "No tasks found")
		fmt.Fprintln(a.stdout, "Try adjusting your search or filter criteria")
	default:
		fmt.Fprintln(a.stdout, formatTaskTable(tasks, a.store.ShortIDLength(8), nowFunc()))
	}
	return nil
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(a.printer()); err != nil {
				return err
			}
			defer a.close()

			t, err := resolve(a.store, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return encodeJSON(a.stdout, t)
			}
			fmt.Fprint(a.stdout, formatTaskDetail(t, nowFunc(), isTerminal(a.stdout)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		title       string
		description string
		priority    string
		due         string
		clearDue    bool
	)

	cmd := &cobra.Command{
		Use:     "edit <id>",
		Aliases: []string{"update"},
		Short:   "Change fields of a task",
		Long: `Change fields of a task. Only the flags given are changed.

The completion state is changed with toggle, not edit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p model.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				trimmed := strings.TrimSpace(title)
				if trimmed == "" {
					return errors.New("title cannot be empty")
				}
				p.Title = &trimmed
			}
			if flags.Changed("description") {
				p.Description = &description
			}
			if flags.Changed("priority") {
				parsed, err := model.ParsePriority(priority)
				if err != nil {
					return err
				}
				p.Priority = &parsed
			}
			if flags.Changed("due") && clearDue {
				return errors.New("--due and --clear-due are mutually exclusive")
			}
			if flags.Changed("due") {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				if d == nil {
					p.ClearDueDate = true
				}
				p.DueDate = d
			}
			if clearDue {
				p.ClearDueDate = true
			}
			if p.IsEmpty() {
				return errors.New("nothing to change (use --title, --description, --priority, --due or --clear-due)")
			}

			if err := a.open(a.printer()); err != nil {
				return err
			}
			defer a.close()

			t, err := resolve(a.store, args[0])
			if err != nil {
				return err
			}
			_, err = a.store.Update(t.ID, p)
			return err
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	addTaskFieldFlags(cmd.Flags(), &description, &priority, &due)
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	return cmd
}

// newIDsCmd builds a command that applies fn to every task named in args.
func newIDsCmd(a *app, use, short string, aliases []string, fn func(s *taskstore.Store, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <id>...",
		Aliases: aliases,
		Short:   short,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(a.printer()); err != nil {
				return err
			}
			defer a.close()

			ids := make([]string, len(args))
			for i, ref := range args {
				t, err := resolve(a.store, ref)
				if err != nil {
					return err
				}
				ids[i] = t.ID
			}
			for _, id := range ids {
				if err := fn(a.store, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newToggleCmd(a *app) *cobra.Command {
	return newIDsCmd(a, "toggle", "Flip tasks between pending and completed", []string{"done"},
		func(s *taskstore.Store, id string) error {
			_, err := s.Toggle(id)
			return err
		})
}

func newDeleteCmd(a *app) *cobra.Command {
	return newIDsCmd(a, "delete", "Delete tasks", []string{"rm"},
		func(s *taskstore.Store, id string) error {
			_, err := s.Delete(id)
			return err
		})
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(a.printer()); err != nil {
				return err
			}
			defer a.close()

			n, err := a.store.ClearCompleted()
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(a.stderr, "No completed tasks to clear")
			}
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task counts and completion percentage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(a.printer()); err != nil {
				return err
			}
			defer a.close()

			s := view.Stats(a.store.Tasks())
			if asJSON {
				return encodeJSON(a.stdout, s)
			}
			fmt.Fprintf(a.stdout, "Total:     %d\nCompleted: %d\nPending:   %d\nProgress:  %d%%\n",
				s.Total, s.Completed, s.Pending, s.CompletionPercentage)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
