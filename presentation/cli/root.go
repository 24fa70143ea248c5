// Package cli is the step_recorder command line.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"step_recorder/domain/entities"
	"step_recorder/infrastructure/config"
	"step_recorder/presentation/terminal"
)

type rootOptions struct {
	projectDir string
	envFile    string
	driver     string
	headless   bool

	app *terminal.App
}

// NewRootCommand - builds the command tree
func NewRootCommand() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:           "step_recorder",
		Short:         "Record browser interactions, replay them and export test scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&o.projectDir, "project", "p", "", "project directory (default $PROJECT_DIR or .)")
	root.PersistentFlags().StringVar(&o.envFile, "env-file", ".env", "environment file to load")
	root.PersistentFlags().StringVar(&o.driver, "driver", "", "replay driver: playwright or selenium")
	root.PersistentFlags().BoolVar(&o.headless, "headless", false, "replay without a visible browser")

	root.AddCommand(
		newInitCommand(o),
		newRecordCommand(o),
		newRunCommand(o),
		newExportCommand(o),
		newInspectCommand(o),
		newShellCommand(o),
	)
	return root
}

// Execute runs the command line with os.Args
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return err
	}
	if o.projectDir != "" {
		cfg.ProjectDir = o.projectDir
	}
	if o.driver != "" {
		cfg.Driver = o.driver
		if cfg.Driver != config.DriverPlaywright && cfg.Driver != config.DriverSelenium {
			return fmt.Errorf("unknown driver %q", o.driver)
		}
	}
	if o.headless {
		cfg.Headless = true
	}
	o.app = terminal.NewApp(cfg, cfg.NewLogger(), cmd.OutOrStdout())
	return nil
}

func newInitCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [name]",
		Short: "Create a project in the project directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			if err := o.app.Open(name, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %q ready\n", o.app.Project().Name)
			return nil
		},
	}
}

func newRecordCommand(o *rootOptions) *cobra.Command {
	var appendSteps bool
	cmd := &cobra.Command{
		Use:   "record [url]",
		Short: "Open a browser and record interactions until Enter is pressed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.app.Open("", true); err != nil {
				return err
			}
			if !appendSteps {
				o.app.ClearSteps()
			}
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			if err := o.app.StartRecording(cmd.Context(), url); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Recording. Press Enter to stop.")
			waitForEnter(cmd.Context(), cmd.InOrStdin())
			if err := o.app.StopRecording(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d steps\n", len(o.app.Steps()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&appendSteps, "append", false, "keep the existing steps and record after them")
	return cmd
}

func newRunCommand(o *rootOptions) *cobra.Command {
	var from, step string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay the recorded steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from != "" && step != "" {
				return fmt.Errorf("--from and --step are mutually exclusive")
			}
			if err := o.app.Open("", false); err != nil {
				return err
			}
			mode, ref := entities.RunModeAll, ""
			switch {
			case from != "":
				mode, ref = entities.RunModeFrom, from
			case step != "":
				mode, ref = entities.RunModeSingle, step
			}
			summary, err := o.app.Run(cmd.Context(), mode, ref)
			if err != nil {
				return err
			}
			o.app.PrintSummary(summary)
			if summary.Status != entities.RunStatusCompleted || summary.Failed > 0 {
				return fmt.Errorf("run %s with %d failed steps", summary.Status, summary.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "replay from this step (id or position) to the end")
	cmd.Flags().StringVar(&step, "step", "", "replay only this step (id or position)")
	return cmd
}

func newExportCommand(o *rootOptions) *cobra.Command {
	var dialect, out string
	var withConfig bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate a test script from the recorded steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.app.Open("", false); err != nil {
				return err
			}
			path, err := o.app.Export(dialect, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			if withConfig {
				cfgPath, err := o.app.WritePlaywrightConfig()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dialect, "dialect", "d", "typescript", "typescript, java or gherkin")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default tests/ in the project)")
	cmd.Flags().BoolVar(&withConfig, "playwright-config", false, "also write playwright.config.ts")
	return cmd
}

func newInspectCommand(o *rootOptions) *cobra.Command {
	var htmlFile, selector string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Rank locator candidates for an element of a saved HTML page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(htmlFile)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", htmlFile, err)
			}
			defer f.Close()
			cands, err := o.app.Inspect(f, selector)
			if err != nil {
				return err
			}
			for i, c := range cands {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %-14s %.2f  %s\n", i+1, c.Strategy, c.Confidence, c.Expression)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlFile, "html", "", "HTML file to inspect")
	cmd.Flags().StringVarP(&selector, "select", "s", "", "CSS selector of the target element")
	_ = cmd.MarkFlagRequired("html")
	_ = cmd.MarkFlagRequired("select")
	return cmd
}

func newShellCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive recording and replay session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.app.Open("", true); err != nil {
				return err
			}
			return terminal.NewShell(o.app, cmd.InOrStdin()).Run(cmd.Context())
		},
	}
}

// waitForEnter returns on a newline, end of input or cancellation
func waitForEnter(ctx context.Context, in io.Reader) {
	done := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(in).ReadString('\n')
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
