// Package terminal holds the interactive shell and the wiring shared with
// the command line.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"step_recorder/domain/entities"
)

// assertionAliases maps the short names typed in the shell to kinds
var assertionAliases = map[string]entities.AssertionKind{
	"visible":   entities.AssertVisible,
	"hidden":    entities.AssertHidden,
	"text":      entities.AssertText,
	"contains":  entities.AssertContainText,
	"value":     entities.AssertValue,
	"attribute": entities.AssertAttribute,
	"attr":      entities.AssertAttribute,
	"count":     entities.AssertCount,
	"enabled":   entities.AssertEnabled,
	"disabled":  entities.AssertDisabled,
	"checked":   entities.AssertChecked,
	"unchecked": entities.AssertUnchecked,
	"url":       entities.AssertURL,
	"title":     entities.AssertTitle,
}

// ParseAssertionKind accepts a short alias or a full kind name
func ParseAssertionKind(name string) (entities.AssertionKind, error) {
	if k, ok := assertionAliases[strings.ToLower(name)]; ok {
		return k, nil
	}
	if k := entities.AssertionKind(name); k.IsValid() {
		return k, nil
	}
	return "", fmt.Errorf("unknown assertion %q", name)
}

const helpText = `Commands:
  record [url]          open a browser and capture interactions
  pause | resume        pause or resume the recording or the running replay
  stop                  stop the recording (and save) or the running replay
  pick [on|off]         toggle element picking in the recording browser
  candidates            show the locators of the last picked element
  assert <kind> [value] add an assertion for the picked element
  run                   replay every step
  from <step>           replay from a step to the end
  step <step>           replay one step
  list                  show the steps
  delete <step>         remove a step
  move <step> <pos>     move a step to a position
  export [dialect]      write a script (typescript, java, gherkin)
  save                  save the steps
  quit                  exit
Steps are addressed by id or by position.`

// Shell is the interactive prompt
type Shell struct {
	app    *App
	reader *bufio.Reader
	out    io.Writer

	runMu   sync.Mutex
	running bool
	runDone chan struct{}
}

// NewShell - creates a shell reading commands from in
func NewShell(app *App, in io.Reader) *Shell {
	return &Shell{
		app:    app,
		reader: bufio.NewReader(in),
		out:    app.out,
	}
}

// Run reads commands until quit or end of input
func (s *Shell) Run(ctx context.Context) error {
	defer func() {
		_ = s.app.Close()
		s.waitRun()
	}()

	fmt.Fprintf(s.out, "Step Recorder - %s\n", s.app.Project().Name)
	fmt.Fprintln(s.out, "=============")
	fmt.Fprintln(s.out, "Type 'help' for commands, or 'quit' to exit")
	fmt.Fprintln(s.out)

	for {
		fmt.Fprint(s.out, "> ")
		input, err := s.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		input = strings.TrimSpace(input)
		if input == "quit" || input == "exit" || input == "q" {
			fmt.Fprintln(s.out, "Bye!")
			return nil
		}
		if input != "" {
			if cmdErr := s.Execute(ctx, input); cmdErr != nil {
				fmt.Fprintf(s.out, "Error: %v\n", cmdErr)
			}
		}
		if eof {
			s.waitRun()
			return nil
		}
	}
}

// Execute runs one shell command line
func (s *Shell) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rec := s.app.Recorder()

	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "record":
		url := ""
		if len(args) > 0 {
			url = args[0]
		}
		return s.app.StartRecording(ctx, url)
	case "pause":
		if s.isRunning() {
			if !s.app.Engine().Pause() {
				return fmt.Errorf("run cannot be paused now")
			}
			return nil
		}
		return rec.Pause()
	case "resume":
		if s.isRunning() {
			if !s.app.Engine().Resume() {
				return fmt.Errorf("run is not paused")
			}
			return nil
		}
		return rec.Resume()
	case "stop":
		if s.isRunning() {
			s.app.Engine().Stop()
			s.waitRun()
			return nil
		}
		if err := s.app.StopRecording(); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Saved %d steps\n", len(s.app.Steps()))
	case "pick", "inspect":
		on := true
		if len(args) > 0 {
			on = args[0] != "off"
		}
		return rec.Inspect(on)
	case "candidates":
		picked := rec.LastPicked()
		if len(picked) == 0 {
			fmt.Fprintln(s.out, "Nothing picked yet")
		}
		printCandidates(s.out, picked)
	case "assert":
		if len(args) == 0 {
			return fmt.Errorf("usage: assert <kind> [value]")
		}
		kind, err := ParseAssertionKind(args[0])
		if err != nil {
			return err
		}
		_, err = s.app.AddAssertion(kind, strings.Join(args[1:], " "))
		return err
	case "run":
		return s.startRun(ctx, entities.RunModeAll, "")
	case "from", "step":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <step>", cmd)
		}
		mode := entities.RunModeFrom
		if cmd == "step" {
			mode = entities.RunModeSingle
		}
		if _, err := s.app.ResolveStep(args[0]); err != nil {
			return err
		}
		return s.startRun(ctx, mode, args[0])
	case "list", "ls":
		s.app.PrintSteps()
	case "delete", "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <step>")
		}
		return s.app.DeleteStep(args[0])
	case "move", "mv":
		if len(args) != 2 {
			return fmt.Errorf("usage: move <step> <position>")
		}
		pos, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q", args[1])
		}
		return s.app.MoveStep(args[0], pos)
	case "export":
		dialect := "typescript"
		if len(args) > 0 {
			dialect = args[0]
		}
		path, err := s.app.Export(dialect, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Exported to %s\n", path)
	case "save":
		if err := s.app.Save(); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Saved %d steps\n", len(s.app.Steps()))
	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
	return nil
}

// startRun replays in the background so pause, resume and stop stay usable
func (s *Shell) startRun(ctx context.Context, mode entities.RunMode, ref string) error {
	if s.app.Recorder().IsRecording() {
		return fmt.Errorf("stop the recording before replaying")
	}
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return fmt.Errorf("a run is already in progress")
	}
	s.running = true
	done := make(chan struct{})
	s.runDone = done
	s.runMu.Unlock()

	go func() {
		defer func() {
			s.runMu.Lock()
			s.running = false
			s.runMu.Unlock()
			close(done)
		}()
		summary, err := s.app.Run(ctx, mode, ref)
		if err != nil {
			fmt.Fprintf(s.out, "\nRun failed: %v\n", err)
			return
		}
		s.app.PrintSummary(summary)
	}()
	return nil
}

func (s *Shell) isRunning() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

func (s *Shell) waitRun() {
	s.runMu.Lock()
	done := s.runDone
	s.runMu.Unlock()
	if done != nil {
		<-done
	}
}

func printCandidates(out io.Writer, cands []entities.SelectorCandidate) {
	for i, c := range cands {
		fmt.Fprintf(out, "%2d. %-14s %.2f  %s\n", i+1, c.Strategy, c.Confidence, c.Expression)
	}
}
