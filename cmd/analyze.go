package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/config"
	"github.com/nutrilens/nlens/internal/nutrilens/mode"
	"github.com/nutrilens/nlens/internal/nutrilens/session"
	"github.com/nutrilens/nlens/internal/nutrilens/transcript"
	"github.com/nutrilens/nlens/internal/ui"
)

var analyzeMode string

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:     "analyze",
	Aliases: []string{"start"},
	Short:   "Start an interactive meal-logging session",
	Long: `Start an interactive session that records what you eat.

Type a description of your meal and press Enter to record it. Switch to image
or combined mode with /mode and attach photos with /attach. When you are done
for the day, type "stop" (or done, finish, evaluate, 그만, 완료) to get the
evaluation of everything recorded today.

Examples:
  nlens analyze                 # Start in the configured default mode
  nlens analyze --mode image    # Start in image mode`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client, err := newClient(cfg, true)
		if err != nil {
			return err
		}

		initial, err := cfg.GetMode()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("mode") {
			if initial, err = mode.Parse(analyzeMode); err != nil {
				return err
			}
		}
		delay, err := cfg.GetRevealDelay()
		if err != nil {
			return err
		}

		terminal := ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)
		if !terminal {
			delay = 0
		}

		ctrl := session.New(client,
			session.WithLogger(slog.Default()),
			session.WithRevealDelay(delay),
			session.WithInitialMode(initial),
		)

		in, err := newLineReader(terminal)
		if err != nil {
			return err
		}
		defer in.Close()

		r := &repl{
			ctrl:      ctrl,
			theme:     ui.NewTheme(terminal),
			in:        in,
			out:       os.Stdout,
			errOut:    os.Stderr,
			spinner:   terminal,
			save:      saveTranscript,
			interrupt: interruptContext,
		}
		in.setPrompt(r.prompt)

		if err := r.run(cmd.Context()); err != nil {
			return fmt.Errorf("interactive mode: %w", err)
		}
		return nil
	},
}

func saveTranscript(snap session.Snapshot) error {
	return transcript.Save(transcript.FromSnapshot(snap, time.Now()))
}

func interruptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// lineReader reads one line of user input per call. It returns io.EOF when
// input ends and readline.ErrInterrupt for Ctrl+C at the prompt.
type lineReader interface {
	Readline() (string, error)
	Close() error
	setPrompt(func() string)
}

// newLineReader uses readline (editing, history) on a terminal and a plain
// scanner otherwise.
func newLineReader(terminal bool) (lineReader, error) {
	if !terminal {
		return newScannerReader(os.Stdin, os.Stderr), nil
	}

	historyFile := ""
	if dir, err := config.Dir(); err == nil {
		historyFile = filepath.Join(dir, "history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, fmt.Errorf("initializing line editor: %w", err)
	}
	return &readlineReader{rl: rl}, nil
}

type readlineReader struct {
	rl     *readline.Instance
	prompt func() string
}

func (r *readlineReader) setPrompt(p func() string) { r.prompt = p }

func (r *readlineReader) Readline() (string, error) {
	if r.prompt != nil {
		r.rl.SetPrompt(r.prompt())
	}
	return r.rl.Readline()
}

func (r *readlineReader) Close() error { return r.rl.Close() }

type scannerReader struct {
	scanner *bufio.Scanner
	w       io.Writer
	prompt  func() string
}

func newScannerReader(in io.Reader, promptOut io.Writer) *scannerReader {
	return &scannerReader{scanner: bufio.NewScanner(in), w: promptOut}
}

func (r *scannerReader) setPrompt(p func() string) { r.prompt = p }

func (r *scannerReader) Readline() (string, error) {
	if r.prompt != nil {
		fmt.Fprint(r.w, r.prompt())
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scannerReader) Close() error { return nil }

// repl is the interactive analyzer loop.
type repl struct {
	ctrl      *session.Controller
	theme     ui.Theme
	in        lineReader
	out       io.Writer // revealed replies
	errOut    io.Writer // prompts, hints and errors
	spinner   bool
	save      func(session.Snapshot) error // nil disables transcripts
	interrupt func(context.Context) (context.Context, context.CancelFunc)
}

func (r *repl) prompt() string {
	return r.theme.Badge(string(r.ctrl.Mode())) + " " + r.theme.UserPrefix()
}

func (r *repl) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	r.printHeader()

	for {
		line, err := r.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			fmt.Fprintln(r.errOut, r.theme.Hint("Type /exit or press Ctrl+D to quit."))
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.errOut, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if r.handleSpecialCommand(ctx, input) {
				continue
			}
			return nil
		}

		r.ctrl.SetDraft(input)
		r.submit(ctx)
	}
}

func (r *repl) printHeader() {
	spec := r.ctrl.ModeSpec()
	fmt.Fprintf(r.errOut, "\n=== NutriLens Analyzer [%s] ===\n", shortID(r.ctrl.ID()))
	fmt.Fprintf(r.errOut, "Mode: %s (%s)\n", spec.Title, spec.Description)
	fmt.Fprintln(r.errOut, r.theme.Hint(spec.Placeholder))
	fmt.Fprintf(r.errOut, "Type 'stop' to evaluate today's meals, '/help' for commands, '/exit' or 'Ctrl+D' to quit\n")
	fmt.Fprintf(r.errOut, "===================================\n\n")
}

// submit sends the current draft and reveals the reply.
func (r *repl) submit(ctx context.Context) {
	sctx, stop := r.interrupt(ctx)
	defer stop()

	var done chan bool
	if r.spinner {
		done = make(chan bool)
		go showSpinner(done, r.errOut)
	}
	out, err := r.ctrl.Submit(sctx)
	if done != nil {
		done <- true
		close(done)
	}

	if err != nil {
		r.printSubmitError(err)
		return
	}
	if out.Discarded {
		return
	}

	r.revealPending(ctx)
	r.saveTranscript()

	switch {
	case out.Err != nil && errors.Is(out.Err, api.ErrUnauthorized):
		fmt.Fprintln(r.errOut, r.theme.Hint("Your token was rejected. Run 'nlens login' and start a new session."))
	case out.Pipeline == session.PipelineGuidance:
		fmt.Fprintln(r.errOut, r.theme.Hint("Attach photos with /attach <file>, then /send."))
	case out.Err != nil && len(r.ctrl.Attachments()) > 0:
		fmt.Fprintln(r.errOut, r.theme.Hint("Your photos are still attached. Type your note again or /send."))
	case out.Stopped:
		fmt.Fprintln(r.errOut, r.theme.Hint("Session finished. Type /reset to start a new one or /exit to quit."))
	}
}

func (r *repl) printSubmitError(err error) {
	switch {
	case errors.Is(err, session.ErrEmptySubmission):
		fmt.Fprintln(r.errOut, r.theme.Hint("Nothing to send. Describe your meal or /attach a photo."))
	case errors.Is(err, session.ErrStopped):
		fmt.Fprintln(r.errOut, r.theme.Hint("Session finished. Type /reset to start a new one."))
	default:
		fmt.Fprintln(r.errOut, r.theme.Error("Error: "+err.Error()))
	}
}

// revealPending streams every unrevealed reply. Ctrl+C skips the typing
// effect and prints the rest at once.
func (r *repl) revealPending(ctx context.Context) {
	for {
		msg, ok := r.ctrl.PendingReveal()
		if !ok {
			return
		}
		fmt.Fprint(r.out, "\n"+r.theme.SystemPrefix())

		rctx, stop := r.interrupt(ctx)
		cw := &countingWriter{w: r.out}
		_, err := r.ctrl.RevealNext(rctx, cw)
		stop()
		if err != nil {
			if cw.n < len(msg.Text) {
				fmt.Fprint(r.out, msg.Text[cw.n:])
			}
			r.ctrl.CompleteReveal(msg.ID)
		}
		fmt.Fprint(r.out, "\n\n")
	}
}

func (r *repl) saveTranscript() {
	if r.save == nil {
		return
	}
	if err := r.save(r.ctrl.Snapshot()); err != nil {
		fmt.Fprintf(r.errOut, "Warning: failed to save session: %v\n", err)
	}
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// showSpinner displays a spinner animation while waiting for response
func showSpinner(done chan bool, w io.Writer) {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	i := 0
	for {
		select {
		case <-done:
			// Clear the spinner line
			fmt.Fprint(w, "\r\033[K")
			return
		default:
			fmt.Fprintf(w, "\r%s Analyzing...", spinners[i])
			i = (i + 1) % len(spinners)
			time.Sleep(80 * time.Millisecond)
		}
	}
}

// stoppedCommands stay available after the evaluation ends a session.
var stoppedCommands = map[string]bool{
	"/help": true, "/h": true,
	"/info": true, "/i": true,
	"/reset": true, "/r": true,
	"/clear": true, "/c": true,
	"/exit": true, "/quit": true, "/q": true,
}

// handleSpecialCommand processes slash commands in interactive mode
// Returns true to continue the loop, false to exit
func (r *repl) handleSpecialCommand(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	if r.ctrl.Phase() == session.PhaseStopped && !stoppedCommands[command] {
		fmt.Fprintln(r.errOut, r.theme.Hint("Session finished. Only /reset, /info, /help and /exit are available."))
		return true
	}

	switch command {
	case "/help", "/h":
		r.printHelp()

	case "/info", "/i":
		r.printInfo()

	case "/mode", "/m":
		r.selectMode(args)

	case "/attach", "/a":
		r.attach(args)

	case "/detach", "/d":
		r.detach(args)

	case "/images":
		r.listImages()

	case "/send", "/s":
		r.submit(ctx)

	case "/evaluate", "/e":
		r.ctrl.SetDraft("evaluate")
		r.submit(ctx)

	case "/reset", "/r":
		r.ctrl.Reset()
		fmt.Fprintf(r.errOut, "New session started [%s]\n\n", shortID(r.ctrl.ID()))

	case "/clear", "/c":
		// Clear screen (Unix/Linux)
		fmt.Fprint(r.out, "\033[H\033[2J")

	case "/exit", "/quit", "/q":
		fmt.Fprintln(r.errOut, "Goodbye!")
		return false

	default:
		fmt.Fprintf(r.errOut, "Unknown command: %s (type '/help' for available commands)\n", command)
	}
	return true
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.errOut, "\nAvailable commands:")
	fmt.Fprintln(r.errOut, "  /mode [text|image|combined]  - Show or switch the input mode")
	fmt.Fprintln(r.errOut, "  /attach <file|glob>...       - Attach meal photos (image and combined modes)")
	fmt.Fprintln(r.errOut, "  /detach <id>|all             - Remove attached photos")
	fmt.Fprintln(r.errOut, "  /images                      - List attached photos")
	fmt.Fprintln(r.errOut, "  /send, /s                    - Send the kept text and attached photos")
	fmt.Fprintln(r.errOut, "  /evaluate, /e                - Finish and evaluate today's meals")
	fmt.Fprintln(r.errOut, "  /reset, /r                   - Start a new session")
	fmt.Fprintln(r.errOut, "  /info, /i                    - Show session information")
	fmt.Fprintln(r.errOut, "  /clear, /c                   - Clear screen (Unix/Linux only)")
	fmt.Fprintln(r.errOut, "  /help, /h                    - Show this help message")
	fmt.Fprintln(r.errOut, "  /exit, /quit                 - Exit interactive mode")
	fmt.Fprintln(r.errOut, "  Ctrl+D                       - Exit interactive mode")
	fmt.Fprintf(r.errOut, "\nStop words: %s\n\n", strings.Join(session.StopIntents(), ", "))
}

func (r *repl) printInfo() {
	snap := r.ctrl.Snapshot()
	fmt.Fprintln(r.errOut, "\nSession Information:")
	fmt.Fprintf(r.errOut, "  ID: %s\n", shortID(snap.ID))
	fmt.Fprintf(r.errOut, "  Full ID: %s\n", snap.ID)
	fmt.Fprintf(r.errOut, "  Status: %s\n", snap.Phase)
	fmt.Fprintf(r.errOut, "  Mode: %s\n", snap.Mode)
	fmt.Fprintf(r.errOut, "  Messages: %d\n", len(snap.Messages))
	fmt.Fprintf(r.errOut, "  Attached photos: %d\n", len(snap.Attachments))
	if snap.Draft != "" {
		fmt.Fprintf(r.errOut, "  Kept text: %s\n", snap.Draft)
	}
	if snap.Evaluation != nil {
		fmt.Fprintf(r.errOut, "  Grade: %s\n", r.theme.Grade(snap.Evaluation.Grade))
	}
	fmt.Fprintf(r.errOut, "  Created: %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(r.errOut, "")
}

func (r *repl) selectMode(args []string) {
	current := r.ctrl.Mode()
	if len(args) == 0 {
		fmt.Fprintln(r.errOut, "\nModes:")
		for _, spec := range mode.All() {
			marker := " "
			if spec.Mode == current {
				marker = "*"
			}
			fmt.Fprintf(r.errOut, "  %s %-9s %s: %s\n", marker, spec.Mode, spec.Title, spec.Description)
		}
		fmt.Fprintln(r.errOut, "")
		return
	}

	m, err := mode.Parse(args[0])
	if err != nil {
		fmt.Fprintln(r.errOut, r.theme.Error(err.Error()))
		return
	}
	if !r.ctrl.SelectMode(m) {
		switch {
		case r.ctrl.Phase() == session.PhaseStopped:
			fmt.Fprintln(r.errOut, r.theme.Hint("Session finished. Type /reset to start a new one."))
		case m == current:
			fmt.Fprintf(r.errOut, "Already in %s mode.\n", m)
		}
		return
	}
	spec := r.ctrl.ModeSpec()
	fmt.Fprintf(r.errOut, "Switched to %s: %s\n", spec.Title, spec.Description)
	fmt.Fprintln(r.errOut, r.theme.Hint(spec.Placeholder))
}

func (r *repl) attach(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.errOut, "Usage: /attach <file|glob>...")
		return
	}

	files, errs := readImageFiles(args)
	if len(files) > 0 {
		added, addErrs := r.ctrl.AddAttachments(files)
		errs = append(errs, addErrs...)
		for _, a := range added {
			fmt.Fprintf(r.errOut, "📎 %s (%s, %s)\n", a.Name, a.ID, formatSize(a.Size()))
		}
	}
	for _, err := range errs {
		switch {
		case errors.Is(err, session.ErrAttachmentsNotApplicable):
			fmt.Fprintln(r.errOut, r.theme.Hint("Photos are not used in text mode. Switch with /mode image or /mode combined."))
		case errors.Is(err, session.ErrStopped):
			fmt.Fprintln(r.errOut, r.theme.Hint("Session finished. Type /reset to start a new one."))
		default:
			fmt.Fprintln(r.errOut, r.theme.Error(err.Error()))
		}
	}
}

func (r *repl) detach(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(r.errOut, "Usage: /detach <id>|all")
		return
	}
	if args[0] == "all" {
		r.ctrl.ClearAttachments()
		fmt.Fprintln(r.errOut, "All photos removed.")
		return
	}
	for _, id := range args {
		if r.ctrl.RemoveAttachment(id) {
			fmt.Fprintf(r.errOut, "Removed %s\n", id)
		} else {
			fmt.Fprintf(r.errOut, "No attached photo with id %s\n", id)
		}
	}
}

func (r *repl) listImages() {
	atts := r.ctrl.Attachments()
	if len(atts) == 0 {
		fmt.Fprintln(r.errOut, "No photos attached.")
		return
	}
	for _, a := range atts {
		dims := "preview pending"
		if p, ok := a.Preview(); ok {
			if p.Empty() {
				dims = "no preview"
			} else {
				dims = fmt.Sprintf("%dx%d", p.Width, p.Height)
			}
		}
		fmt.Fprintf(r.errOut, "  %s  %s  %s  %s\n", a.ID, a.Name, formatSize(a.Size()), dims)
	}
}

func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeMode, "mode", "m", "", "Input mode to start in (text, image, combined)")
}
