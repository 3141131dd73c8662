package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nutrilens/nlens/internal/nutrilens/config"
	"github.com/nutrilens/nlens/internal/nutrilens/mode"
	"github.com/nutrilens/nlens/internal/nutrilens/session"
	"github.com/nutrilens/nlens/internal/ui"
)

var (
	logImages []string
	logMode   string
)

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log [text...]",
	Short: "Record a meal without starting an interactive session",
	Long: `Record one meal description, one batch of photos, or both.

Without --mode, the mode is chosen from the input: text only uses text mode,
photos only use image mode, and text with photos uses combined mode.
Text may also be piped through stdin.

Examples:
  nlens log "Chicken breast 100g, banana 1 piece"
  nlens log --image lunch.jpg
  nlens log --image 'meals/*.jpg' "Bibimbap with an extra egg"
  echo "Oatmeal with milk" | nlens log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if text == "" && len(logImages) == 0 && !ui.IsTerminal(os.Stdin) {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = strings.TrimSpace(string(data))
		}
		if text == "" && len(logImages) == 0 {
			return errors.New("nothing to record: pass a description or --image")
		}

		m, err := logModeFor(cmd.Flags().Changed("mode"), logMode, text, len(logImages) > 0)
		if err != nil {
			return err
		}

		ctrl, err := newOneShotController(m)
		if err != nil {
			return err
		}

		if len(logImages) > 0 {
			files, errs := readImageFiles(logImages)
			added, addErrs := ctrl.AddAttachments(files)
			if errs = append(errs, addErrs...); len(errs) > 0 {
				return errors.Join(errs...)
			}
			if len(added) == 0 {
				return errors.New("no images to upload")
			}
		}
		ctrl.SetDraft(text)

		return runOneShot(cmd.Context(), ctrl, os.Stdout)
	},
}

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate everything recorded today",
	Long: `Ask NutriLens to score today's meals against your health profile.

This is the same as typing "stop" in an interactive session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newOneShotController(mode.Text)
		if err != nil {
			return err
		}
		ctrl.SetDraft("evaluate")
		return runOneShot(cmd.Context(), ctrl, os.Stdout)
	},
}

// logModeFor picks the ingestion mode for a one-shot submission.
func logModeFor(explicit bool, flag, text string, hasImages bool) (mode.Mode, error) {
	if explicit {
		m, err := mode.Parse(flag)
		if err != nil {
			return "", err
		}
		if m == mode.Text && hasImages {
			return "", errors.New("--image cannot be used with --mode text")
		}
		return m, nil
	}
	switch {
	case hasImages && text == "":
		return mode.Image, nil
	case hasImages:
		return mode.Combined, nil
	default:
		return mode.Text, nil
	}
}

func newOneShotController(m mode.Mode) (*session.Controller, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	client, err := newClient(cfg, true)
	if err != nil {
		return nil, err
	}
	delay, err := cfg.GetRevealDelay()
	if err != nil {
		return nil, err
	}
	if !ui.IsTerminal(os.Stdout) {
		delay = 0
	}
	return session.New(client,
		session.WithLogger(slog.Default()),
		session.WithRevealDelay(delay),
		session.WithInitialMode(m),
	), nil
}

// runOneShot submits the prepared draft, prints the reply and saves the
// transcript. A failure reply is also returned as an error.
func runOneShot(ctx context.Context, ctrl *session.Controller, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := interruptContext(ctx)
	defer stop()

	out, err := ctrl.Submit(ctx)
	if err != nil {
		return err
	}

	for {
		msg, ok := ctrl.PendingReveal()
		if !ok {
			break
		}
		cw := &countingWriter{w: w}
		if _, err := ctrl.RevealNext(ctx, cw); err != nil {
			if cw.n < len(msg.Text) {
				fmt.Fprint(w, msg.Text[cw.n:])
			}
			ctrl.CompleteReveal(msg.ID)
		}
		fmt.Fprintln(w)
	}

	if err := saveTranscript(ctrl.Snapshot()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save session: %v\n", err)
	}

	switch {
	case out.Err != nil:
		return describeAPIError(out.Err)
	case out.Pipeline == session.PipelineGuidance:
		return errors.New("image mode needs at least one --image")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(evaluateCmd)

	logCmd.Flags().StringArrayVarP(&logImages, "image", "i", nil, "Meal photo to upload (repeatable, globs allowed)")
	logCmd.Flags().StringVarP(&logMode, "mode", "m", "", "Input mode (text, image, combined)")
}
