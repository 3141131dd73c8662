package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/auth"
	"github.com/nutrilens/nlens/internal/nutrilens/config"
	"github.com/nutrilens/nlens/internal/ui"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Sign in and save the API token",
	Long: `Sign in to NutriLens and save the API token next to the config file
(credentials.toml, readable by you only).

A token given with --token, NLENS_TOKEN or the config file takes precedence
over the saved login.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client, err := newClient(cfg, false)
		if err != nil {
			return err
		}

		p := newPrompter(os.Stdin, os.Stderr)
		username := ""
		if len(args) > 0 {
			username = args[0]
		} else if username, err = p.ask("Username: "); err != nil {
			return err
		}
		if username == "" {
			return errors.New("username is required")
		}
		password, err := p.password("Password: ")
		if err != nil {
			return err
		}

		res, err := client.Login(commandContext(cmd), username, password)
		if err != nil {
			return describeAPIError(err)
		}

		creds := &auth.Credentials{
			Token:    res.Token,
			Username: res.User.Username,
			Name:     res.User.Name,
			SavedAt:  time.Now(),
		}
		if creds.Username == "" {
			creds.Username = username
		}
		if err := auth.Save(creds); err != nil {
			return err
		}

		who := creds.Name
		if who == "" {
			who = creds.Username
		}
		fmt.Printf("Logged in as %s.\n", who)
		if cfg.Token != "" {
			fmt.Fprintln(os.Stderr, "Note: a token from --token, NLENS_TOKEN or the config file is set and will be used instead.")
		}
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the saved API token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.Delete(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a NutriLens account",
	Long: `Create an account. Profile values not given as flags are asked for.

After registering, sign in with 'nlens login'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client, err := newClient(cfg, false)
		if err != nil {
			return err
		}

		req, err := registerRequest(cmd, newPrompter(os.Stdin, os.Stderr))
		if err != nil {
			return err
		}
		if err := client.Register(commandContext(cmd), req); err != nil {
			return describeAPIError(err)
		}
		fmt.Printf("Account %s created. Sign in with: nlens login %s\n", req.Username, req.Username)
		return nil
	},
}

func registerRequest(cmd *cobra.Command, p *prompter) (api.RegisterRequest, error) {
	f := cmd.Flags()
	var req api.RegisterRequest
	var err error

	str := func(flag, question string, dst *string) {
		if err != nil {
			return
		}
		*dst, _ = f.GetString(flag)
		if *dst == "" {
			*dst, err = p.ask(question)
		}
	}
	str("username", "Username: ", &req.Username)
	str("name", "Name: ", &req.Name)
	str("gender", "Gender (M/F): ", &req.Gender)
	str("goal", "Diet goal (loss/maintain/gain): ", &req.DietGoal)
	if err != nil {
		return req, err
	}
	req.Gender = strings.ToUpper(req.Gender)
	req.DietGoal = strings.ToLower(req.DietGoal)
	if req.Username == "" {
		return req, errors.New("username is required")
	}

	if req.Age, err = intFlag(f.GetInt, p, "age", "Age: "); err != nil {
		return req, err
	}
	if req.Height, err = floatFlag(f.GetFloat64, p, "height", "Height (cm): "); err != nil {
		return req, err
	}
	if req.Weight, err = floatFlag(f.GetFloat64, p, "weight", "Weight (kg): "); err != nil {
		return req, err
	}
	req.IsVegetarian, _ = f.GetBool("vegetarian")

	conditions, _ := f.GetStringSlice("condition")
	if len(conditions) > 0 {
		flags := conditionFlags(api.Conditions{})
		for _, name := range conditions {
			key, err := conditionKey(name)
			if err != nil {
				return req, err
			}
			flags[key] = true
		}
		if err := remarshal(flags, &req.Conditions); err != nil {
			return req, err
		}
	}

	if req.Password, err = p.password("Password: "); err != nil {
		return req, err
	}
	confirmPassword, err := p.password("Confirm password: ")
	if err != nil {
		return req, err
	}
	if req.Password != confirmPassword {
		return req, errors.New("passwords do not match")
	}
	return req, nil
}

func intFlag(get func(string) (int, error), p *prompter, flag, question string) (int, error) {
	if v, _ := get(flag); v > 0 {
		return v, nil
	}
	s, err := p.ask(question)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q", flag, s)
	}
	return v, nil
}

func floatFlag(get func(string) (float64, error), p *prompter, flag, question string) (float64, error) {
	if v, _ := get(flag); v > 0 {
		return v, nil
	}
	s, err := p.ask(question)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q", flag, s)
	}
	return v, nil
}

// prompter asks questions on w and reads answers from in.
type prompter struct {
	in     *os.File
	reader *bufio.Reader
	w      io.Writer
}

func newPrompter(in *os.File, w io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), w: w}
}

func (p *prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.w, question)
	return p.readLine()
}

func (p *prompter) password(question string) (string, error) {
	fmt.Fprint(p.w, question)
	pw, err := ui.ReadPassword(p.in, p.readLine)
	if ui.IsTerminal(p.in) {
		fmt.Fprintln(p.w)
	}
	return pw, err
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)

	f := registerCmd.Flags()
	f.String("username", "", "Account username")
	f.String("name", "", "Display name")
	f.String("gender", "", "Gender (M or F)")
	f.Int("age", 0, "Age in years")
	f.Float64("height", 0, "Height in cm")
	f.Float64("weight", 0, "Weight in kg")
	f.String("goal", "", "Diet goal (loss, maintain, gain)")
	f.Bool("vegetarian", false, "Vegetarian diet")
	f.StringSlice("condition", nil, "Health conditions (repeatable or comma separated)")
}
