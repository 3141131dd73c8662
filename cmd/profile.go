package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/config"
	"github.com/nutrilens/nlens/internal/ui"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your health profile",
	Long: `Show or update the health profile your evaluations are scored against.`,
}

// profileShowCmd represents the profile show command
var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your health profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client, err := newClient(cfg, true)
		if err != nil {
			return err
		}

		p, err := client.Profile(commandContext(cmd))
		if err != nil {
			return describeAPIError(err)
		}

		theme := ui.NewTheme(ui.IsTerminal(os.Stdout))
		out, err := theme.RenderMarkdown(profileMarkdown(p), ui.Width(os.Stdout))
		if err != nil {
			return fmt.Errorf("rendering profile: %w", err)
		}
		fmt.Print(out)
		return nil
	},
}

// profileSetCmd represents the profile set command
var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update your health profile",
	Long: `Update profile fields. Only the flags you pass are changed.

Conditions are named without the "has_" prefix: ` + strings.Join(conditionNames(), ", ") + `

Examples:
  nlens profile set --weight 68.5
  nlens profile set --goal loss --add-condition hypertension
  nlens profile set --remove-condition gout --vegetarian=false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		upd, err := profileUpdateFromFlags(cmd)
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client, err := newClient(cfg, true)
		if err != nil {
			return err
		}

		if err := client.UpdateProfile(commandContext(cmd), upd); err != nil {
			return describeAPIError(err)
		}
		fmt.Println("Profile updated.")
		return nil
	},
}

func profileUpdateFromFlags(cmd *cobra.Command) (api.ProfileUpdate, error) {
	var upd api.ProfileUpdate
	f := cmd.Flags()

	if f.Changed("name") {
		v, _ := f.GetString("name")
		upd.Name = &v
	}
	if f.Changed("gender") {
		v, _ := f.GetString("gender")
		v = strings.ToUpper(v)
		if v != "M" && v != "F" {
			return upd, fmt.Errorf("invalid gender %q (use M or F)", v)
		}
		upd.Gender = &v
	}
	if f.Changed("age") {
		v, _ := f.GetInt("age")
		if v <= 0 {
			return upd, fmt.Errorf("invalid age %d", v)
		}
		upd.Age = &v
	}
	if f.Changed("height") {
		v, _ := f.GetFloat64("height")
		if v <= 0 {
			return upd, fmt.Errorf("invalid height %g", v)
		}
		upd.Height = &v
	}
	if f.Changed("weight") {
		v, _ := f.GetFloat64("weight")
		if v <= 0 {
			return upd, fmt.Errorf("invalid weight %g", v)
		}
		upd.Weight = &v
	}
	if f.Changed("goal") {
		v, _ := f.GetString("goal")
		v = strings.ToLower(v)
		switch v {
		case "loss", "maintain", "gain":
		default:
			return upd, fmt.Errorf("invalid goal %q (use loss, maintain or gain)", v)
		}
		upd.DietGoal = &v
	}
	if f.Changed("vegetarian") {
		v, _ := f.GetBool("vegetarian")
		upd.IsVegetarian = &v
	}

	add, _ := f.GetStringSlice("add-condition")
	remove, _ := f.GetStringSlice("remove-condition")
	for _, set := range []struct {
		names []string
		value bool
	}{{add, true}, {remove, false}} {
		for _, name := range set.names {
			key, err := conditionKey(name)
			if err != nil {
				return upd, err
			}
			if upd.Conditions == nil {
				upd.Conditions = make(map[string]bool)
			}
			upd.Conditions[key] = set.value
		}
	}

	if !f.Changed("name") && !f.Changed("gender") && !f.Changed("age") &&
		!f.Changed("height") && !f.Changed("weight") && !f.Changed("goal") &&
		!f.Changed("vegetarian") && len(upd.Conditions) == 0 {
		return upd, fmt.Errorf("nothing to update (see 'nlens profile set --help')")
	}
	return upd, nil
}

// conditionFlags returns the JSON flags of c, keyed by "has_*" name.
func conditionFlags(c api.Conditions) map[string]bool {
	data, _ := json.Marshal(c)
	flags := map[string]bool{}
	_ = json.Unmarshal(data, &flags)
	return flags
}

// remarshal copies flags into a Conditions value through their JSON names.
func remarshal(flags map[string]bool, c *api.Conditions) error {
	data, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, c)
}

// conditionNames lists the condition names accepted on the command line.
func conditionNames() []string {
	var names []string
	for key := range conditionFlags(api.Conditions{}) {
		names = append(names, strings.TrimPrefix(key, "has_"))
	}
	sort.Strings(names)
	return names
}

func conditionKey(name string) (string, error) {
	key := "has_" + strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "has_")
	if _, ok := conditionFlags(api.Conditions{})[key]; !ok {
		return "", fmt.Errorf("unknown condition %q (available: %s)", name, strings.Join(conditionNames(), ", "))
	}
	return key, nil
}

func profileMarkdown(p *api.Profile) string {
	var b strings.Builder
	name := p.Name
	if name == "" {
		name = p.Username
	}
	fmt.Fprintf(&b, "# %s\n\n", ui.EscapeMarkdown(name))
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Username | %s |\n", ui.EscapeMarkdown(p.Username))
	fmt.Fprintf(&b, "| Gender | %s |\n", p.Gender)
	fmt.Fprintf(&b, "| Age | %d |\n", p.Age)
	fmt.Fprintf(&b, "| Height | %.1f cm |\n", p.Height)
	fmt.Fprintf(&b, "| Weight | %.1f kg |\n", p.Weight)
	if p.Height > 0 {
		m := p.Height / 100
		fmt.Fprintf(&b, "| BMI | %.1f |\n", p.Weight/(m*m))
	}
	fmt.Fprintf(&b, "| Diet goal | %s |\n", p.DietGoal)
	fmt.Fprintf(&b, "| Vegetarian | %v |\n", p.IsVegetarian)

	var active []string
	for key, on := range conditionFlags(p.Conditions) {
		if on {
			active = append(active, strings.ReplaceAll(strings.TrimPrefix(key, "has_"), "_", " "))
		}
	}
	sort.Strings(active)

	b.WriteString("\n## Conditions\n\n")
	if len(active) == 0 {
		b.WriteString("None recorded.\n")
	}
	for _, c := range active {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return b.String()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)

	f := profileSetCmd.Flags()
	f.String("name", "", "Display name")
	f.String("gender", "", "Gender (M or F)")
	f.Int("age", 0, "Age in years")
	f.Float64("height", 0, "Height in cm")
	f.Float64("weight", 0, "Weight in kg")
	f.String("goal", "", "Diet goal (loss, maintain, gain)")
	f.Bool("vegetarian", false, "Vegetarian diet")
	f.StringSlice("add-condition", nil, "Conditions to add (repeatable or comma separated)")
	f.StringSlice("remove-condition", nil, "Conditions to remove (repeatable or comma separated)")
}
