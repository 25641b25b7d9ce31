package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var authorInteractive bool

var authorCmd = &cobra.Command{
	Use:   "author [payload]",
	Short: "author a new event extending the current tips and broadcast it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := resolveAuthorPayload(args)
		if err != nil {
			return err
		}

		g, closer, err := openGraph()
		if err != nil {
			return err
		}
		defer closer()

		id, err := g.Author(rootCtx, payload)
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{"event_id": id.String()})
		}
		fmt.Println(id.String())
		return nil
	},
}

// resolveAuthorPayload returns the payload bytes either from the
// positional argument or, with --interactive, from a huh form — the
// same prompt-for-a-field idiom as the teacher's cmd/bd create-form.
func resolveAuthorPayload(args []string) ([]byte, error) {
	if !authorInteractive {
		if len(args) != 1 {
			return nil, fmt.Errorf("author: payload argument required unless --interactive is set")
		}
		return []byte(args[0]), nil
	}

	var payload string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Payload").
				Description("Event body to author onto the current tips").
				Value(&payload).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("payload must not be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return nil, fmt.Errorf("author: cancelled")
		}
		return nil, fmt.Errorf("author: form: %w", err)
	}
	return []byte(payload), nil
}

func init() {
	authorCmd.Flags().BoolVar(&authorInteractive, "interactive", false, "prompt for the payload using an interactive form")
}
