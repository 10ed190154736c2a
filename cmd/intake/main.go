// Command intake runs the profile questionnaire from a terminal, for
// seeding profiles without the chat UI.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/skinbuddy/concierge/agents"
	"github.com/skinbuddy/concierge/profile"
)

var (
	userID       string
	profilesPath string
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "intake",
		Short: "Create or update a SkinBuddy profile from the terminal",
		RunE:  runIntake,
	}
	root.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id (required)")
	root.PersistentFlags().StringVar(&profilesPath, "profiles", "data/profiles.json", "profile store path")
	root.MarkPersistentFlagRequired("user")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile",
		RunE:  runShow,
	}
	root.AddCommand(show)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIntake(cmd *cobra.Command, _ []string) error {
	store, err := profile.NewStore(profilesPath)
	if err != nil {
		return err
	}
	intake := agents.NewIntake(store)

	reader := bufio.NewReader(os.Stdin)
	ask := func(_ context.Context, question string) (string, error) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n> ", question)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	raw, err := intake.Create(cmd.Context(), userID, ask)
	if err != nil {
		return err
	}

	p := profile.Normalize(raw)
	fmt.Fprintf(cmd.OutOrStdout(), "\nSaved profile for %s: %s skin, concerns: %s\n",
		userID, p.SkinType, p.ConcernsText())
	return nil
}

func runShow(cmd *cobra.Command, _ []string) error {
	store, err := profile.NewStore(profilesPath)
	if err != nil {
		return err
	}
	raw, err := store.Get(userID)
	if err != nil {
		return err
	}
	if raw == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "No profile for %s\n", userID)
		return nil
	}
	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
