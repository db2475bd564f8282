package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/casedesk/casedesk/internal/intake"
	"github.com/casedesk/casedesk/pkg/casedeskclient"
)

// Terminal seams, replaced in tests.
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// resolveToken reads CASEDESK_TOKEN, or prompts on an interactive terminal.
// An empty token is allowed for servers running in development mode.
func resolveToken(stdin *os.File, w io.Writer) (string, error) {
	if tok := strings.TrimSpace(os.Getenv("CASEDESK_TOKEN")); tok != "" {
		return tok, nil
	}
	fd := int(stdin.Fd())
	if !isTerminal(fd) {
		return "", nil
	}
	if _, err := fmt.Fprint(w, "Token: "); err != nil {
		return "", err
	}
	raw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// parseAssignments turns repeated name=value flags into field values.
func parseAssignments(in []string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for _, a := range in {
		name, value, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field assignment %q, want name=value", a)
		}
		out[name] = value
	}
	return out, nil
}

func newClient(cmd *cobra.Command) (*casedeskclient.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	token, err := resolveToken(os.Stdin, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	var opts []casedeskclient.Option
	if token != "" {
		opts = append(opts, casedeskclient.WithToken(token))
	}
	return casedeskclient.New(server, opts...), nil
}

// loadController fetches the form and applies the --set assignments.
func loadController(ctx context.Context, cmd *cobra.Command, api intake.API, profileID string) (*intake.Controller, error) {
	sets, _ := cmd.Flags().GetStringArray("set")
	values, err := parseAssignments(sets)
	if err != nil {
		return nil, err
	}
	ctrl := intake.NewController(api, profileID)
	if err := ctrl.Load(ctx); err != nil {
		return nil, errors.New(intake.UserMessage(err))
	}
	for name, value := range values {
		if err := ctrl.Set(name, value); err != nil {
			return nil, err
		}
	}
	return ctrl, nil
}

// printOutcome reports the controller state after an operation.
func printOutcome(w io.Writer, ctrl *intake.Controller, opErr error) error {
	fmt.Fprintf(w, "state: %s\nstep: %d\nversion: %d\n", ctrl.State(), ctrl.Step(), ctrl.Version())
	if msg := ctrl.Message(); msg != "" {
		fmt.Fprintf(w, "message: %s\n", msg)
	}
	for _, fe := range ctrl.Errors() {
		fmt.Fprintf(w, "  %-45s %s\n", fe.Path, fe.Message)
	}
	if opErr != nil {
		return errors.New(intake.UserMessage(opErr))
	}
	return nil
}

func intakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intake",
		Short: "Fill the intake form of a profile",
	}
	defaultServer := os.Getenv("CASEDESK_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080/api/v1"
	}
	cmd.PersistentFlags().String("server", defaultServer, "API base URL")

	// intake draft
	draftCmd := &cobra.Command{
		Use:   "draft <profile-id>",
		Short: "Save the current section as a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ctrl, err := loadController(ctx, cmd, client, args[0])
			if err != nil {
				return err
			}

			jump, _ := cmd.Flags().GetInt("jump")
			if jump >= 0 {
				err = ctrl.JumpTo(ctx, jump)
			} else {
				err = ctrl.SaveDraft(ctx)
			}
			return printOutcome(cmd.OutOrStdout(), ctrl, err)
		},
	}
	draftCmd.Flags().StringArray("set", nil, "Field value as name=value (repeatable)")
	draftCmd.Flags().Int("jump", -1, "Move to this step after saving")
	cmd.AddCommand(draftCmd)

	// intake submit
	submitCmd := &cobra.Command{
		Use:   "submit <profile-id>",
		Short: "Submit the whole form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ctrl, err := loadController(ctx, cmd, client, args[0])
			if err != nil {
				return err
			}

			fromReview, _ := cmd.Flags().GetBool("from-review")
			editing, _ := cmd.Flags().GetBool("editing")
			err = ctrl.Submit(ctx, fromReview, editing)
			if r := ctrl.Redirect(); err == nil && r != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "redirect: %s\n", r)
			} else if nav := ctrl.Navigation(); err != nil && nav.Step > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "redirect: %s\n", nav.Query())
			}
			return printOutcome(cmd.OutOrStdout(), ctrl, err)
		},
	}
	submitCmd.Flags().StringArray("set", nil, "Field value as name=value (repeatable)")
	submitCmd.Flags().Bool("from-review", false, "Submit from the review screen")
	submitCmd.Flags().Bool("editing", false, "Staff edit of a submitted form")
	cmd.AddCommand(submitCmd)

	// intake review
	reviewCmd := &cobra.Command{
		Use:   "review <profile-id>",
		Short: "Show the read-only review of the answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rv, err := client.GetReview(ctx, args[0])
			if err != nil {
				return errors.New(intake.UserMessage(err))
			}
			printReview(cmd.OutOrStdout(), rv)

			confirmFlag, _ := cmd.Flags().GetBool("confirm")
			if !confirmFlag {
				return nil
			}
			if !rv.ConfirmEnabled {
				return errors.New("O formulário já foi enviado")
			}
			res, err := client.ConfirmReview(ctx, args[0], rv.Version)
			if err != nil {
				if ae, ok := casedeskclient.AsAPIError(err); ok {
					for _, fe := range ae.Errors {
						fmt.Fprintf(cmd.OutOrStdout(), "  %-45s %s\n", fe.Path, fe.Message)
					}
				}
				return errors.New(intake.UserMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "message: %s\nredirect: %s\n", res.Message, res.Redirect)
			return nil
		},
	}
	reviewCmd.Flags().Bool("confirm", false, "Confirm and submit after showing the review")
	cmd.AddCommand(reviewCmd)

	return cmd
}

func printReview(w io.Writer, rv *casedeskclient.Review) {
	status := "editable"
	if !rv.Editable {
		status = "submitted"
	}
	fmt.Fprintf(w, "version %d (%s)\n", rv.Version, status)
	for _, s := range rv.Sections {
		fmt.Fprintf(w, "\n[%d] %s\n", s.Step, s.Title)
		for _, it := range s.Items {
			if it.Hidden {
				continue
			}
			value := it.Value
			if value == "" {
				value = "-"
			}
			fmt.Fprintf(w, "  %-50s %s\n", it.Label, value)
		}
	}
}
