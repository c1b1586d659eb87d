package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/cuecard/internal/learning"
	"github.com/conorfennell/cuecard/internal/review"
)

// NewReviewCmd creates the review command.
func NewReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review <script-id>",
		Short: "Review a script's lines in the terminal",
		Long: `Review a script's lines in the terminal.

The cue is shown first. Say your line, press Enter to reveal it, then answer
y if you got it or n if you missed it. q quits at any prompt; progress is
saved after every answer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return runReview(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.reviewService(db), args[0])
		},
	}
}

func runReview(ctx context.Context, in io.Reader, out io.Writer, svc *review.Service, scriptID string) error {
	scanner := bufio.NewScanner(in)
	prompt := func(text string) (string, bool) {
		fmt.Fprint(out, text)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return "", false
		}
		return strings.ToLower(strings.TrimSpace(scanner.Text())), true
	}

	p, err := svc.Next(ctx, scriptID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (as %s)\n", p.Script.Title, p.Script.MyCharacter)

	for !p.Complete() {
		fmt.Fprintf(out, "\n%s · %s · streak %d/%d\n", p.Summary.Label, p.Summary.LineRange, p.Streak, learning.MasteryThreshold)
		if p.Scene != "" {
			fmt.Fprintf(out, "[%s]\n", p.Scene)
		}
		if p.Line.CueCharacter != "" {
			fmt.Fprintf(out, "%s: %s\n", p.Line.CueCharacter, p.Line.Cue)
		} else {
			fmt.Fprintln(out, p.Line.Cue)
		}

		answer, ok := prompt("[Enter] reveal, q quit > ")
		if !ok || answer == "q" {
			return nil
		}
		fmt.Fprintf(out, "%s: %s\n", p.Line.ResponseCharacter, p.Line.Response)

		for {
			answer, ok = prompt("Got it? [y/n/q] > ")
			if !ok || answer == "q" {
				return nil
			}
			if answer != "y" && answer != "n" {
				continue
			}

			next, err := svc.Grade(ctx, scriptID, p.Line.ID, p.Turn, answer == "y")
			switch {
			case err == nil:
				p = next
			case errors.Is(err, review.ErrNotCurrentLine):
				fmt.Fprintln(out, "This card was already graded elsewhere. Moving on.")
				if p, err = svc.Next(ctx, scriptID); err != nil {
					return err
				}
			case errors.Is(err, review.ErrScriptNotFound):
				return err
			default:
				// Nothing was saved; the same card can be graded again.
				fmt.Fprintf(out, "Could not save your answer: %v\n", err)
				continue
			}
			break
		}
	}

	fmt.Fprintf(out, "\nAll %d lines mastered.", p.TotalLines)
	if p.NextReviewIn != "" {
		fmt.Fprintf(out, " Next review in %s.", p.NextReviewIn)
	}
	fmt.Fprintln(out)
	return nil
}
