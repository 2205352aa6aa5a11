package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/conorfennell/snapcard/internal/progress"
	"github.com/conorfennell/snapcard/internal/session"
	"github.com/conorfennell/snapcard/internal/srs"
)

// runStudy runs a review session on a line-based terminal prompt.
// An empty line reveals the answer, then again/good/easy (or 1/2/3) grades
// the card. "q" ends the session early.
func runStudy(ctrl *session.Controller, in io.Reader, out io.Writer, now func() time.Time) error {
	status, err := ctrl.Start(now())
	if err != nil {
		return err
	}
	defer ctrl.End()
	if status == session.StatusEmpty {
		fmt.Fprintln(out, "Nothing is due. Come back later.")
		return nil
	}

	scanner := bufio.NewScanner(in)
	readLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for ctrl.Status() == session.StatusActive {
		card, err := ctrl.CurrentCard()
		if err != nil {
			return err
		}
		index, total := ctrl.Position()
		fmt.Fprintf(out, "\n[%d of %d] %s\n(press enter to show the answer, q to quit) ", index, total, card.Question)
		line, ok := readLine()
		if !ok || line == "q" {
			break
		}

		preview, err := ctrl.Preview(now())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", card.Answer)
		fmt.Fprintf(out, "1) again %dd  2) good %dd  3) easy %dd: ",
			preview[srs.Again].IntervalDays, preview[srs.Good].IntervalDays, preview[srs.Easy].IntervalDays)

		var j srs.Judgment
		for {
			line, ok = readLine()
			if !ok || line == "q" {
				return scanner.Err()
			}
			if j, err = srs.ParseJudgment(line); err == nil {
				break
			}
			fmt.Fprint(out, "Please answer 1, 2 or 3: ")
		}

		if err := ctrl.RecordJudgment(j, now()); err != nil {
			if !errors.Is(err, session.ErrStreakNotSaved) {
				return err
			}
			fmt.Fprintln(out, "Warning: study streak could not be saved.")
		}
	}

	if ctrl.Status() == session.StatusEmpty {
		stats := ctrl.Stats(now())
		fmt.Fprintf(out, "\nAll caught up! Study streak: %d days (%s)\n",
			stats.StudyStreak, progress.StreakTier(stats.StudyStreak))
	}
	return scanner.Err()
}
