// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/ranked-pick/tideman"
)

const (
	exitUsage         = 1
	exitTooMany       = 2
	exitInvalidBallot = 3
)

type options struct {
	file      string
	standings bool
	verbose   bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "tideman candidate [candidate ...]",
		Short: "Tabulate ranked ballots with the ranked-pairs method",
		Long: `tideman reads one ballot per line, each a comma-separated ranking of every
candidate, and prints the ranked-pairs winner. Ballots come from --file or stdin.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if opts.verbose {
				level = log.DebugLevel
			}
			logger := newLogger(stderr, level)

			in := stdin
			if opts.file != "" && opts.file != "-" {
				f, err := os.Open(opts.file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			return tabulate(logger, in, stdout, args, opts.standings)
		},
	}

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read ballots from file instead of stdin")
	cmd.Flags().BoolVarP(&opts.standings, "standings", "s", false, "print the full finishing order")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every ranked pair")

	return cmd
}

// newLogger writes timestamps as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func tabulate(logger *log.Logger, in io.Reader, out io.Writer, candidates []string, standings bool) error {
	start := time.Now()

	election, err := tideman.New(candidates)
	if err != nil {
		return err
	}

	n, err := readBallots(in, election)
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Warn("no ballots read")
	}

	res := election.Tabulate()
	for _, p := range res.Pairs {
		logger.Debug("pair",
			"winner", res.Candidates[p.Winner],
			"loser", res.Candidates[p.Loser],
			"margin", p.Margin(),
			"locked", p.Locked,
		)
	}
	logger.Infof("tabulated %d ballots (%s)", res.Ballots, time.Since(start).Round(time.Millisecond))

	if name, ok := res.WinnerName(); ok {
		fmt.Fprintln(out, name)
	} else {
		tied := make([]string, len(res.Sources))
		for i, s := range res.Sources {
			tied[i] = res.Candidates[s]
		}
		logger.Warn("no unique winner", "unbeaten", strings.Join(tied, ", "))
		fmt.Fprintln(out, "no winner")
	}

	if standings {
		for rank, idx := range res.Standings {
			fmt.Fprintf(out, "%d. %s\n", rank+1, res.Candidates[idx])
		}
	}
	return nil
}

// readBallots votes every ballot line of r into e and returns how many were
// recorded. It stops at the first invalid ballot.
func readBallots(r io.Reader, e *tideman.Election) (int, error) {
	sc := bufio.NewScanner(r)
	line, n := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		names := strings.Split(text, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		if err := e.Vote(names); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	return n, sc.Err()
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, tideman.ErrTooManyCandidates):
		return exitTooMany
	case errors.Is(err, tideman.ErrInvalidBallot):
		return exitInvalidBallot
	default:
		return exitUsage
	}
}
