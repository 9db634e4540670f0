// Command tideman tabulates ranked ballots offline with the ranked-pairs method.
//
//	tideman Alice Bob Charlie < ballots.txt
//
// Each input line is one ballot: every candidate name, most preferred first,
// separated by commas. Blank lines and lines starting with # are skipped.
// The winner is printed on stdout.
//
// Exit codes: 1 usage or input error, 2 too many candidates, 3 invalid ballot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
