// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

const cycleBallots = `# three-way cycle
Alice, Bob, Charlie
Alice, Bob, Charlie
Alice, Bob, Charlie

Bob, Charlie, Alice
Bob, Charlie, Alice
Charlie, Alice, Bob
Charlie, Alice, Bob
`

func TestWinner(t *testing.T) {
	out, _, err := run(t, cycleBallots, "Alice", "Bob", "Charlie")
	require.NoError(t, err)
	assert.Equal(t, "Alice\n", out)
}

func TestStandings(t *testing.T) {
	out, _, err := run(t, cycleBallots, "--standings", "Alice", "Bob", "Charlie")
	require.NoError(t, err)
	assert.Equal(t, "Alice\n1. Alice\n2. Bob\n3. Charlie\n", out)
}

func TestVerboseLogsPairs(t *testing.T) {
	_, logs, err := run(t, cycleBallots, "-v", "Alice", "Bob", "Charlie")
	require.NoError(t, err)
	assert.Contains(t, logs, "locked=false")
	assert.Contains(t, logs, "tabulated 7 ballots")
}

func TestFileInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ballots.txt")
	require.NoError(t, os.WriteFile(path, []byte("B,A\nB,A\nA,B\n"), 0o600))

	out, _, err := run(t, "", "--file", path, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, "B\n", out)
}

func TestNoWinner(t *testing.T) {
	out, logs, err := run(t, "A,B\nB,A\n", "A", "B")
	require.NoError(t, err)
	assert.Equal(t, "no winner\n", out)
	assert.Contains(t, logs, "no unique winner")
}

func TestSingleCandidate(t *testing.T) {
	out, logs, err := run(t, "", "Solo")
	require.NoError(t, err)
	assert.Equal(t, "Solo\n", out)
	assert.Contains(t, logs, "no ballots read")
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  int
	}{
		{"no candidates", "", nil, exitUsage},
		{"missing file", "", []string{"--file", "/nonexistent/ballots.txt", "A", "B"}, exitUsage},
		{"duplicate candidate", "", []string{"A", "A"}, exitUsage},
		{"too many candidates", "", strings.Fields("a b c d e f g h i j"), exitTooMany},
		{"unknown name", "A,Z\n", []string{"A", "B"}, exitInvalidBallot},
		{"short ballot", "A\n", []string{"A", "B"}, exitInvalidBallot},
		{"repeated name", "A,A\n", []string{"A", "B"}, exitInvalidBallot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
}

func TestInvalidBallotReportsLine(t *testing.T) {
	_, _, err := run(t, "# header\nA,B\nA,Q\n", "A", "B")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}
