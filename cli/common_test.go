package cli

import (
	"bytes"
	"testing"
)

func executeCli(args []string) (int, string, string) {
	cli := New("test-version")

	stdout := bytes.NewBufferString("")
	stderr := bytes.NewBufferString("")

	cli.rootCmd.SetOut(stdout)
	cli.rootCmd.SetErr(stderr)
	cli.rootCmd.SetArgs(args)

	code := cli.Execute()
	return code, stdout.String(), stderr.String()
}

func mustExecute(t *testing.T, args []string) string {
	code, stdout, stderr := executeCli(args)
	if code != 0 {
		t.Fatalf("failed to execute %v: exit code %d: %s", args, code, stderr)
	}
	return stdout
}
