package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"judgegate/internal/report"

	"github.com/stretchr/testify/require"
)

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	clean := filepath.Join(dir, "clean.json")
	require.NoError(t, os.WriteFile(clean, []byte(`[]`), 0o644))
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`[{"file":"a.hs"}]`), 0o644))
	xml := filepath.Join(dir, "vg.xml")
	require.NoError(t, os.WriteFile(xml, []byte(`<valgrindoutput><tool>memcheck</tool></valgrindoutput>`), 0o644))

	out := filepath.Join(dir, "report.json")
	grade := filepath.Join(dir, "grade")

	cases := []struct {
		name string
		args []string
		want int
	}{
		{name: "accepted", args: []string{"normalize", "hlint", clean, "2", out, grade}, want: report.ExitAccepted},
		{name: "missing field", args: []string{"normalize", "hlint", broken, "2", out, grade}, want: report.ExitInternalError},
		{name: "arg count", args: []string{"normalize", "pylint", clean, "2"}, want: report.ExitBadInvocation},
		{name: "no tool", args: []string{"normalize"}, want: report.ExitBadInvocation},
		{name: "memcheck clean", args: []string{"normalize", "memcheck", xml, out + ".mem"}, want: report.ExitMemoryClean},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, run(context.Background(), tc.args))
		})
	}

	data, err := os.ReadFile(grade)
	require.NoError(t, err)
	require.Equal(t, "10 10", string(data))
}

func TestRunDashPrefixedArguments(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.WriteFile("-in.json", []byte(`[]`), 0o644))

	code := run(context.Background(), []string{"normalize", "pylint", "-in.json", "1", "-report.json", "-grade"})
	require.Equal(t, report.ExitAccepted, code)

	data, err := os.ReadFile("-grade")
	require.NoError(t, err)
	require.Equal(t, "10 10", string(data))

	require.NoError(t, os.WriteFile("-vg.xml", []byte(`<valgrindoutput><tool>memcheck</tool></valgrindoutput>`), 0o644))
	code = run(context.Background(), []string{"normalize", "memcheck", "-vg.xml", "-mem.json"})
	require.Equal(t, report.ExitMemoryClean, code)
}
