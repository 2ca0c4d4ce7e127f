package pkgmgr

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls   []call
	outputs map[string]string
	errs    map[string]error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name, args})
	key := strings.Join(args, " ")
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return []byte(f.outputs[key]), nil
}

func TestProbeAbsentNeverLists(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{"--version": errors.New("executable file not found")}}

	result, err := NewProbe(runner, Options{}).Probe(context.Background())

	require.NoError(t, err)
	assert.False(t, result.Present)
	assert.Empty(t, result.Packages)
	require.Len(t, runner.calls, 1, "only the version check runs")
	assert.Equal(t, call{"choco", []string{"--version"}}, runner.calls[0])
}

func TestProbeListsPackages(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"--version":           "2.2.2\n",
		"list --limit-output": "git|2.43.0\n7zip|23.1.0\n\nGoogleChrome|120.0\n  vscode | 1.85 \n",
	}}

	result, err := NewProbe(runner, Options{}).Probe(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Present)
	assert.Equal(t, "2.2.2", result.Version)
	assert.Equal(t, []string{"7zip", "git", "GoogleChrome", "vscode"}, result.Packages)
}

func TestProbeListArgsFollowVersion(t *testing.T) {
	tests := []struct {
		version string
		want    []string
	}{
		{"0.10.15", []string{"list", "--local-only", "--limit-output"}},
		{"1.4.0", []string{"list", "--local-only", "--limit-output"}},
		{"2.0.0", []string{"list", "--limit-output"}},
		{"v2.3.0", []string{"list", "--limit-output"}},
		{"unknown", []string{"list", "--limit-output"}},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			runner := &fakeRunner{outputs: map[string]string{"--version": tt.version}}
			_, err := NewProbe(runner, Options{}).Probe(context.Background())
			require.NoError(t, err)
			require.Len(t, runner.calls, 2)
			assert.Equal(t, tt.want, runner.calls[1].args)
		})
	}
}

func TestProbeListArgsOverride(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"--version": "1.0"}}

	_, err := NewProbe(runner, Options{Command: "scoop", ListArgs: []string{"export"}}).Probe(context.Background())

	require.NoError(t, err)
	assert.Equal(t, call{"scoop", []string{"export"}}, runner.calls[1])
}

func TestProbeListingFailure(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"--version": "2.2.2"},
		errs:    map[string]error{"list --limit-output": errors.New("exit status 1")},
	}

	result, err := NewProbe(runner, Options{}).Probe(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrListingFailed)
	assert.True(t, result.Present)
	assert.Equal(t, "2.2.2", result.Version)
	assert.Empty(t, result.Packages)
}

func TestParseListing(t *testing.T) {
	assert.Empty(t, ParseListing(nil))
	assert.Equal(t, []string{"a", "b"}, ParseListing([]byte("b\r\na|1\r\n|orphan\n")))
}

func TestExecRunnerMissingCommand(t *testing.T) {
	r := NewExecRunner(0)
	assert.Equal(t, DefaultTimeout, r.Timeout)

	_, err := r.Run(context.Background(), "winbackup-no-such-command")
	assert.Error(t, err)
}

func TestExecRunnerCapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
	r := NewExecRunner(10 * time.Second)

	out, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", string(out))

	_, err = r.Run(context.Background(), "sh", "-c", "exit 3")
	assert.Error(t, err)
}
