package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/qobs-build/cxxlaunch/internal/builder"
	"github.com/qobs-build/cxxlaunch/internal/msg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls *[]builder.Invocation
	fail  map[string]error // artifact -> error
}

func (r fakeRunner) Run(inv builder.Invocation) error {
	*r.calls = append(*r.calls, inv)
	for _, arg := range inv {
		if err, ok := r.fail[arg]; ok {
			return err
		}
	}
	return nil
}

// harness runs the CLI against a recording runner
type harness struct {
	t      *testing.T
	dir    string
	calls  []builder.Invocation
	fail   map[string]error
	stdout bytes.Buffer
	stderr bytes.Buffer
	log    bytes.Buffer

	runnerDir string
	runnerEnv map[string]string
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, dir: t.TempDir()}
	prev := msg.Output()
	msg.SetOutput(&h.log)
	t.Cleanup(func() { msg.SetOutput(prev) })
	return h
}

func (h *harness) factory(dir string, env map[string]string, _, _ io.Writer) builder.Runner {
	h.runnerDir, h.runnerEnv = dir, env
	return fakeRunner{calls: &h.calls, fail: h.fail}
}

func (h *harness) run(args ...string) int {
	h.calls = nil
	h.stdout.Reset()
	h.stderr.Reset()
	h.log.Reset()
	return run(append([]string{"-C", h.dir}, args...), &h.stdout, &h.stderr, h.factory)
}

func (h *harness) writeSettings(content string) {
	require.NoError(h.t, os.WriteFile(filepath.Join(h.dir, builder.SettingsFilename), []byte(content), 0o644))
}

func exitErr(t *testing.T, code string) error {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	err := exec.Command("sh", "-c", "exit "+code).Run()
	require.Error(t, err)
	return err
}

func TestRoot_NoArgsMeansRelease(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("--driver", "unix"))
	require.Len(t, h.calls, 2)
	for _, inv := range h.calls {
		assert.NotContains(t, inv, "-g")
	}
	assert.Equal(t, "sample_surface.bin", h.calls[0][len(h.calls[0])-1])
	assert.Equal(t, "bvh.bin", h.calls[1][len(h.calls[1])-1])
	assert.Equal(t, h.dir, h.runnerDir)
}

func TestRoot_DebugToggle(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("debug", "--driver", "msvc"))
	require.Len(t, h.calls, 2)
	for _, inv := range h.calls {
		assert.Equal(t, "cl", inv[0])
		assert.Equal(t, "/Zi", inv[1])
	}
}

func TestRoot_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown toggle", []string{"bogus"}},
		{"toggle with wrong case", []string{"DEBUG"}},
		{"too many arguments", []string{"debug", "debug"}},
		{"unknown flag", []string{"--nope"}},
		{"bad driver", []string{"--driver", "gcc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			assert.Equal(t, 1, h.run(tt.args...))
			assert.Empty(t, h.calls, "no compiler may be spawned")
			assert.Contains(t, h.stdout.String(), "Usage:")
			assert.Contains(t, h.stdout.String(), "invalid usage")
		})
	}
}

func TestRoot_PropagatesCompilerExitStatus(t *testing.T) {
	h := newHarness(t)
	h.fail = map[string]error{"sample_surface.bin": exitErr(t, "3")}

	assert.Equal(t, 3, h.run("--driver", "unix"))
	assert.Len(t, h.calls, 2, "remaining targets still build")
	assert.Contains(t, h.log.String(), "target sample_surface: compiler exited with status 3")
}

func TestRoot_KeepGoingFromSettingsAndFlag(t *testing.T) {
	h := newHarness(t)
	h.fail = map[string]error{"sample_surface.bin": exitErr(t, "2")}
	h.writeSettings("[launch]\nkeep_going = false\n")

	assert.Equal(t, 2, h.run("--driver", "unix"))
	assert.Len(t, h.calls, 1)

	assert.Equal(t, 2, h.run("--driver", "unix", "--keep-going"))
	assert.Len(t, h.calls, 2)
}

func TestRoot_SettingsEnvAndDir(t *testing.T) {
	h := newHarness(t)
	h.writeSettings(`
[launch]
dir = "work"

[env]
LAUNCH_FLAVOR = "{{ target_os }}"
`)

	require.Equal(t, 0, h.run("--driver", "unix"))
	assert.Equal(t, filepath.Join(h.dir, "work"), h.runnerDir)
	assert.Equal(t, map[string]string{"LAUNCH_FLAVOR": runtime.GOOS}, h.runnerEnv)
}

func TestRoot_Only(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("--driver", "unix", "--only", "bvh"))
	require.Len(t, h.calls, 1)
	assert.Contains(t, h.calls[0], "apps/bvh.cpp")
	assert.Contains(t, h.log.String(), "building 1 of 2 targets")

	assert.Equal(t, 1, h.run("--only", "nothing*"))
	assert.Empty(t, h.calls)
	assert.Contains(t, h.log.String(), "no targets match")
}

func TestRoot_DryRun(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("debug", "--driver", "unix", "-n"))
	assert.Empty(t, h.calls)
	assert.Equal(t,
		"c++ -g -std=c++20 -O2 apps/sample_surface.cpp libs/read_stl.cpp -o sample_surface.bin\n"+
			"c++ -g -std=c++20 -O2 apps/bvh.cpp libs/read_stl.cpp -o bvh.bin\n",
		h.stdout.String())
}

func TestPlan_JSON(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("plan", "--driver", "msvc", "--format", "json"))
	assert.Empty(t, h.calls)

	var entries []builder.PlanEntry
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "sample_surface", entries[0].Target)
	assert.Equal(t, "sample_surface.exe", entries[0].Output)
	assert.Equal(t, h.dir, entries[0].Directory)
	assert.Equal(t, []string{"cl", "/EHsc", "/std:c++20", "/O2", "/Fesample_surface.exe", "apps/sample_surface.cpp", "libs/read_stl.cpp"}, entries[0].Arguments)
}

func TestPlan_TOMLAndUsage(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("plan", "debug", "--driver", "unix", "-f", "toml"))
	assert.Contains(t, h.stdout.String(), "[[invocation]]")
	assert.Contains(t, h.stdout.String(), "bvh.bin")
	assert.Contains(t, h.stdout.String(), "-g")

	assert.Equal(t, 1, h.run("plan", "release"))
	assert.Contains(t, h.stdout.String(), "Usage:")
}

func TestTargets(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 0, h.run("targets", "--driver", "msvc"))
	out := h.stdout.String()
	assert.Contains(t, out, "sample_surface.exe")
	assert.Contains(t, out, "apps/bvh.cpp libs/read_stl.cpp")
	assert.Empty(t, h.calls)
}

func TestRun_Args(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, 1, h.run("run"))
	assert.Contains(t, h.stdout.String(), "missing target name")

	assert.Equal(t, 1, h.run("run", "bvh", "fast"))
	assert.Contains(t, h.stdout.String(), "Usage:")

	assert.Equal(t, 1, h.run("run", "--only", "bvh", "bvh"))
	assert.Contains(t, h.stdout.String(), "--only does not apply to run")
	assert.Empty(t, h.calls)

	assert.Equal(t, 1, h.run("run", "nope"))
	assert.Contains(t, h.log.String(), "unknown target")
	assert.Empty(t, h.calls)
}

func TestRun_BuildsThenRuns(t *testing.T) {
	h := newHarness(t)
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "bvh.bin"), []byte("#!/bin/sh\nexit $1\n"), 0o755))

	assert.Equal(t, 6, h.run("run", "--driver", "unix", "bvh", "debug", "--", "6"))
	require.Len(t, h.calls, 1)
	assert.Equal(t, "-g", h.calls[0][1])
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(nil)
	require.NoError(t, err)
	assert.False(t, opts.Debug)

	opts, err = parseOptions([]string{"debug"})
	require.NoError(t, err)
	assert.True(t, opts.Debug)

	_, err = parseOptions([]string{"--debug"})
	assert.ErrorIs(t, err, builder.ErrUsage)
}

func TestSelectDriver_Auto(t *testing.T) {
	h := newHarness(t)
	l := newLauncher(io.Discard, io.Discard, h.factory)

	l.hostPlatform = func() string { return "Windows" }
	assert.Equal(t, builder.DriverMSVC, l.selectDriver().Kind())

	l.hostPlatform = func() string { return "Linux" }
	assert.Equal(t, builder.DriverUnix, l.selectDriver().Kind())
	assert.Empty(t, h.log.String())

	l.hostPlatform = func() string { return "Plan9" }
	assert.Equal(t, builder.DriverUnix, l.selectDriver().Kind())
	assert.Contains(t, h.log.String(), `unrecognized platform "Plan9"`)
}

func TestEnumValue(t *testing.T) {
	e := NewEnumValue("b", map[string]string{"b": "bee", "a": ""})
	assert.Equal(t, "[a, b]", e.HelpString())
	assert.NoError(t, e.Set("a"))
	assert.Equal(t, "a", e.Value())
	assert.Error(t, e.Set("c"))

	items, _ := e.CompletionFunc()(nil, nil, "")
	assert.Equal(t, []string{"a", "b\tbee"}, items)

	assert.Panics(t, func() { NewEnumValue("z", map[string]string{"a": ""}) })
}
