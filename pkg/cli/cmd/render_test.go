package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/depman/pkg/cli/output"
	"github.com/LENAX/depman/pkg/core/engine"
	"github.com/LENAX/depman/pkg/core/node"
)

func init() {
	color.NoColor = true
}

func TestRenderPlan(t *testing.T) {
	plan := &engine.PlanResult{
		Targets: []string{"app"},
		Entries: []engine.PlanEntry{
			{NodeID: "input", Level: 0, State: node.StateOK, Reason: "ok"},
			{NodeID: "lib", Parents: []string{"input"}, Level: 1, State: node.StateChanged, Rebuild: true, Reason: "changed"},
			{NodeID: "app", Parents: []string{"lib", "input"}, Level: 2, State: node.StateOK, Rebuild: true, Reason: "parent lib"},
		},
	}

	var buf bytes.Buffer
	renderPlan(&buf, plan)
	goldie.New(t, goldie.WithFixtureDir("testdata/golden")).Assert(t, "plan", buf.Bytes())
}

func TestRenderRun(t *testing.T) {
	result := &engine.RunResult{
		RunID:      "run-1",
		Status:     engine.RunStatusFailed,
		FailedNode: "lib",
		Dispatched: []string{"lib"},
		UpToDate:   []string{"input"},
		States: map[string]node.State{
			"input": node.StateOK,
			"lib":   node.StateChanged,
			"app":   node.StateUndefined,
		},
		Duration: 12,
	}

	var buf bytes.Buffer
	renderRun(&buf, result)
	goldie.New(t, goldie.WithFixtureDir("testdata/golden")).Assert(t, "run", buf.Bytes())
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "Version:    "+Version)
}

func TestCommands_BuildPlanShow(t *testing.T) {
	dir := t.TempDir()
	graph := filepath.Join(dir, "depman.yaml")
	cfg := filepath.Join(dir, "depman.config.yaml")
	require.NoError(t, os.WriteFile(graph, []byte("nodes:\n  - id: a\n  - id: b\n    parents: [a]\n"), 0o644))
	require.NoError(t, os.WriteFile(cfg, []byte(
		"depman:\n  storage:\n    database:\n      type: sqlite\n      dsn: \""+filepath.Join(dir, ".depman")+"\"\n"+
			"  execution:\n    poll_interval: 20ms\n"), 0o644))

	var buf bytes.Buffer
	orig := output.Stdout
	output.Stdout = &buf
	t.Cleanup(func() { output.Stdout = orig })

	run := func(args ...string) string {
		buf.Reset()
		rootCmd.SetArgs(append(args, "--config", cfg, "--file", graph, "--json"))
		require.NoError(t, rootCmd.Execute())
		return buf.String()
	}

	out := run("build", "b")
	assert.Contains(t, out, `"status": "finished"`)
	assert.Contains(t, out, `"a",`)

	out = run("plan")
	assert.Contains(t, out, `"rebuild": false`)
	assert.NotContains(t, out, `"rebuild": true`)

	out = run("show", "b")
	assert.Contains(t, out, `"state": "ok"`)
	assert.Contains(t, out, `"parents": [`)

	rootCmd.SetArgs([]string{"show", "ghost", "--config", cfg, "--file", graph})
	assert.Error(t, rootCmd.Execute())
}
