package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliRoster = `id,first_name,last_name,email,company,title,industry,years_experience,skills,interests
r1,Ada,Lovelace,ada@example.com,Engines,Founder,Compute,12,Math;Poetry,Looms
r2,Grace,Hopper,grace@example.com,Navy,Admiral,Defense,30,COBOL,Ships
r3,Alan,Turing,alan@example.com,Bletchley,Researcher,Cryptography,8,Logic,Chess
r4,Katherine,Johnson,kj@example.com,NASA,Mathematician,Aerospace,20,Orbits,Space
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// isolate keeps a developer's .env from pointing the CLI at real services.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("VELVET_STATE_DIR", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("VELVET_SEED", "")
	t.Setenv("VELVET_REPLAY_INTERVAL_MS", "")
	return t.TempDir()
}

func TestCLI_RunStatusReset(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(input, []byte(cliRoster), 0o644))
	stateDir := filepath.Join(dir, "state")

	out, err := execute(t, "run",
		"--input", input,
		"--state-dir", stateDir,
		"--offline",
		"--seed", "7",
		"--window-ms", "1",
		"--replay-interval-ms", "0",
		"--capacity", "2",
		"--rounds", "3",
	)
	require.NoError(t, err, out)

	assert.Contains(t, out, "DOSSIERS")
	assert.Contains(t, out, "Profiles: 4 (0 generated, 4 fallback)")
	assert.Contains(t, out, "THE PLEA")
	assert.Contains(t, out, "THE LIST")
	assert.Contains(t, out, "Admitted: 2 of 4")
	assert.Contains(t, out, "ROUND 1")
	assert.Contains(t, out, "ROUND 3")
	assert.NotContains(t, out, "ROUND 4")
	assert.Contains(t, out, "THE FLOOR")
	assert.Contains(t, out, "Seed: 7")
	assert.FileExists(t, filepath.Join(stateDir, "velvet-rope-pipeline.json"))

	out, err = execute(t, "status", "--state-dir", stateDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "PIPELINE STATUS")
	assert.Contains(t, out, "▶ 7. party")
	assert.Contains(t, out, "Admitted:   2 of 4")

	out, err = execute(t, "reset", "--state-dir", stateDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Pipeline reset to upload (The Line)")

	out, err = execute(t, "status", "--state-dir", stateDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "▶ 1. upload")
}

func TestCLI_RunMissingInputFile(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, "run",
		"--input", filepath.Join(dir, "missing.csv"),
		"--state-dir", dir,
		"--offline",
	)
	assert.Error(t, err)
}

func TestCLI_InvalidConfig(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"log_level":"loud"}`), 0o644))

	t.Cleanup(func() { rootConfigPath = "" })

	_, err := execute(t, "status", "--config", cfgPath, "--state-dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}
