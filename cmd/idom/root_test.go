package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardDoc = `<html><body><div idom-node-id="card"><p idom-class="t-idom$tone">idom$title</p></div></body></html>`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd("test")
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRender_PopulatesNode(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "page.html", cardDoc)

	out, _, err := execute(t, "render", "--doc", doc, "--node", "card",
		"--data", `{"title":"Hello","tone":"warm"}`, "--instance", "first")
	require.NoError(t, err)
	assert.Contains(t, out, `<p idom-class="t-warm" idom-instance-name="first" class="t-warm">Hello</p>`)
}

func TestRender_SettingsFileAndFlagOverride(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "page.html", cardDoc)
	settings := writeFile(t, dir, "settings.json", `{"instanceName":"fromfile","forClone":"x"}`)

	out, _, err := execute(t, "render", "--doc", doc, "--node", "card",
		"--data", `{"title":"Hi","tone":"a"}`, "--settings", settings, "--instance", "fromflag")
	require.NoError(t, err)
	assert.Contains(t, out, `idom-instance-name="fromflag"`)
	assert.NotContains(t, out, "fromfile")
}

func TestRender_Diff(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "page.html", "<html><body>\n"+`<div idom-node-id="card"><p>idom$title</p></div>`+"\n</body></html>")

	out, _, err := execute(t, "render", "--doc", doc, "--node", "card",
		"--data", `{"title":"Hi"}`, "--instance", "a", "--diff")
	require.NoError(t, err)
	assert.Contains(t, out, "+")
	assert.Contains(t, out, "Hi")
}

func TestRender_RejectsUnknownMode(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "page.html", cardDoc)

	_, _, err := execute(t, "render", "--doc", doc, "--node", "card", "--mode", "sideways")
	require.Error(t, err)
}

func TestRender_RequiresNode(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "page.html", cardDoc)

	_, _, err := execute(t, "render", "--doc", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--node")
}

func TestInspect_ReportsNodesAndFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.html", cardDoc)
	bad := writeFile(t, dir, "bad.html", `<div idom-node-id="x"><p></p><p></p></div>`)

	out, stderr, err := execute(t, "inspect", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out, good+"\tcard\ttone,title")
	assert.Contains(t, stderr, bad)
}

func TestRunAndClone_Script(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "page.html", cardDoc)
	steps := writeFile(t, dir, "steps.yaml", `
steps:
  - op: populate
    node: card
    data: {title: One, tone: cool}
    settings: {instanceName: one, forClone: s}
`)

	out, _, err := execute(t, "run", "--doc", doc, "--script", steps)
	require.NoError(t, err)
	assert.Contains(t, out, `idom-instance-name="one"`)

	out, _, err = execute(t, "clone", "--doc", doc, "--script", steps, "--node", "card", "--id", "copy")
	require.NoError(t, err)
	assert.Contains(t, out, `idom-node-id="card@clone@copy"`)
	assert.Contains(t, out, `idom-instance-name="one@clone@copy"`)
}

func TestClone_UnpopulatedFails(t *testing.T) {
	doc := writeFile(t, t.TempDir(), "page.html", cardDoc)

	_, _, err := execute(t, "clone", "--doc", doc, "--node", "card")
	require.Error(t, err)
}

func TestRun_WritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "page.html", cardDoc)
	steps := writeFile(t, dir, "steps.json", `{"steps":[{"op":"populate","node":"card","data":{"title":"J","tone":"t"},"settings":{"instanceName":"j","forClone":"s"}}]}`)
	target := filepath.Join(dir, "out.html")

	_, stderr, err := execute(t, "run", "--doc", doc, "--script", steps, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, stderr, target)

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(written), `idom-instance-name="j"`)
}

func TestConventionsFile(t *testing.T) {
	dir := t.TempDir()
	conv := writeFile(t, dir, "conv.yaml", "tokenPrefix: \"tk$\"\n")
	doc := writeFile(t, dir, "page.html", `<div idom-node-id="n"><p>tk$v</p></div>`)

	out, _, err := execute(t, "--conventions", conv, "render", "--doc", doc, "--node", "n",
		"--data", `{"v":"ok"}`, "--instance", "a")
	require.NoError(t, err)
	assert.Contains(t, out, `<p idom-instance-name="a">ok</p>`)
}
