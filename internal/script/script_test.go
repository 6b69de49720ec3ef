package script

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	idom "github.com/goliatone/go-idom"
	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/pkg/engine"
)

func TestParse_YAMLAndJSON(t *testing.T) {
	yamlScript, err := Parse([]byte(`
steps:
  - op: populate
    node: card
    data: {title: Hi, count: 2}
    settings: {instanceName: a, forClone: c1}
`), "steps.yaml")
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	jsonScript, err := Parse([]byte(`{"steps":[{"op":"populate","node":"card","data":{"title":"Hi","count":2},"settings":{"instanceName":"a","forClone":"c1"}}]}`), "steps.json")
	if err != nil {
		t.Fatalf("json: %v", err)
	}

	if diff := cmp.Diff(yamlScript.Steps[0].Settings, jsonScript.Steps[0].Settings); diff != "" {
		t.Fatalf("settings differ between formats (-yaml +json):\n%s", diff)
	}
	if yamlScript.Steps[0].Data["title"] != "Hi" || jsonScript.Steps[0].Data["title"] != "Hi" {
		t.Fatalf("unexpected data %+v / %+v", yamlScript.Steps[0].Data, jsonScript.Steps[0].Data)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown op":   "steps:\n  - op: explode\n    node: card\n",
		"missing node": "steps:\n  - op: populate\n",
		"bad yaml":     "steps: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw), "bad.yaml"); !errors.Is(err, ErrInvalidScript) {
				t.Fatalf("expected ErrInvalidScript, got %v", err)
			}
		})
	}
}

func TestRunner_ExampleScript(t *testing.T) {
	raw, err := fs.ReadFile(idom.ExamplesFS(), "list.html")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	e, err := idom.LoadString(string(raw))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := LoadFS(idom.ExamplesFS(), "steps.yaml")
	if err != nil {
		t.Fatalf("script: %v", err)
	}

	res, err := NewRunner(e).Run(context.Background(), s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Steps != len(s.Steps) || len(res.Clones) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	list, _ := e.Node("list")
	ids, err := e.Instances(list)
	if err != nil {
		t.Fatalf("instances: %v", err)
	}
	if len(ids) != 1 || ids[0].String() != "one" {
		t.Fatalf("expected only instance one, got %v", ids)
	}

	clone := res.Clones[0]
	if clone.Parent == nil || clone.Parent.Data != "body" {
		t.Fatalf("clone should be appended to body")
	}
	out, _ := dom.Render(clone)
	if !strings.Contains(out, `idom-node-id="badge@link@one@clone@copy"`) {
		t.Fatalf("clone lost its linked node:\n%s", out)
	}
}

func TestRunner_GeneratedCloneIDAndAppendTo(t *testing.T) {
	e, err := idom.LoadString(`<div idom-node-id="host"><div>idom$x</div></div><div idom-node-id="card"><p>idom$t</p></div>`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := Script{Steps: []Step{
		{Op: OpPopulate, Node: "host", Data: map[string]any{"x": "h"}, Settings: map[string]any{"instanceName": "h", "forClone": "c"}},
		{Op: OpPopulate, Node: "card", Data: map[string]any{"t": "t"}, Settings: map[string]any{"instanceName": "a", "forClone": "c"}},
		{Op: OpClone, Node: "card", AppendTo: "host"},
	}}
	runner := NewRunner(e, WithCloneIDs(func() string { return "gen1" }))
	res, err := runner.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if id, _ := dom.Attr(res.Clones[0], "idom-node-id"); id != "card@clone@gen1" {
		t.Fatalf("unexpected clone id %q", id)
	}
	if parent, _ := dom.Attr(res.Clones[0].Parent, "idom-instance-name"); parent != "h" {
		t.Fatalf("clone should land in the first host instance, got %q", parent)
	}
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	e, err := idom.LoadString(`<div idom-node-id="card"><p>idom$t</p></div>`)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := Script{Steps: []Step{
		{Op: OpDePopulate, Node: "card", Target: "a"},
		{Op: OpPopulate, Node: "card", Settings: map[string]any{"instanceName": "a", "forClone": "c"}},
	}}
	res, err := NewRunner(e).Run(context.Background(), s)
	if !errors.Is(err, engine.ErrNotPopulated) {
		t.Fatalf("expected ErrNotPopulated, got %v", err)
	}
	if res.Steps != 0 {
		t.Fatalf("expected no completed steps, got %d", res.Steps)
	}
}
