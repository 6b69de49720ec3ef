package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/internal/prompt"
	"github.com/goliatone/go-idom/internal/report"
	"github.com/goliatone/go-idom/pkg/engine"
	"github.com/goliatone/go-idom/pkg/ident"
	"github.com/goliatone/go-idom/pkg/token"
)

// defaultForClone is used when a top level node is populated without
// --for-clone.
const defaultForClone = "cli"

type renderOptions struct {
	doc         string
	node        string
	data        string
	settings    string
	instance    string
	mode        string
	target      string
	forClone    string
	presets     string
	output      string
	interactive bool
	diff        bool
}

func newRenderCmd(a *app) *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Populate one node and print the document",
		Long: `Populate a node of an HTML document and print the resulting markup.

Data and settings are flat JSON objects given inline, as a file path, or as
"-" for stdin. Individual settings flags override the --settings object.`,
		Example: `  idom render --doc page.html --node card --data '{"title":"Hi"}' --instance first
  idom render --doc page.html --node card --data data.json --mode append --diff
  idom render --doc page.html --interactive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.doc, "doc", "", "HTML document to load")
	flags.StringVar(&opts.node, "node", "", "node id to populate")
	flags.StringVar(&opts.data, "data", "", "data object: inline JSON, file path or -")
	flags.StringVar(&opts.settings, "settings", "", "settings object: inline JSON, file path or -")
	flags.StringVar(&opts.instance, "instance", "", "instance name")
	flags.StringVar(&opts.mode, "mode", "", "replace, append, after, prepend, before, node or proto")
	flags.StringVar(&opts.target, "target", "", "target instance name")
	flags.StringVar(&opts.forClone, "for-clone", "", "clone id used to memoise values of a top level node (default \"cli\")")
	flags.StringVar(&opts.presets, "presets", "", "preset object applied before caching")
	flags.StringVarP(&opts.output, "output", "o", "", "write the document to this file instead of stdout")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for the node, settings and token values")
	flags.BoolVar(&opts.diff, "diff", false, "print a line diff against the loaded document")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, opts renderOptions) error {
	presets, err := decodeData(cmd, opts.presets)
	if err != nil {
		return fmt.Errorf("--presets: %w", err)
	}
	e, err := a.load(opts.doc, presets)
	if err != nil {
		return err
	}
	before, err := dom.Render(e.Document())
	if err != nil {
		return err
	}

	data, err := decodeData(cmd, opts.data)
	if err != nil {
		return fmt.Errorf("--data: %w", err)
	}
	settings, err := buildSettings(cmd, opts)
	if err != nil {
		return err
	}

	nodeID := opts.node
	if opts.interactive {
		d := prompt.Survey()
		ctx := cmd.Context()
		if nodeID == "" {
			if nodeID, err = prompt.Node(ctx, d, e.Nodes()); err != nil {
				return err
			}
		}
		if settings, err = prompt.Settings(ctx, d, settings); err != nil {
			return err
		}
		keys, err := tokenKeys(e, nodeID)
		if err != nil {
			return err
		}
		if data, err = prompt.Data(ctx, d, keys, data); err != nil {
			return err
		}
		ok, err := d.Confirm(ctx, prompt.ConfirmConfig{Message: fmt.Sprintf("Populate %s?", nodeID), Default: true})
		if err != nil {
			return err
		}
		if !ok {
			return prompt.ErrAborted
		}
	}
	if nodeID == "" {
		return fmt.Errorf("--node is required")
	}

	node, err := e.Node(nodeID)
	if err != nil {
		return err
	}
	settings.ForClone = forCloneFor(e, node, settings.ForClone)
	if err := e.Populate(node, data, settings); err != nil {
		return err
	}

	after, err := dom.Render(e.Document())
	if err != nil {
		return err
	}
	if opts.diff {
		changes := report.Diff(before, after)
		if !report.Changed(changes) {
			report.OK(cmd.ErrOrStderr(), "no changes")
			return nil
		}
		return report.WriteDiff(cmd.OutOrStdout(), changes, 2)
	}
	return writeOutput(cmd, opts.output, after)
}

func decodeData(cmd *cobra.Command, arg string) (token.Data, error) {
	raw, err := readJSON(cmd, arg)
	if err != nil || raw == nil {
		return nil, err
	}
	return token.ParseData(raw)
}

func buildSettings(cmd *cobra.Command, opts renderOptions) (engine.Settings, error) {
	var settings engine.Settings
	raw, err := readJSON(cmd, opts.settings)
	if err != nil {
		return settings, fmt.Errorf("--settings: %w", err)
	}
	if raw != nil {
		if settings, err = engine.ParseSettings(raw); err != nil {
			return settings, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("mode") {
		settings.Mode = engine.Mode(opts.mode)
	}
	if flags.Changed("instance") {
		settings.Instance = opts.instance
	}
	if flags.Changed("target") {
		settings.Target = opts.target
	}
	if flags.Changed("for-clone") {
		settings.ForClone = opts.forClone
	}
	if settings.Mode != "" {
		mode, err := engine.ParseMode(string(settings.Mode))
		if err != nil {
			return settings, err
		}
		settings.Mode = mode
	}
	return settings, nil
}

// forCloneFor fills in the default clone id for top level nodes. Cloned
// nodes carry their own.
func forCloneFor(e *engine.Engine, node *html.Node, current string) string {
	if current != "" {
		return current
	}
	raw, _ := dom.Attr(node, e.Config().NodeAttr)
	if id, err := ident.Parse(raw); err != nil || id.IsCloned() {
		return ""
	}
	return defaultForClone
}

// tokenKeys lists the token keys a populate of nodeID can consume: those in
// the prototype followed by those in templated attributes.
func tokenKeys(e *engine.Engine, nodeID string) ([]string, error) {
	entry, ok := e.Store().Entry(ident.Base(nodeID))
	if !ok {
		return nil, fmt.Errorf("node %q is not cached", nodeID)
	}
	p := e.Pattern()
	prefix := e.Config().AttrPrefix
	var keys []string
	seen := map[string]struct{}{}
	add := func(s string) {
		for _, k := range p.Tokens(s) {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	add(entry.Prototype)
	for _, attr := range append(entry.NodeAttrs, entry.ProtoAttrs...) {
		if strings.HasPrefix(attr.Key, prefix) {
			add(attr.Val)
		}
	}
	return keys, nil
}
