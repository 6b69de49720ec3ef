package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/internal/script"
	"github.com/goliatone/go-idom/pkg/token"
)

type cloneOptions struct {
	doc    string
	node   string
	id     string
	script string
	output string
}

func newCloneCmd(a *app) *cobra.Command {
	var opts cloneOptions
	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Print a detached clone of a populated node",
		Long: `Clone a populated node and print the clone's markup. Nodes are populated
by an optional --script first, since only populated nodes can be cloned.
Without --id a random clone id is generated.`,
		Example: `  idom clone --doc page.html --script fill.yaml --node card
  idom clone --doc page.html --script fill.yaml --node card --id copy`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClone(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.doc, "doc", "", "HTML document to load")
	flags.StringVar(&opts.node, "node", "", "node id to clone")
	flags.StringVar(&opts.id, "id", "", "clone id (default: random)")
	flags.StringVar(&opts.script, "script", "", "script run before cloning")
	flags.StringVarP(&opts.output, "output", "o", "", "write the clone to this file instead of stdout")
	return cmd
}

func runClone(cmd *cobra.Command, a *app, opts cloneOptions) error {
	if opts.node == "" {
		return fmt.Errorf("--node is required")
	}

	var s script.Script
	if opts.script != "" {
		var err error
		if s, err = script.Load(opts.script); err != nil {
			return err
		}
	}
	e, err := a.load(opts.doc, token.Data(s.Presets))
	if err != nil {
		return err
	}
	if len(s.Steps) > 0 {
		runner := script.NewRunner(e, script.WithLogger(a.logger), script.WithCloneIDs(newCloneID))
		if _, err := runner.Run(cmd.Context(), s); err != nil {
			return err
		}
	}

	id := opts.id
	if id == "" {
		id = newCloneID()
	}
	clone, err := e.CloneID(opts.node, id)
	if err != nil {
		return err
	}
	out, err := dom.Render(clone)
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.output, out)
}
