package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/internal/report"
	"github.com/goliatone/go-idom/internal/script"
	"github.com/goliatone/go-idom/internal/watch"
	"github.com/goliatone/go-idom/pkg/token"
)

type runOptions struct {
	doc    string
	script string
	output string
	watch  bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a script of node operations against a document",
		Long: `Run a YAML or JSON script of populate, clone and depopulate steps against
a document and print the result. Clones are appended to the body, or to the
first instance of the node named by appendTo.

With --watch the script is replayed on a fresh copy of the document every
time either file changes.`,
		Example: `  idom run --doc page.html --script steps.yaml
  idom run --doc page.html --script steps.yaml --watch -o out.html`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.script == "" {
				return fmt.Errorf("--script is required")
			}
			if !opts.watch {
				return runScript(cmd, a, opts)
			}
			return watchScript(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.doc, "doc", "", "HTML document to load")
	flags.StringVar(&opts.script, "script", "", "script file (YAML or JSON)")
	flags.StringVarP(&opts.output, "output", "o", "", "write the document to this file instead of stdout")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "rerun when the document or script changes")
	return cmd
}

func runScript(cmd *cobra.Command, a *app, opts runOptions) error {
	s, err := script.Load(opts.script)
	if err != nil {
		return err
	}
	e, err := a.load(opts.doc, token.Data(s.Presets))
	if err != nil {
		return err
	}
	runner := script.NewRunner(e, script.WithLogger(a.logger), script.WithCloneIDs(newCloneID))
	res, err := runner.Run(cmd.Context(), s)
	if err != nil {
		return err
	}
	a.logger.Debug("idom: script finished", "steps", res.Steps, "clones", len(res.Clones))

	out, err := dom.Render(e.Document())
	if err != nil {
		return err
	}
	return writeOutput(cmd, opts.output, out)
}

func watchScript(cmd *cobra.Command, a *app, opts runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(watch.Config{Paths: []string{opts.doc, opts.script}})
	if err != nil {
		return err
	}
	defer w.Close()

	cmd.SetContext(ctx)
	stderr := cmd.ErrOrStderr()
	once := func() {
		if err := runScript(cmd, a, opts); err != nil {
			report.Fail(stderr, "%v", err)
			return
		}
		report.OK(stderr, "%s applied to %s", opts.script, opts.doc)
	}

	once()
	err = w.Run(ctx, func(path string) error {
		a.logger.Debug("idom: change detected", "path", path)
		once()
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
