package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-idom/internal/report"
	"github.com/goliatone/go-idom/pkg/engine"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <doc.html> [more.html...]",
		Short: "Validate documents and list their nodes and tokens",
		Long: `Cache every given document and report the nodes it declares together with
the token keys each node consumes. Documents that fail validation are listed
with the failing element path and the command exits non-zero.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, a, args)
		},
	}
}

func runInspect(cmd *cobra.Command, a *app, paths []string) error {
	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	var failed []string
	for _, path := range paths {
		e, err := a.load(path, nil)
		if err != nil {
			failed = append(failed, path)
			var idomErr *engine.Error
			if errors.As(err, &idomErr) && idomErr.Path != "" {
				report.Fail(stderr, "%s: %s: %v", path, idomErr.Path, idomErr.Err)
			} else {
				report.Fail(stderr, "%s: %v", path, err)
			}
			continue
		}

		nodes := e.Nodes()
		sort.Strings(nodes)
		report.OK(stderr, "%s: %d node(s)", path, len(nodes))
		for _, id := range nodes {
			keys, err := tokenKeys(e, id)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintf(out, "%s\t%s\t-\n", path, id)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", path, id, strings.Join(keys, ","))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d document(s) failed validation", len(failed), len(paths))
	}
	return nil
}
