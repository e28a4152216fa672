package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/xlog"
)

type demoScenario struct {
	name   string
	insert []int
	erase  []int
}

var demoScenarios = []demoScenario{
	{name: "A ascending 1..7", insert: []int{1, 2, 3, 4, 5, 6, 7}},
	{name: "A level order 1..7", insert: []int{4, 2, 6, 1, 3, 5, 7}},
	{name: "B erase 1", insert: []int{4, 2, 6, 1, 3, 5, 7}, erase: []int{1}},
	{name: "C 10 20 30", insert: []int{10, 20, 30}},
	{name: "D empty"},
	{name: "E erase the only root", insert: []int{1}, erase: []int{1}},
}

func colorMark(c tree.RBColor) string {
	if c == tree.Red {
		return "R"
	}
	return "B"
}

// printTree writes the tree sideways, the right subtree on top.
func printTree(w io.Writer, node *tree.Node[int, struct{}], depth int) {
	if node == nil {
		return
	}
	printTree(w, node.Right(), depth+1)
	_, _ = fmt.Fprintf(w, "%s%d(%s)\n", strings.Repeat("    ", depth), node.Key(), colorMark(node.Color()))
	printTree(w, node.Left(), depth+1)
}

func runDemo(w io.Writer, logger xlog.XLogger) error {
	for _, sc := range demoScenarios {
		t := tree.NewOrderedRBTree[int, struct{}]()
		for _, k := range sc.insert {
			if _, _, err := t.Insert(k, struct{}{}); err != nil {
				return err
			}
		}
		for _, k := range sc.erase {
			t.Erase(k)
		}
		if err := tree.Validate(t); err != nil {
			logger.ErrorStack(err, "demo tree is broken", zap.String("scenario", sc.name))
			return err
		}

		inorder := make([]string, 0, t.Len())
		t.Foreach(func(idx int64, color tree.RBColor, key int, val struct{}) bool {
			inorder = append(inorder, fmt.Sprintf("%d%s", key, colorMark(color)))
			return true
		})
		_, _ = fmt.Fprintf(w, "== %s: [%s]\n", sc.name, strings.Join(inorder, " "))
		printTree(w, t.Root(), 0)
		logger.Debug("demo scenario",
			zap.String("scenario", sc.name),
			zap.Int64("len", t.Len()),
			zap.Strings("inorder", inorder),
		)
	}
	return nil
}

func newDemoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Print the trees of the reference scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), root.logger)
		},
	}
}
