package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/eadimport/pkg/core"
	"github.com/aretw0/eadimport/pkg/tree"
)

var (
	treeBranch  bool
	treeJSON    bool
	treeMermaid bool
)

var treeCmd = &cobra.Command{
	Use:   "tree <id>",
	Short: "Print the hierarchy of an imported resource",
	Long: `Tree prints the whole finding aid the resource belongs to, or with --branch
only the resource and its descendants.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseRef(args[0])
		if err != nil {
			return err
		}
		store, err := openReadOnly()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		res, err := store.Get(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", ref, err)
		}

		nav := tree.New(store)
		var root *tree.Node
		if treeBranch {
			root, err = nav.Branch(ctx, res)
		} else {
			root, err = nav.Tree(ctx, res)
		}
		if err != nil {
			return fmt.Errorf("failed to walk the hierarchy: %w", err)
		}

		out := cmd.OutOrStdout()
		switch {
		case treeJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(root)
		case treeMermaid:
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "hierarchy"
			config.SecondaryLabel = "Finding aid"
			fmt.Fprintln(out, introspection.TreeDiagram(diagramNode(root, ref.ID), config))
			return nil
		}

		tree.Walk(root, func(n *tree.Node, depth int) {
			marker := " "
			if n.Resource.Ref == ref {
				marker = "*"
			}
			fmt.Fprintf(out, "%s%s %s %s\n", strings.Repeat("  ", depth), marker, n.Resource.Ref, label(n))
		})
		return nil
	},
}

func label(n *tree.Node) string {
	title := n.Resource.Title()
	if title == "" {
		title = identifier(n.Resource)
	}
	if class := n.Resource.Data.Class; class != "" {
		return fmt.Sprintf("%s (%s)", title, class)
	}
	return title
}

// hierarchyNode is the shape rendered by introspection.TreeDiagram.
type hierarchyNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []hierarchyNode
}

func diagramNode(n *tree.Node, selected core.ResourceID) hierarchyNode {
	status := "finished"
	if n.Resource.Ref.ID == selected {
		status = "running"
	}
	node := hierarchyNode{
		Name:   label(n),
		Status: status,
		Metadata: map[string]string{
			"type": "container",
			"id":   strconv.FormatInt(int64(n.Resource.Ref.ID), 10),
		},
	}
	for _, c := range n.Children {
		node.Children = append(node.Children, diagramNode(c, selected))
	}
	return node
}

func init() {
	treeCmd.Flags().BoolVar(&treeBranch, "branch", false, "Only print the resource and its descendants")
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Output in JSON format")
	treeCmd.Flags().BoolVar(&treeMermaid, "mermaid", false, "Output a Mermaid diagram")
	rootCmd.AddCommand(treeCmd)
}
