package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/internal/navigation"
)

func newNavCmd() *cobra.Command {
	var role, file string
	cmd := &cobra.Command{
		Use:   "nav",
		Short: "Print the navigation tree visible to a role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNav(cmd.OutOrStdout(), models.UserRole(strings.ToUpper(role)), file)
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "role whose permissions filter the tree")
	cmd.Flags().StringVar(&file, "file", "", "navigation YAML, defaults to the embedded tree")
	return cmd
}

func runNav(out io.Writer, role models.UserRole, file string) error {
	if _, ok := models.RolePermissions[role]; !ok {
		return fmt.Errorf("unknown role %q", role)
	}

	var (
		tree []navigation.Node
		err  error
	)
	if file != "" {
		tree, err = navigation.LoadFile(file)
	} else {
		tree, err = navigation.Default()
	}
	if err != nil {
		return err
	}

	printNodes(out, navigation.Filter(tree, models.PermissionsFor(role)), 0)
	return nil
}

func printNodes(out io.Writer, nodes []navigation.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch v := n.(type) {
		case navigation.Leaf:
			fmt.Fprintf(out, "%s- %s (%s)\n", indent, v.Name, v.Href)
		case navigation.Group:
			fmt.Fprintf(out, "%s+ %s\n", indent, v.Name)
			printNodes(out, v.Children, depth+1)
		}
	}
}
