package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sankofa-learn/sankofa/internal/curriculum"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the curriculum graph",
}

var graphCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the seed curriculum",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := curriculum.Default()
		fmt.Printf("Graph OK: %d nodes, %d cascades\n", len(g.Nodes()), len(g.Cascades()))
		return nil
	},
}

var graphListCmd = &cobra.Command{
	Use:   "list",
	Short: "List curriculum nodes by grade",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := curriculum.Default()

		byGrade := map[string][]curriculum.Node{}
		var grades []string
		for _, n := range g.Nodes() {
			if _, ok := byGrade[n.Grade]; !ok {
				grades = append(grades, n.Grade)
			}
			byGrade[n.Grade] = append(byGrade[n.Grade], n)
		}
		sort.Strings(grades)

		for _, grade := range grades {
			fmt.Println(grade)
			for _, n := range byGrade[grade] {
				fmt.Printf("  %-10s  sev %d  %s\n", n.Code, n.Severity, n.Name)
			}
		}
		return nil
	},
}

var graphCascadesCmd = &cobra.Command{
	Use:   "cascades",
	Short: "Show the known failure patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := curriculum.Default()
		for _, c := range g.Cascades() {
			fmt.Printf("%s (entry %s)\n", c.Name, c.EntryNode)
			for _, code := range c.Nodes {
				name := code
				if n, err := g.Node(code); err == nil {
					name = fmt.Sprintf("%s  %s", code, n.Name)
				}
				fmt.Printf("  %s\n", name)
			}
		}
		return nil
	},
}

func init() {
	graphCmd.AddCommand(graphCheckCmd)
	graphCmd.AddCommand(graphListCmd)
	graphCmd.AddCommand(graphCascadesCmd)
}
