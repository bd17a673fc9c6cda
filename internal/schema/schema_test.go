package schema

import (
	"testing"

	"github.com/spf13/cobra"
)

func testTree() *cobra.Command {
	root := &cobra.Command{Use: "defi-router"}
	routeCmd := &cobra.Command{Use: "route", Short: "routing"}
	findCmd := &cobra.Command{Use: "find", Short: "rank plans"}
	findCmd.Flags().Float64("amount", 0, "input amount")
	findCmd.Flags().String("principal", "", "principal id")
	routeCmd.AddCommand(findCmd)
	root.AddCommand(routeCmd)
	return root
}

func TestBuildSchemaLeaf(t *testing.T) {
	s, err := Build(testTree(), "route find")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Path != "defi-router route find" {
		t.Fatalf("unexpected path: %s", s.Path)
	}
	if len(s.Flags) != 2 {
		t.Fatalf("unexpected flags: %+v", s.Flags)
	}
	if s.Flags[0].Name != "amount" || s.Flags[0].Type != "float64" {
		t.Fatalf("unexpected flag schema: %+v", s.Flags[0])
	}
}

func TestBuildSchemaWholeTree(t *testing.T) {
	s, err := Build(testTree(), "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(s.Subcommands) != 1 || s.Subcommands[0].Use != "route" {
		t.Fatalf("unexpected subcommands: %+v", s.Subcommands)
	}
	if len(s.Subcommands[0].Subcommands) != 1 {
		t.Fatalf("nested subcommands missing: %+v", s.Subcommands[0])
	}
}

func TestBuildSchemaUnknownPath(t *testing.T) {
	if _, err := Build(testTree(), "route teleport"); err == nil {
		t.Fatal("expected error for unknown command path")
	}
}
