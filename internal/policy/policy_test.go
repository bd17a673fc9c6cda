package policy

import (
	"testing"

	clierr "github.com/ggonzalez94/defi-router/internal/errors"
)

func TestCheckCommandAllowed(t *testing.T) {
	if err := CheckCommandAllowed(nil, "route find"); err != nil {
		t.Fatalf("empty allow-list should permit everything: %v", err)
	}
	if err := CheckCommandAllowed([]string{"route find", "budget get"}, "route find"); err != nil {
		t.Fatalf("listed command blocked: %v", err)
	}
	if err := CheckCommandAllowed([]string{"Route  Find"}, "route find"); err != nil {
		t.Fatalf("normalization should match case and spacing: %v", err)
	}
	if err := CheckCommandAllowed([]string{"route"}, "route execute"); err != nil {
		t.Fatalf("group entry should permit its subcommands: %v", err)
	}
	if err := CheckCommandAllowed([]string{"route find"}, "route"); !clierr.HasCode(err, clierr.CodeBlocked) {
		t.Fatalf("subcommand entry must not widen to the parent, got %v", err)
	}

	err := CheckCommandAllowed([]string{"budget get"}, "route execute")
	if !clierr.HasCode(err, clierr.CodeBlocked) {
		t.Fatalf("expected blocked error, got %v", err)
	}
}
