package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ggonzalez94/defi-router/internal/id"
	"github.com/ggonzalez94/defi-router/internal/model"
)

func runCLI(t *testing.T, args ...string) (int, map[string]any) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := NewRunnerWithWriters(&stdout, &stderr).Run(args)

	var envelope map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &envelope); err != nil {
		t.Fatalf("output is not a JSON envelope (exit %d): %v\n%s", code, err, stdout.String())
	}
	return code, envelope
}

func setupDataDir(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEFI_ROUTER_DATA_DIR", t.TempDir())
}

func TestRunVersion(t *testing.T) {
	setupDataDir(t)

	code, envelope := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if envelope["success"] != true || envelope["command"] != "version" {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
	data := envelope["data"].(map[string]any)
	if data["name"] != "defi-router" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestRunBlockedCommand(t *testing.T) {
	setupDataDir(t)

	code, envelope := runCLI(t, "version", "--enable-commands", "route find")
	if code != 16 {
		t.Fatalf("exit code = %d, want 16", code)
	}
	if envelope["success"] != false {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
	errBody := envelope["error"].(map[string]any)
	if errBody["code"].(float64) != 16 {
		t.Fatalf("unexpected error body: %v", errBody)
	}
}

func TestRunRouteFind(t *testing.T) {
	setupDataDir(t)

	code, envelope := runCLI(t,
		"route", "find",
		"--from-domain", "ethereum", "--to-domain", "ethereum",
		"--from", "WETH", "--to", "USDC",
		"--amount", "1000", "--principal", "alice",
	)
	if code != 0 {
		t.Fatalf("exit code = %d: %v", code, envelope)
	}
	data := envelope["data"].(map[string]any)
	plans, ok := data["plans"].([]any)
	if !ok || len(plans) == 0 {
		t.Fatalf("no plans in output: %v", data)
	}
	first := plans[0].(map[string]any)
	if first["plan_id"] == "" || first["total_cost_usd"].(float64) <= 0 {
		t.Fatalf("malformed plan: %v", first)
	}
	// Ascending cost across the ranking.
	prev := -1.0
	for _, raw := range plans {
		cost := raw.(map[string]any)["total_cost_usd"].(float64)
		if cost < prev {
			t.Fatalf("plans out of order: %v", plans)
		}
		prev = cost
	}
}

func TestRunRouteFindUsesConfiguredReferenceFee(t *testing.T) {
	setupDataDir(t)

	// With a 10% baseline fee a $1000 trade is compared against a $100
	// reference cost, so every built-in plan must report large positive
	// savings. Under the 0.1% default the same plans would be negative.
	cfgDir := filepath.Join(os.Getenv("HOME"), ".defi-router")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	cfg := "routing:\n  reference_fee_percent: 10.0\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	code, envelope := runCLI(t,
		"route", "find",
		"--from-domain", "ethereum", "--to-domain", "ethereum",
		"--from", "WETH", "--to", "USDC",
		"--amount", "1000", "--principal", "alice",
	)
	if code != 0 {
		t.Fatalf("exit code = %d: %v", code, envelope)
	}
	data := envelope["data"].(map[string]any)
	plans, ok := data["plans"].([]any)
	if !ok || len(plans) == 0 {
		t.Fatalf("no plans in output: %v", data)
	}
	for _, raw := range plans {
		plan := raw.(map[string]any)
		savings := plan["savings_vs_reference_percent"].(float64)
		if savings <= 50 {
			t.Fatalf("savings = %f, want strongly positive under 10%% reference fee", savings)
		}
	}
}

func TestRunRouteFindRejectsUnknownDomain(t *testing.T) {
	setupDataDir(t)

	code, _ := runCLI(t,
		"route", "find",
		"--from-domain", "mars", "--to-domain", "ethereum",
		"--from", "WETH", "--to", "USDC",
		"--amount", "1", "--principal", "alice",
	)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunBudgetSetPersistsAcrossInvocations(t *testing.T) {
	setupDataDir(t)

	code, envelope := runCLI(t,
		"budget", "set",
		"--principal", "alice",
		"--risk-level", "conservative",
		"--max-gas", "75",
	)
	if code != 0 {
		t.Fatalf("set exit code = %d: %v", code, envelope)
	}

	code, envelope = runCLI(t, "budget", "get", "--principal", "alice")
	if code != 0 {
		t.Fatalf("get exit code = %d: %v", code, envelope)
	}
	data := envelope["data"].(map[string]any)
	if data["risk_level"] != "conservative" {
		t.Fatalf("risk level not persisted: %v", data)
	}
	if data["max_gas_cost_usd"].(float64) != 75 {
		t.Fatalf("override not persisted: %v", data)
	}
}

func TestRunRouteExecuteDryRun(t *testing.T) {
	setupDataDir(t)

	plan := model.NewPlan("plan-cli", []model.ExecutionStep{
		{
			Type: model.StepTypeBridge, Domain: id.DomainEthereum, ToDomain: id.DomainArbitrum,
			Venue: "across", FromToken: "USDC", ToToken: "USDC", AmountIn: 1000, AmountOut: 999.5,
		},
		{
			Type: model.StepTypeSwap, Domain: id.DomainArbitrum, ToDomain: id.DomainArbitrum,
			Venue: "uniswap", FromToken: "USDC", ToToken: "WETH", AmountIn: 999.5, AmountOut: 996,
		},
	})
	buf, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("marshal plan: %v", err)
	}
	planPath := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(planPath, buf, 0o644); err != nil {
		t.Fatalf("write plan file: %v", err)
	}

	code, envelope := runCLI(t,
		"route", "execute",
		"--plan-file", planPath,
		"--principal", "alice",
	)
	if code != 0 {
		t.Fatalf("exit code = %d: %v", code, envelope)
	}
	data := envelope["data"].(map[string]any)
	if data["success"] != true {
		t.Fatalf("dry-run execution failed: %v", data)
	}
	completed, ok := data["completed_steps"].([]any)
	if !ok || len(completed) != 2 {
		t.Fatalf("completed steps = %v", data["completed_steps"])
	}
}

func TestRunRouteApproveDryRun(t *testing.T) {
	setupDataDir(t)

	code, envelope := runCLI(t,
		"route", "approve",
		"--domain", "ethereum",
		"--token", "USDC",
		"--venue", "uniswap",
		"--amount", "1000",
		"--principal", "alice",
	)
	if code != 0 {
		t.Fatalf("exit code = %d: %v", code, envelope)
	}
	data := envelope["data"].(map[string]any)
	if data["success"] != true {
		t.Fatalf("approval failed: %v", data)
	}
	completed, ok := data["completed_steps"].([]any)
	if !ok || len(completed) != 1 {
		t.Fatalf("completed steps = %v", data["completed_steps"])
	}
	handle := completed[0].(string)
	if !strings.HasPrefix(handle, "dryrun:approval:ethereum:uniswap:") {
		t.Fatalf("handle = %q", handle)
	}
}

func TestRunRouteApproveRejectsUnknownVenue(t *testing.T) {
	setupDataDir(t)

	code, _ := runCLI(t,
		"route", "approve",
		"--domain", "ethereum",
		"--token", "USDC",
		"--venue", "madeupswap",
		"--amount", "1000",
		"--principal", "alice",
	)
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunVenuesList(t *testing.T) {
	setupDataDir(t)

	code, envelope := runCLI(t, "venues", "list")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	data := envelope["data"].(map[string]any)
	if swaps, ok := data["swap_venues"].([]any); !ok || len(swaps) == 0 {
		t.Fatalf("no swap venues listed: %v", data)
	}
	if bridges, ok := data["bridges"].([]any); !ok || len(bridges) == 0 {
		t.Fatalf("no bridges listed: %v", data)
	}
}
