package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Harshitk-cp/fabricator/internal/config"
	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/Harshitk-cp/fabricator/internal/service"
	"github.com/Harshitk-cp/fabricator/internal/store"
	"github.com/Harshitk-cp/fabricator/internal/translator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workbenchCmd = &cobra.Command{
	Use:   "workbench",
	Short: "Interactive REPL against an in-memory belief system",
	Long: `The workbench reads commands from stdin. Rules and statements are
given as IR JSON, the same payloads the HTTP API accepts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkbench(cmd)
	},
}

func init() {
	rootCmd.AddCommand(workbenchCmd)
}

type workbench struct {
	svc     *service.Fabricator
	current string
	out     func(format string, a ...any)
}

func runWorkbench(cmd *cobra.Command) error {
	_ = config.Load()
	svc := service.NewFabricator(store.NewMemory(), zap.NewNop(), config.TensionHopLimit())

	id, err := svc.CreateBeliefSystem(context.Background(), "workbench", config.DefaultStrategy())
	if err != nil {
		return err
	}

	wb := &workbench{
		svc:     svc,
		current: id,
		out: func(format string, a ...any) {
			fmt.Fprintf(cmd.OutOrStdout(), format+"\n", a...)
		},
	}

	wb.out("--- Logic Fabricator Workbench ---")
	wb.printHelp()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(cmd.OutOrStdout(), "\n>> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		command := strings.ToLower(parts[0])
		rest := ""
		if len(parts) > 1 {
			rest = strings.TrimSpace(parts[1])
		}

		switch command {
		case "rule":
			wb.handleRule(rest)
		case "sim":
			wb.handleSim(rest)
		case "state":
			wb.handleState()
		case "statements":
			wb.handleStatements()
		case "rules":
			wb.handleRules()
		case "forks":
			wb.handleForks()
		case "tensions":
			wb.handleTensions()
		case "reset":
			wb.handleReset()
		case "help":
			wb.printHelp()
		case "exit", "quit":
			wb.out("Exiting workbench.")
			return nil
		default:
			wb.out("  !! Unknown command: %q. Type 'help' for a list of commands.", command)
		}
	}
}

func (wb *workbench) printHelp() {
	wb.out("\nCommands:")
	wb.out("  rule <IR rule JSON>       add a rule, e.g. rule {\"rule_type\":\"standard\",...}")
	wb.out("  sim <IR statement JSON>   simulate a statement, e.g. sim {\"subject\":\"socrates\",\"verb\":\"is\",\"object\":\"man\"}")
	wb.out("  state                     show the world state")
	wb.out("  statements                list all current facts")
	wb.out("  rules                     list all active rules")
	wb.out("  forks                     show the forked realities")
	wb.out("  tensions                  report latent rule conflicts")
	wb.out("  reset                     start with a fresh belief system")
	wb.out("  help                      show this help message")
	wb.out("  exit                      leave the workbench")
}

func (wb *workbench) handleRule(raw string) {
	if raw == "" {
		wb.out("  !! Error: rule command requires an IR rule payload.")
		return
	}
	var ir translator.IRRule
	if err := jsonUnmarshalStrict(raw, &ir); err != nil {
		wb.out("  !! Error parsing rule: %v", err)
		return
	}
	rules, err := translator.TranslateRule(&ir)
	if err != nil {
		wb.out("  !! Error fabricating rule: %v", err)
		return
	}
	if err := wb.svc.AddRules(context.Background(), wb.current, rules); err != nil {
		wb.out("  !! Error fabricating rule: %v", err)
		return
	}
	for _, r := range rules {
		wb.out("  ++ Fabricated Rule: %s", r)
	}
}

func (wb *workbench) handleSim(raw string) {
	if raw == "" {
		wb.out("  !! Error: sim command requires an IR statement payload.")
		return
	}
	var ir translator.IRStatement
	if err := jsonUnmarshalStrict(raw, &ir); err != nil {
		wb.out("  !! Error parsing statement: %v", err)
		return
	}
	st, err := translator.TranslateStatement(&ir)
	if err != nil {
		wb.out("  !! Error translating statement: %v", err)
		return
	}

	wb.out("\n... Simulating: %s", st)
	res, err := wb.svc.Simulate(context.Background(), wb.current, []*domain.Statement{st})
	if err != nil && res == nil {
		wb.out("  !! Error simulating: %v", err)
		return
	}

	wb.out("\n--- Simulation Report ---")
	if res.Forked() {
		child := res.ForkedBeliefs[0]
		wb.out("  !! CONTRADICTION DETECTED: Reality has forked.")
		wb.current = child.ID()
		wb.out("  >> Switched context to the new forked reality.")
	} else if len(res.Contradictions) > 0 {
		wb.out("  !! Contradiction rejected: this reality is preserved unchanged.")
	}

	if len(res.DerivedFacts) > 0 {
		wb.out("  >> Derived Facts:")
		for _, fact := range res.DerivedFacts {
			wb.out("     - %s", fact)
		}
	} else {
		wb.out("  >> No new facts were derived.")
	}

	if diff := res.WorldStateDiff(); len(diff) > 0 {
		wb.out("  >> World State Changes:")
		for _, ch := range diff {
			wb.out("     - %s: %v -> %v", ch.Key, ch.Before, ch.After)
		}
	} else {
		wb.out("  >> World state is unchanged.")
	}
	if err != nil {
		wb.out("  !! Persistence warning: %v", err)
	}
}

func (wb *workbench) handleState() {
	bs, err := wb.svc.Get(wb.current)
	if err != nil {
		wb.out("  !! %v", err)
		return
	}
	wb.out("--- World State ---")
	world := bs.World()
	if len(world) == 0 {
		wb.out("(empty)")
		return
	}
	for k, v := range world {
		wb.out("  %s: %v", k, v)
	}
}

func (wb *workbench) handleStatements() {
	bs, err := wb.svc.Get(wb.current)
	if err != nil {
		wb.out("  !! %v", err)
		return
	}
	wb.out("--- Current Facts ---")
	statements := bs.Statements()
	if len(statements) == 0 {
		wb.out("(none)")
		return
	}
	for _, st := range statements {
		wb.out("  - %s", st)
	}
}

func (wb *workbench) handleRules() {
	bs, err := wb.svc.Get(wb.current)
	if err != nil {
		wb.out("  !! %v", err)
		return
	}
	wb.out("--- Active Rules ---")
	rules := bs.Rules()
	if len(rules) == 0 {
		wb.out("(none)")
		return
	}
	for i, r := range rules {
		wb.out("  %d: %s", i+1, r)
	}
}

func (wb *workbench) handleForks() {
	bs, err := wb.svc.Get(wb.current)
	if err != nil {
		wb.out("  !! %v", err)
		return
	}
	wb.out("--- Forks ---")
	wb.out("This reality has forked %d time(s).", len(bs.Forks()))
}

func (wb *workbench) handleTensions() {
	tensions, err := wb.svc.Tensions(wb.current)
	if err != nil {
		wb.out("  !! %v", err)
		return
	}
	wb.out("--- Tensions ---")
	if len(tensions) == 0 {
		wb.out("(none)")
		return
	}
	for _, t := range tensions {
		wb.out("  - %s <-> %s (witness %s)", t.RuleA, t.RuleB, t.Witness.Key())
	}
}

func jsonUnmarshalStrict(raw string, v any) error {
	return json.Unmarshal([]byte(raw), v)
}

func (wb *workbench) handleReset() {
	wb.out("Purging reality. A new belief system is born.")
	id, err := wb.svc.Reset(context.Background(), "workbench", config.DefaultStrategy())
	if err != nil {
		wb.out("  !! %v", err)
		return
	}
	wb.current = id
}
