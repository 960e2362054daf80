// Command engine-cli runs workflow definitions from the command line
// without standing up the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/flowcore/engine/internal/config"
	"github.com/flowcore/engine/internal/logging"
	"github.com/flowcore/engine/pkg/engineapi"
	"github.com/flowcore/engine/pkg/models"
)

const (
	version = "1.0.0"
	usage   = `engine-cli - run workflow definitions from the command line

USAGE:
    engine-cli <command> [options]

COMMANDS:
    run <file>        Run a workflow JSON file to completion and print its execution record
    validate <file>   Validate a workflow JSON file without running it
    version           Show version information
    help              Show this help message

RUN OPTIONS:
    -input <json>     JSON object passed as the trigger input (default: {})
    -trigger <type>   Trigger type: MANUAL, WEBHOOK, SCHEDULE, FILE (default: MANUAL)
    -timeout <dur>    Maximum time to wait for the execution to finish (default: 60s)
    -dev              Enable dev-mode step execution (each node dispatch waits for a step-continue)

EXAMPLES:
    engine-cli run workflow.json
    engine-cli run workflow.json -input '{"amount": 42}' -timeout 10s
    engine-cli validate workflow.json
`
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCommand(os.Args[2:])
	case "validate":
		validateCommand(os.Args[2:])
	case "version":
		fmt.Println("engine-cli", version)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}
}

func loadWorkflow(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	var wf models.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow file: %w", err)
	}
	return &wf, nil
}

func validateCommand(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: engine-cli validate <file>")
		os.Exit(1)
	}

	wf, err := loadWorkflow(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := wf.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid workflow:", err)
		os.Exit(1)
	}

	fmt.Printf("%s is valid: %d nodes, %d connections\n", wf.ID, len(wf.Nodes), len(wf.Connections))
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	inputFlag := fs.String("input", "{}", "JSON object passed as the trigger input")
	triggerFlag := fs.String("trigger", string(models.TriggerTypeManual), "trigger type")
	timeoutFlag := fs.Duration("timeout", 60*time.Second, "maximum time to wait for the execution")
	devFlag := fs.Bool("dev", false, "enable dev-mode step execution")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: engine-cli run <file> [options]")
		os.Exit(1)
	}

	// Options may also follow the file name.
	path := fs.Arg(0)
	fs.Parse(fs.Args()[1:])

	wf, err := loadWorkflow(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	var input map[string]interface{}
	if err := json.Unmarshal([]byte(*inputFlag), &input); err != nil {
		fmt.Fprintln(os.Stderr, "error: -input is not valid JSON:", err)
		os.Exit(1)
	}

	logger := logging.Default()
	engineCfg := config.EngineConfig{DevMode: *devFlag}
	manager := engineapi.NewManager(engineCfg, engineapi.NewRegistry(engineCfg))

	ctx := context.Background()
	id, err := manager.Submit(ctx, wf, models.TriggerType(*triggerFlag), input, engineapi.SubmitOptions{Timeout: *timeoutFlag})
	if err != nil {
		fmt.Fprintln(os.Stderr, "submit failed:", err)
		os.Exit(1)
	}
	logger.Info("execution submitted", "executionId", id)

	awaitCtx, cancel := context.WithTimeout(ctx, *timeoutFlag+5*time.Second)
	defer cancel()

	execution, err := manager.Await(awaitCtx, id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "await failed:", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(execution, "", "  ")
	fmt.Println(string(out))

	if execution.Status != models.ExecutionSuccess {
		os.Exit(1)
	}
}
