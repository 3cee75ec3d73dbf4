package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ppizarroc/taskproc/pkg/actions"
	"github.com/ppizarroc/taskproc/pkg/engine"
	"github.com/ppizarroc/taskproc/pkg/schema"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var version = "dev"

// Status styles: glyphs carry the meaning, color is reinforcement.
var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	loadDotEnv() // load .env file if present (gitignored)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDotEnv reads a .env file from the working directory and sets any
// variables that aren't already set in the environment. Lines are KEY=VALUE
// (or KEY="VALUE"). Comments (#) and blanks are skipped.
func loadDotEnv() {
	f, err := os.Open(".env")
	if err != nil {
		return // no .env file, nothing to load
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:     "taskproc",
	Short:   "Declarative task process engine",
	Long:    "taskproc is a declarative task workflow engine for build/deploy automation: tasks with intro messages, pre/post-conditions and steps, run in an isolated variable context.",
	Version: version,
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [process.yaml]",
	Short: "Validate a task process YAML file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	tp, errs := schema.ValidateFile(args[0])

	var errors, warnings []*schema.ValidationError
	for _, e := range errs {
		if e.Severity == "warning" {
			warnings = append(warnings, e)
		} else {
			errors = append(errors, e)
		}
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "  %s [%s] %s\n", warnStyle.Render("⚠"), w.Phase, w.Message)
		if w.Path != "" {
			fmt.Fprintf(os.Stderr, "    at: %s\n", w.Path)
		}
	}
	if len(errors) > 0 {
		fmt.Fprintf(os.Stderr, "%s: %d error(s)\n\n", errStyle.Render("Validation failed"), len(errors))
		for i, e := range errors {
			fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
			}
		}
		return fmt.Errorf("validation failed with %d error(s)", len(errors))
	}

	fmt.Printf("%s %s is valid (%d tasks)\n", okStyle.Render("✓"), tp.Meta.Name, len(tp.Tasks))
	return nil
}

// --- run ---

var (
	runVars     []string
	runTraceDir string
	runDryRun   bool
	runQuiet    bool
)

var runCmd = &cobra.Command{
	Use:   "run [process.yaml]",
	Short: "Execute a task process",
	Long: `Load, validate and execute a task process. Host-scope variables are
supplied with --var name=value and marshalled into the process context
according to the document's import_variables section; export_variables
are printed after a successful run.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	tp, errs := schema.ValidateFile(args[0])
	if schema.HasErrors(errs) {
		for _, e := range errs {
			if e.Severity == "error" {
				fmt.Fprintf(os.Stderr, "  %s %s\n", errStyle.Render("✗"), e.Error())
			}
		}
		return fmt.Errorf("task process validation failed")
	}

	host := make(map[string]any)
	for _, kv := range runVars {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid --var %q, expected name=value", kv)
		}
		host[parts[0]] = parts[1]
	}

	var executor actions.CommandExecutor = &actions.ExecExecutor{}
	var dry *actions.DryRunExecutor
	if runDryRun {
		dry = &actions.DryRunExecutor{}
		executor = dry
	}
	registry := actions.NewRegistry(context.Background(), executor)

	opts := []engine.Option{
		engine.WithActions(registry.Funcs()),
	}
	if !runQuiet {
		opts = append(opts, engine.WithReporter(&engine.ConsoleReporter{Out: os.Stdout, ShowStepResults: true}))
	}
	if runTraceDir != "" {
		opts = append(opts, engine.WithTraceDir(runTraceDir))
	}

	eng, err := engine.New(tp, opts...)
	if err != nil {
		return err
	}

	if err := eng.Run(host); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errStyle.Render("✗"), err)
		printProgress(eng)
		return fmt.Errorf("run %s failed", eng.RunID())
	}

	if runDryRun && dry != nil {
		for _, c := range dry.Commands {
			fmt.Printf("  %s %s\n", dimStyle.Render("[dry-run]"), c)
		}
	}

	if len(tp.ExportVariables) > 0 {
		fmt.Println("\nExported variables:")
		printed := make(map[string]bool)
		for _, m := range tp.ExportVariables {
			if printed[m.ScriptVariable] {
				continue
			}
			printed[m.ScriptVariable] = true
			if v, ok := host[m.ScriptVariable]; ok {
				fmt.Printf("  %s = %v\n", m.ScriptVariable, v)
			}
		}
	}
	return nil
}

// printProgress shows how far the run proceeded before failing.
func printProgress(eng *engine.Engine) {
	for _, t := range eng.Tasks() {
		glyph := dimStyle.Render("○")
		switch t.State {
		case engine.TaskDone:
			glyph = okStyle.Render("✓")
		case engine.TaskPreSkipped:
			glyph = warnStyle.Render("⊘")
		case engine.TaskError:
			glyph = errStyle.Render("✗")
		}
		fmt.Fprintf(os.Stderr, "  %s %s (%s)\n", glyph, t.Name, t.State)
	}
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the task process JSON Schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.GenerateJSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "host-scope variable name=value (repeatable)")
	runCmd.Flags().StringVar(&runTraceDir, "trace-dir", "", "write a JSONL trace and run summary under this directory")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "record commands instead of executing them")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "suppress progress output")

	rootCmd.AddCommand(validateCmd, runCmd, schemaCmd, showCmd)
}
