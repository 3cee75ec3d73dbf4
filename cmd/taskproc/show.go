package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ppizarroc/taskproc/pkg/schema"
	"github.com/spf13/cobra"
)

// --- show ---

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show [process.yaml]",
	Short: "Render a walkthrough of a task process",
	Long: `Analyze a task process and render a structured Markdown walkthrough
(variable contract, per-task conditions and steps) to the terminal.
No execution occurs; use 'taskproc run --dry-run' for execution output.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	tp, errs := schema.ValidateFile(args[0])
	if schema.HasErrors(errs) {
		return fmt.Errorf("task process validation failed; run 'taskproc validate %s'", args[0])
	}

	md := walkthroughMarkdown(tp)
	if showRaw {
		fmt.Print(md)
		return nil
	}
	fmt.Print(renderMarkdown(md))
	return nil
}

// walkthroughMarkdown builds a Markdown document describing the process.
func walkthroughMarkdown(tp *schema.TaskProcess) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", tp.Meta.Name)
	if tp.Meta.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", tp.Meta.Description)
	}

	if len(tp.ImportVariables) > 0 {
		b.WriteString("## Imported variables\n\n")
		for _, m := range tp.ImportVariables {
			fmt.Fprintf(&b, "- `%s` (host) → `%s` (context)\n", m.ScriptVariable, m.ProcessVariable)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Tasks (%d)\n\n", len(tp.Tasks))
	for i, t := range tp.Tasks {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, t.Title(i))
		fmt.Fprintf(&b, "Intro: `%s`\n\n", t.IntroMessage)
		writeFragmentList(&b, "Pre-conditions (false skips the task)", t.PreConditions)
		writeFragmentList(&b, "Steps", t.TaskSteps)
		writeFragmentList(&b, "Post-conditions (false fails the run)", t.PostConditions)
		if t.ExitMessage != "" {
			fmt.Fprintf(&b, "Exit: `%s`\n\n", t.ExitMessage)
		}
	}

	if len(tp.ExportVariables) > 0 {
		b.WriteString("## Exported variables\n\n")
		for _, m := range tp.ExportVariables {
			fmt.Fprintf(&b, "- `%s` (context) → `%s` (host)\n", m.ProcessVariable, m.ScriptVariable)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeFragmentList(b *strings.Builder, heading string, fragments []string) {
	if len(fragments) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n\n", heading)
	for _, f := range fragments {
		fmt.Fprintf(b, "- `%s`\n", f)
	}
	b.WriteString("\n")
}

// renderMarkdown converts a markdown string to styled terminal output.
// Falls back to the raw input if rendering fails.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print raw Markdown instead of rendering")
}
