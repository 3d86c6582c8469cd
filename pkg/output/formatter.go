package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/ritzau/unity-analyzer/pkg/analysis"
	"github.com/ritzau/unity-analyzer/pkg/config"
	"github.com/ritzau/unity-analyzer/pkg/graph"
	"github.com/ritzau/unity-analyzer/pkg/lifecycle"
	"github.com/ritzau/unity-analyzer/pkg/patterns"
)

// Write renders the result in the configured format
func Write(w io.Writer, workspace string, res *analysis.Result, format string) error {
	switch format {
	case config.FormatJSON:
		return WriteJSON(w, res)
	case config.FormatYAML:
		return WriteYAML(w, res)
	case config.FormatText, "":
		PrintReport(w, workspace, res)
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteJSON exports the model as indented JSON
func WriteJSON(w io.Writer, res *analysis.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteYAML exports the model as YAML with the same keys as the JSON export
func WriteYAML(w io.Writer, res *analysis.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// PrintReport prints a nicely formatted analysis report with colors
func PrintReport(w io.Writer, workspace string, res *analysis.Result) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "Unity Component Analyzer - Report")
	bold.Fprintln(w, "=================================")
	fmt.Fprintf(w, "Workspace: %s\n", workspace)
	fmt.Fprintf(w, "Scanned: %d C# files\n", len(res.Files))
	fmt.Fprintf(w, "Components: %d\n", len(res.Components))
	fmt.Fprintln(w)

	if len(res.Components) > 0 {
		bold.Fprintln(w, "COMPONENTS:")
		for _, c := range res.Components {
			cyan.Fprintf(w, "  %s", c.ClassName)
			fmt.Fprintf(w, " (%s, complexity %d)\n", c.FilePath, c.Complexity)
			if deps := res.Graph.Dependencies(c.ClassName); len(deps) > 0 {
				fmt.Fprintf(w, "    depends on: %s\n", strings.Join(deps, ", "))
			}
			if len(c.LifecycleMethods) > 0 {
				fmt.Fprintf(w, "    lifecycle: %s\n", strings.Join(c.LifecycleMethods, ", "))
			}
		}
		fmt.Fprintln(w)
	}

	// Dependency structure
	if res.HasCycle {
		red.Fprintf(w, "CIRCULAR DEPENDENCIES: %d\n", len(res.Cycles))
		for _, cyc := range res.Cycles {
			if cyc.SelfLoop {
				yellow.Fprintf(w, "  %s references itself\n", cyc.Components[0])
				continue
			}
			yellow.Fprintf(w, "  %s\n", strings.Join(cyc.Components, " <-> "))
		}
	} else {
		green.Fprintln(w, "No circular dependencies")
		if len(res.TopologicalOrder) > 0 {
			fmt.Fprintf(w, "Order (dependents first): %s\n", strings.Join(res.TopologicalOrder, " -> "))
		}
	}
	if high := res.Graph.HighCoupling(); len(high) > 0 {
		yellow.Fprintf(w, "High coupling (%d+ dependencies or dependents): %s\n", graph.HighCouplingThreshold, strings.Join(high, ", "))
	}
	fmt.Fprintln(w)

	// Lifecycle and patterns
	if len(res.LifecycleFlows) > 0 {
		bold.Fprintln(w, "LIFECYCLE:")
		fmt.Fprint(w, indent(lifecycle.Summary(res.LifecycleFlows)))
		fmt.Fprintln(w)
	}
	if len(res.Patterns) > 0 {
		bold.Fprintln(w, "PATTERNS:")
		fmt.Fprint(w, indent(patterns.Summary(res.Patterns)))
		fmt.Fprintln(w)
	}
	if arch := res.Architecture; arch != nil && len(res.Components) > 0 {
		bold.Fprintln(w, "ARCHITECTURE:")
		fmt.Fprintf(w, "  Style: %s (%s)\n", arch.Style.Primary, arch.ComplexityLevel)
		for _, c := range arch.Clusters {
			fmt.Fprintf(w, "  Cluster: %s\n", strings.Join(c.Components, ", "))
		}
		for _, sys := range arch.Systems {
			fmt.Fprintf(w, "  %s: %d component(s), cohesion %.2f, coupling %.2f\n",
				sys.Name, len(sys.Components), sys.Cohesion, sys.Coupling)
		}
		fmt.Fprintf(w, "  Health: %.0f%%\n", arch.Health.Overall)
		fmt.Fprintln(w)
	}
	if len(res.ScriptableObjects) > 0 {
		bold.Fprintln(w, "DATA ASSETS:")
		for _, so := range res.ScriptableObjects {
			cyan.Fprintf(w, "  %s", so.ClassName)
			fmt.Fprintf(w, " (%d serialized fields)\n", len(so.Fields))
		}
		fmt.Fprintln(w)
	}

	// Diagnostics
	failed := res.FailedFiles()
	if len(res.Diagnostics) > 0 {
		red.Fprintln(w, "DIAGNOSTICS:")
		for _, d := range res.Diagnostics {
			if d.Fatal() {
				red.Fprintf(w, "  %s", d.Kind)
			} else {
				yellow.Fprintf(w, "  %s", d.Kind)
			}
			fmt.Fprintf(w, " %s: %s\n", d.File, d.Message)
		}
		fmt.Fprintln(w)
	}

	// Summary
	switch {
	case !res.Success:
		red.Fprintln(w, "Analysis did not complete")
	case len(failed) > 0:
		yellow.Fprintf(w, "Summary: %d components, %d file(s) skipped\n", len(res.Components), len(failed))
	default:
		green.Fprintf(w, "✓ Summary: %d components from %d files\n", len(res.Components), len(res.Files))
	}
}

func indent(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
