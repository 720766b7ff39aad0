// Command irpass runs the virtual-thread injector and bound-checker
// instrumenter over a small catalog of built-in example programs and prints
// the before/after IR.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/RichieZhu26/incubator-tvm/internal/ir"
	"github.com/RichieZhu26/incubator-tvm/internal/passlog"
)

func main() {
	var (
		exampleName = flag.String("example", "", "Built-in example program to run a pass over")
		list        = flag.Bool("list", false, "List built-in examples and exit")
		verbose     = flag.Bool("v", false, "Enable pass debug logging")
		interactive = flag.Bool("i", false, "Interactive mode: page through the catalog in a TUI")
	)
	flag.Parse()

	if *verbose {
		l, _ := zap.NewDevelopment()
		passlog.SetLogger(l)
	}

	if *interactive {
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *list {
		listExamples()
		return
	}

	if *exampleName == "" {
		fmt.Fprintln(os.Stderr, "Usage: irpass -example <name> [-v]")
		fmt.Fprintln(os.Stderr, "       irpass -list")
		fmt.Fprintln(os.Stderr, "       irpass -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*exampleName); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listExamples() {
	fmt.Println("Built-in examples:")
	for _, ex := range catalog {
		fmt.Printf("  %-24s [%s] %s\n", ex.name, ex.pass, ex.desc)
	}
}

func run(name string) error {
	ex, ok := findExample(name)
	if !ok {
		var names []string
		for _, e := range catalog {
			names = append(names, e.name)
		}
		return fmt.Errorf("unknown example %q (known: %s)", name, strings.Join(names, ", "))
	}

	before := ex.build()
	fmt.Printf("=== %s [%s] ===\n%s\n\n", ex.name, ex.pass, ex.desc)
	fmt.Println("--- before ---")
	fmt.Print(ir.Print(before))

	after, err := runPass(ex, before)
	if err != nil {
		return fmt.Errorf("run pass: %w", err)
	}

	fmt.Println("\n--- after ---")
	fmt.Print(ir.Print(after))
	return nil
}
