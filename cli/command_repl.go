package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/query"
)

const historyFileName = ".lakeq_history"

// ReplCmd is an interactive shell over the configured store.
type ReplCmd struct{}

// Run executes the repl command
func (r *ReplCmd) Run(ctx *Context) error {
	config, err := lakeq.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	params, err := ctx.Parameters()
	if err != nil {
		return err
	}

	store, err := query.OpenFromConfig(config)
	if err != nil {
		return err
	}
	defer store.Close()

	dispatcher, err := query.NewDispatcher(store, config)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(completeInput)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	if !ctx.Quiet {
		color.Blue("lakeq shell, \\help for commands, \\q to quit")
	}

	dataset := ctx.Dataset
	if dataset == "" {
		dataset = config.Dataset
	}

	for {
		input, err := line.Prompt("lakeq> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}

		if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		}

		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if strings.HasPrefix(input, "\\") {
			if quit := runDirective(dispatcher, config, input, &dataset, params); quit {
				break
			}

			continue
		}

		result, err := dispatcher.Execute(context.Background(), input, params, dataset)
		if err != nil {
			color.Red("%v", err)
			continue
		}

		if err := renderResult(os.Stdout, result, FormatJSON); err != nil {
			color.Red("%v", err)
		}
	}

	if historyPath != "" {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}

	return nil
}

// runDirective handles backslash commands. It returns true when the
// shell should exit.
func runDirective(dispatcher *query.Dispatcher, config *lakeq.Config, input string, dataset *string, params map[string]any) bool {
	directive, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch directive {
	case "\\q", "\\quit":
		return true
	case "\\help", "\\h":
		fmt.Println("\\q               quit")
		fmt.Println("\\dataset <name>  switch dataset")
		fmt.Println("\\explain <query> show the execution plan")
		fmt.Println("\\params          show bound parameters")
		fmt.Println("\\help            this help")
	case "\\dataset":
		if rest != "" {
			*dataset = rest
		}

		fmt.Printf("dataset: %s\n", *dataset)
	case "\\explain":
		if rest == "" {
			color.Red("usage: \\explain <query>")
			break
		}

		compiled, err := dispatcher.Compile(rest)
		if err != nil {
			color.Red("%v", err)
			break
		}

		if err := printPlan(os.Stdout, compiled.Plan, lakeq.Dialect(config.Dialect), params); err != nil {
			color.Red("%v", err)
		}
	case "\\params":
		if len(params) == 0 {
			fmt.Println("no parameters bound")
			break
		}

		if err := renderResult(os.Stdout, params, FormatJSON); err != nil {
			color.Red("%v", err)
		}
	default:
		color.Red("unknown command %s, \\help for help", directive)
	}

	return false
}

// replHistoryPath returns the history file location, empty when no
// home directory is available.
func replHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, historyFileName)
}

var replDirectives = []string{"\\dataset", "\\explain", "\\h", "\\help", "\\params", "\\q", "\\quit"}

// completeInput offers completions for the word under the cursor:
// backslash directives at line start, function and keyword names
// elsewhere.
func completeInput(input string) []string {
	if strings.HasPrefix(input, "\\") {
		var matches []string

		for _, directive := range replDirectives {
			if strings.HasPrefix(directive, input) {
				matches = append(matches, directive)
			}
		}

		return matches
	}

	start := strings.LastIndexFunc(input, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != ':'
	}) + 1

	prefix := input[start:]
	if prefix == "" {
		return nil
	}

	var matches []string

	for _, word := range completionWords() {
		if strings.HasPrefix(word, prefix) {
			matches = append(matches, input[:start]+word)
		}
	}

	return matches
}

// completionWords lists function names from the shared signature table
// plus the language keywords.
func completionWords() []string {
	words := []string{"asc", "desc", "false", "in", "match", "null", "order", "score", "true"}

	for name := range lakeq.FunctionSignatures {
		words = append(words, name)
	}

	sort.Strings(words)

	return words
}
