// Package shell implements the interactive REPL editor for test scripts.
package shell

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/maglevlabs/mast/pkg/script"
)

// Options configures a Shell.
type Options struct {
	// Output receives all command output. Defaults to os.Stdout.
	Output io.Writer
	// HistoryFile persists readline history between sessions when non-empty.
	HistoryFile string
	// Pretty saves indented JSON instead of canonical single-line output.
	Pretty bool
}

// Shell provides an interactive REPL for inspecting and editing a script.
type Shell struct {
	script *script.TestScript
	path   string
	output io.Writer
	rl     *readline.Instance
	pretty bool

	history string
	undo    []*script.TestScript
	redo    []*script.TestScript
	dirty   bool
}

// New creates a shell editing the given script. path is where 'save'
// writes by default and may be empty for in-memory sessions.
func New(s *script.TestScript, path string, opts Options) (*Shell, error) {
	if s == nil {
		return nil, fmt.Errorf("nil script")
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	return &Shell{
		script:  s,
		path:    path,
		output:  out,
		pretty:  opts.Pretty,
		history: opts.HistoryFile,
	}, nil
}

// Script returns the current working copy.
func (sh *Shell) Script() *script.TestScript {
	return sh.script
}

// Run starts the interactive REPL loop.
func (sh *Shell) Run() error {
	commands := []string{"steps", "show", "pool", "action", "orphans",
		"validate", "merge", "split", "preview merge", "preview split",
		"update", "query", "fix", "diagram", "undo", "redo",
		"save", "dump", "help", "quit"}

	var completer = readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children,
			readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.buildPrompt(),
		AutoComplete:    completer,
		HistoryFile:     sh.history,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	sh.rl = rl
	defer rl.Close()

	fmt.Fprintf(sh.output, "mast shell — %d steps, %d pool actions\n",
		len(sh.script.Steps), len(sh.script.ActionPool))
	fmt.Fprintf(sh.output, "Type 'help' for available commands, 'steps' to list steps.\n\n")

	for {
		rl.SetPrompt(sh.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		switch cmd {
		case "steps", "s":
			sh.handleSteps()
		case "show":
			sh.handleShow(parts)
		case "pool":
			sh.handlePool()
		case "action", "a":
			sh.handleAction(parts)
		case "orphans":
			sh.handleOrphans()
		case "validate", "v":
			sh.handleValidate()
		case "merge", "m":
			sh.handleMerge(parts)
		case "split":
			sh.handleSplit(parts)
		case "preview":
			sh.handlePreview(parts)
		case "update", "u":
			sh.handleUpdate(parts, line)
		case "query", "q":
			sh.handleQuery(parts, line)
		case "fix":
			sh.handleFix()
		case "diagram":
			sh.handleDiagram(parts)
		case "undo":
			sh.handleUndo()
		case "redo":
			sh.handleRedo()
		case "save":
			sh.handleSave(parts)
		case "dump":
			sh.handleDump()
		case "help", "?":
			sh.handleHelp()
		case "quit", "exit":
			if sh.dirty {
				fmt.Fprintf(sh.output, "Exiting, unsaved changes discarded.\n")
			} else {
				fmt.Fprintf(sh.output, "Exiting.\n")
			}
			return nil
		default:
			fmt.Fprintf(sh.output, "Unknown command: %q. Type 'help' for available commands.\n", cmd)
		}
	}
}

// buildPrompt creates the prompt string: mast[title | N steps]>
// A trailing * marks unsaved changes.
func (sh *Shell) buildPrompt() string {
	title := sh.script.Meta.Title
	if title == "" {
		title = "untitled"
	}
	if len(title) > 24 {
		title = title[:21] + "..."
	}
	mark := ""
	if sh.dirty {
		mark = "*"
	}
	return fmt.Sprintf("mast[%s | %d steps]%s> ", title, len(sh.script.Steps), mark)
}

// pushUndo snapshots the current script before a mutation. Any new
// mutation invalidates the redo stack.
func (sh *Shell) pushUndo() {
	sh.undo = append(sh.undo, sh.script.Clone())
	sh.redo = nil
}

// apply installs a mutated script produced by an edit command.
func (sh *Shell) apply(next *script.TestScript) {
	sh.pushUndo()
	sh.script = next
	sh.dirty = true
}
