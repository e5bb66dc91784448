// Package command translates free-form CLI verb syntax into the canonical
// sigil-prefixed commands the dashboard understands.
package command

import "strings"

// Sigil marks a command as internal: handled by the dashboard itself rather
// than executed as a local shell invocation.
const Sigil = ":"

// helpCommand is the canonical form empty input maps to.
const helpCommand = Sigil + "help"

// Command is a canonical dashboard command plus its argument list.
type Command struct {
	Name string
	Args []string
}

// verbTable describes one main verb: the sub-verbs it recognizes and the
// canonical command used when the sub-verb is missing or unrecognized.
type verbTable struct {
	def  string
	subs map[string]bool
}

func subs(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var verbs = map[string]verbTable{
	"task":   {def: ":task list", subs: subs("add", "list", "done", "delete", "update")},
	"git":    {def: ":git status", subs: subs("status", "log", "diff", "branch", "commit", "push", "pull")},
	"ai":     {def: ":ai ask", subs: subs("ask", "review", "explain", "models")},
	"memory": {def: ":memory list", subs: subs("save", "search", "list", "delete")},
	"logs":   {def: ":logs tail", subs: subs("tail", "search")},
	"help":   {def: helpCommand},
}

// IsInternal reports whether the command text names a dashboard command
// rather than a local shell invocation.
func IsInternal(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), Sigil)
}

// Translate converts free-form command text into canonical form.
//
// A recognized verb+sub-verb pair maps to its canonical command with the
// remaining tokens as arguments. A recognized verb with a missing or unknown
// sub-verb falls back to that verb's default command. An unrecognized verb
// that already carried the sigil passes through unchanged; without the sigil
// it is sigil-prefixed with the remaining tokens as arguments, so commands
// the client does not know about still reach the dashboard.
func Translate(text string) Command {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Command{Name: helpCommand}
	}

	hadSigil := strings.HasPrefix(trimmed, Sigil)
	tokens := Tokenize(strings.TrimPrefix(trimmed, Sigil))
	if len(tokens) == 0 {
		return Command{Name: helpCommand}
	}

	verb := tokens[0]
	if _, known := verbs[verb]; !known && hadSigil {
		return Command{Name: trimmed}
	}
	return TranslateArgs(verb, tokens[1:])
}

// TranslateArgs is Translate for input that is already tokenized, as
// delivered by the argument parser: verb is the invoked command name and
// argv everything after it.
func TranslateArgs(verb string, argv []string) Command {
	if len(argv) == 0 {
		argv = nil
	}
	table, known := verbs[verb]
	if !known {
		return Command{Name: Sigil + verb, Args: argv}
	}
	if argv == nil {
		return Command{Name: table.def}
	}
	if table.subs[argv[0]] {
		cmd := Command{Name: Sigil + verb + " " + argv[0]}
		if len(argv) > 1 {
			cmd.Args = argv[1:]
		}
		return cmd
	}
	// Unknown sub-verb: fall back to the default command but keep every
	// token, so free text like a question after "ai" is not clipped.
	return Command{Name: table.def, Args: argv}
}
