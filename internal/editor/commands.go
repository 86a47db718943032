package editor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IndentUnit is inserted by Indent and is the most Outdent removes per line.
const IndentUnit = "    "

// CommandKind enumerates the fixed set of markdown editing intents.
type CommandKind int

const (
	CommandWrap CommandKind = iota + 1
	CommandPrefixLine
	CommandIndent
	CommandOutdent
	CommandContinueBlock
	CommandAutoPair
)

func (k CommandKind) String() string {
	switch k {
	case CommandWrap:
		return "wrap"
	case CommandPrefixLine:
		return "prefix-line"
	case CommandIndent:
		return "indent"
	case CommandOutdent:
		return "outdent"
	case CommandContinueBlock:
		return "continue-block"
	case CommandAutoPair:
		return "autopair"
	default:
		return fmt.Sprintf("command(%d)", int(k))
	}
}

// Command is a semantic editing intent. Which fields are read depends on Kind:
// Wrap and AutoPair use Open and Close, PrefixLine uses Prefix.
type Command struct {
	Kind   CommandKind
	Open   string
	Close  string
	Prefix string
	Label  string
}

// Wrap surrounds the selection with open and close.
func Wrap(open, close, label string) Command {
	return Command{Kind: CommandWrap, Open: open, Close: close, Label: label}
}

// PrefixLine inserts prefix at the start of the line holding the selection start.
func PrefixLine(prefix, label string) Command {
	return Command{Kind: CommandPrefixLine, Prefix: prefix, Label: label}
}

// AutoPair inserts a bracket or quote pair around the selection.
func AutoPair(open, close string) Command {
	return Command{Kind: CommandAutoPair, Open: open, Close: close, Label: "autopair"}
}

var (
	Indent        = Command{Kind: CommandIndent, Label: "indent"}
	Outdent       = Command{Kind: CommandOutdent, Label: "outdent"}
	ContinueBlock = Command{Kind: CommandContinueBlock, Label: "continue-markdown-block"}
)

var presets = map[string]Command{
	"bold":      Wrap("**", "**", "bold"),
	"italic":    Wrap("*", "*", "italic"),
	"code":      Wrap("`", "`", "code"),
	"link":      Wrap("[[", "]]", "wikilink"),
	"strike":    Wrap("~~", "~~", "strike"),
	"highlight": Wrap("==", "==", "highlight"),
	"quote":     PrefixLine("> ", "quote"),
	"task":      PrefixLine("- [ ] ", "task"),
	"bullet":    PrefixLine("- ", "bullet"),
	"heading":   PrefixLine("# ", "heading"),
	"indent":    Indent,
	"outdent":   Outdent,
	"continue":  ContinueBlock,
}

// CommandByName returns a preset command such as "bold" or "indent".
func CommandByName(name string) (Command, bool) {
	c, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// CommandNames lists the preset names accepted by CommandByName.
func CommandNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	return names
}

var pairs = map[string]string{
	"(":  ")",
	"[":  "]",
	"{":  "}",
	"\"": "\"",
	"'":  "'",
	"`":  "`",
}

// AutoPairFor returns the auto-pair command for an opening character.
func AutoPairFor(open string) (Command, bool) {
	closeTok, ok := pairs[open]
	if !ok {
		return Command{}, false
	}
	return AutoPair(open, closeTok), true
}

// ApplyCommand builds a transaction for cmd from the current snapshot and applies
// it. It returns false without touching the snapshot when the command does not
// apply in the current context.
func ApplyCommand(s *Snapshot, cmd Command) (bool, error) {
	tx, ok := BuildTransaction(s, cmd)
	if !ok {
		return false, nil
	}
	out, err := s.Apply(tx)
	if err != nil {
		return false, err
	}
	return out.TextChanged || out.SelectionChanged, nil
}

// BuildTransaction translates cmd into a transaction against the current state.
func BuildTransaction(s *Snapshot, cmd Command) (Transaction, bool) {
	switch cmd.Kind {
	case CommandWrap:
		return wrapTransaction(s, cmd.Open, cmd.Close, cmd.Label), true
	case CommandAutoPair:
		return wrapTransaction(s, cmd.Open, cmd.Close, "autopair"), true
	case CommandPrefixLine:
		return prefixLineTransaction(s, cmd.Prefix, cmd.Label), true
	case CommandIndent:
		return shiftTransaction(s, false)
	case CommandOutdent:
		return shiftTransaction(s, true)
	case CommandContinueBlock:
		return continueBlockTransaction(s)
	default:
		return Transaction{}, false
	}
}

// InsertNewline replaces the selection with a plain line break. It is the
// fallback when ContinueBlock does not apply.
func InsertNewline(s *Snapshot) Transaction {
	sel := clampTo(s.Selection, s.Text)
	after := Cursor(sel.Start + 1)
	return Single(TextChange{Start: sel.Start, End: sel.End, Insert: "\n"}, &after, OriginCommand, "insert-newline")
}

func wrapTransaction(s *Snapshot, open, closeTok, label string) Transaction {
	sel := clampTo(s.Selection, s.Text)
	insert := open + s.Text[sel.Start:sel.End] + closeTok

	var after Selection
	if sel.IsCursor() {
		after = Cursor(sel.Start + len(open))
	} else {
		after = Cursor(sel.End + len(open) + len(closeTok))
	}
	return Single(TextChange{Start: sel.Start, End: sel.End, Insert: insert}, &after, OriginCommand, label)
}

func prefixLineTransaction(s *Snapshot, prefix, label string) Transaction {
	sel := clampTo(s.Selection, s.Text)
	start := lineStart(s.Text, sel.Start)
	after := NewSelection(sel.Start+len(prefix), sel.End+len(prefix))
	return Single(TextChange{Start: start, End: start, Insert: prefix}, &after, OriginCommand, label)
}

func shiftTransaction(s *Snapshot, outdent bool) (Transaction, bool) {
	text := s.Text
	sel := clampTo(s.Selection, text)

	if sel.IsCursor() {
		if !outdent {
			after := Cursor(sel.Start + len(IndentUnit))
			return Single(TextChange{Start: sel.Start, End: sel.End, Insert: IndentUnit}, &after, OriginCommand, "indent"), true
		}

		ls := lineStart(text, sel.Start)
		le := lineEnd(text, sel.Start)
		line := text[ls:le]
		remove := leadingIndent(line)
		if remove == 0 {
			return Transaction{}, false
		}
		cursor := ls
		if sel.Start-ls >= remove {
			cursor = sel.Start - remove
		}
		after := Cursor(cursor)
		return Single(TextChange{Start: ls, End: le, Insert: line[remove:]}, &after, OriginCommand, "outdent"), true
	}

	blockStart := lineStart(text, sel.Start)
	blockEnd := lineEnd(text, sel.End)
	lines := strings.Split(text[blockStart:blockEnd], "\n")
	for i, line := range lines {
		if outdent {
			lines[i] = line[leadingIndent(line):]
		} else {
			lines[i] = IndentUnit + line
		}
	}
	transformed := strings.Join(lines, "\n")

	label := "indent-block"
	if outdent {
		label = "outdent-block"
	}
	after := NewSelection(blockStart, blockStart+len(transformed))
	return Single(TextChange{Start: blockStart, End: blockEnd, Insert: transformed}, &after, OriginCommand, label), true
}

// leadingIndent returns how many bytes one outdent step removes from line.
func leadingIndent(line string) int {
	if strings.HasPrefix(line, "\t") {
		return 1
	}
	n := 0
	for n < len(line) && n < len(IndentUnit) && line[n] == ' ' {
		n++
	}
	return n
}

var (
	taskItemRe   = regexp.MustCompile(`^(\s*[-*+]\s+)\[(?: |x|X)\]\s+(.*)$`)
	bulletRe     = regexp.MustCompile(`^(\s*[-*+]\s+)(.*)$`)
	orderedRe    = regexp.MustCompile(`^(\s*)(\d+)\.\s+(.*)$`)
	blockquoteRe = regexp.MustCompile(`^(\s*>\s+)(.*)$`)
)

func continueBlockTransaction(s *Snapshot) (Transaction, bool) {
	text := s.Text
	sel := clampTo(s.Selection, text)
	if !sel.IsCursor() {
		return Transaction{}, false
	}

	line := text[lineStart(text, sel.Start):lineEnd(text, sel.Start)]

	var insert string
	if m := taskItemRe.FindStringSubmatch(line); m != nil {
		insert = continuation(m[2], "\n"+m[1]+"[ ] ")
	} else if m := orderedRe.FindStringSubmatch(line); m != nil {
		n, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			n = 1
		}
		insert = continuation(m[3], "\n"+m[1]+strconv.FormatUint(n+1, 10)+". ")
	} else if m := bulletRe.FindStringSubmatch(line); m != nil {
		insert = continuation(m[2], "\n"+m[1])
	} else if m := blockquoteRe.FindStringSubmatch(line); m != nil {
		insert = continuation(m[2], "\n"+m[1])
	} else {
		return Transaction{}, false
	}

	after := Cursor(sel.Start + len(insert))
	return Single(TextChange{Start: sel.Start, End: sel.End, Insert: insert}, &after, OriginCommand, "continue-markdown-block"), true
}

// continuation returns a bare newline for an empty item body, which ends the
// block, and next otherwise.
func continuation(body, next string) string {
	if strings.TrimSpace(body) == "" {
		return "\n"
	}
	return next
}
