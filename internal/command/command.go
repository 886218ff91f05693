// Package command parses interactive input lines into typed commands.
//
// A line is one directive optionally followed by a blank and arguments:
//
//	t we,Event|Birthday   toggle tags or tagset abbreviations
//	: 12                  jump to the twelfth file
//	4                     rate with four stars
package command

import (
	"strconv"
	"strings"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
)

// Command is one parsed directive. The set of implementations is closed.
type Command interface {
	// Directive returns the token the command was parsed from.
	Directive() string
	// Mutates reports whether executing the command writes metadata.
	Mutates() bool
	command()
}

// Toggle flips each of Args, which may be tags or tagset abbreviations.
type Toggle struct{ Args []string }

// Repeat re-applies the last toggle.
type Repeat struct{}

// Next moves to the following file.
type Next struct{}

// Previous moves to the preceding file.
type Previous struct{}

// Jump moves to a file by 1-based position or by name. A numeric argument
// sets Position and keeps its text in Name, so a file named by digits is
// still found when no file sits at that position.
type Jump struct {
	Position int
	Name     string
}

// Rate sets the numeric rating.
type Rate struct{ Value int }

// Reject marks the file as rejected.
type Reject struct{}

// Delete toggles the deletion mark.
type Delete struct{}

// RotateClockwise turns the orientation by +90 degrees.
type RotateClockwise struct{}

// RotateCounterClockwise turns the orientation by -90 degrees.
type RotateCounterClockwise struct{}

// FlipHorizontal toggles the horizontal mirror flag.
type FlipHorizontal struct{}

// FlipVertical toggles the vertical mirror flag.
type FlipVertical struct{}

// NextSource activates the following metadata source.
type NextSource struct{}

// PreviousSource activates the preceding metadata source.
type PreviousSource struct{}

// Help requests the list of directives.
type Help struct{}

func (Toggle) Directive() string                 { return "t" }
func (Repeat) Directive() string                 { return "." }
func (Next) Directive() string                   { return "n" }
func (Previous) Directive() string               { return "p" }
func (Jump) Directive() string                   { return ":" }
func (c Rate) Directive() string                 { return strconv.Itoa(c.Value) }
func (Reject) Directive() string                 { return "r" }
func (Delete) Directive() string                 { return "d" }
func (RotateClockwise) Directive() string        { return "c" }
func (RotateCounterClockwise) Directive() string { return "C" }
func (FlipHorizontal) Directive() string         { return "h" }
func (FlipVertical) Directive() string           { return "v" }
func (NextSource) Directive() string             { return "N" }
func (PreviousSource) Directive() string         { return "P" }
func (Help) Directive() string                   { return "H" }

func (Toggle) Mutates() bool                 { return true }
func (Repeat) Mutates() bool                 { return true }
func (Next) Mutates() bool                   { return false }
func (Previous) Mutates() bool               { return false }
func (Jump) Mutates() bool                   { return false }
func (Rate) Mutates() bool                   { return true }
func (Reject) Mutates() bool                 { return true }
func (Delete) Mutates() bool                 { return false }
func (RotateClockwise) Mutates() bool        { return true }
func (RotateCounterClockwise) Mutates() bool { return true }
func (FlipHorizontal) Mutates() bool         { return true }
func (FlipVertical) Mutates() bool           { return true }
func (NextSource) Mutates() bool             { return false }
func (PreviousSource) Mutates() bool         { return false }
func (Help) Mutates() bool                   { return false }

func (Toggle) command()                 {}
func (Repeat) command()                 {}
func (Next) command()                   {}
func (Previous) command()               {}
func (Jump) command()                   {}
func (Rate) command()                   {}
func (Reject) command()                 {}
func (Delete) command()                 {}
func (RotateClockwise) command()        {}
func (RotateCounterClockwise) command() {}
func (FlipHorizontal) command()         {}
func (FlipVertical) command()           {}
func (NextSource) command()             {}
func (PreviousSource) command()         {}
func (Help) command()                   {}

// simple holds the directives that take no argument.
var simple = map[string]Command{
	".": Repeat{},
	"n": Next{},
	"p": Previous{},
	"r": Reject{},
	"d": Delete{},
	"c": RotateClockwise{},
	"C": RotateCounterClockwise{},
	"h": FlipHorizontal{},
	"v": FlipVertical{},
	"N": NextSource{},
	"P": PreviousSource{},
	"H": Help{},
}

// Parse turns one line of input into a command.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, domainerrors.UnknownCommandf("empty command")
	}

	directive, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	if cmd, ok := simple[directive]; ok {
		if args != "" {
			return nil, domainerrors.Validationf("command %q takes no arguments", directive)
		}
		return cmd, nil
	}

	switch directive {
	case "t":
		tags := splitArgs(args)
		if len(tags) == 0 {
			return nil, domainerrors.Validation("command \"t\" needs at least one tag or abbreviation")
		}
		return Toggle{Args: tags}, nil
	case ":":
		return parseJump(args)
	}

	if len(directive) == 1 && directive[0] >= '0' && directive[0] <= '5' {
		if args != "" {
			return nil, domainerrors.Validationf("command %q takes no arguments", directive)
		}
		return Rate{Value: int(directive[0] - '0')}, nil
	}

	return nil, domainerrors.UnknownCommandf("unknown command %q", directive)
}

func parseJump(args string) (Command, error) {
	if args == "" {
		return nil, domainerrors.Validation("command \":\" needs a position or a file name")
	}
	if n, err := strconv.Atoi(args); err == nil {
		if n < 1 {
			return nil, domainerrors.Validationf("position %d out of range", n)
		}
		return Jump{Position: n, Name: args}, nil
	}
	return Jump{Name: args}, nil
}

func splitArgs(args string) []string {
	var out []string
	for _, part := range strings.Split(args, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
