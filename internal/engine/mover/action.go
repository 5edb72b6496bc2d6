// Package mover applies class relocation actions to the source tree.
package mover

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"moduledeps/internal/core/errors"
	"moduledeps/internal/shared/util"
)

const commandName = "move-class"

// Action relocates one source file between modules.
type Action struct {
	FromModule   string
	FromLocation string
	ToModule     string
}

func (a Action) String() string {
	return fmt.Sprintf("%s --from-module=%q --from-location=%s --to-module=%q", commandName, a.FromModule, a.FromLocation, a.ToModule)
}

func (a Action) validate() error {
	switch {
	case a.FromModule == "":
		return errors.New(errors.CodeValidationError, "missing --from-module")
	case a.FromLocation == "":
		return errors.New(errors.CodeValidationError, "missing --from-location")
	case a.ToModule == "":
		return errors.New(errors.CodeValidationError, "missing --to-module")
	case util.EscapesRoot(a.FromLocation):
		return errors.Newf(errors.CodeValidationError, "--from-location %s leaves the module directory", a.FromLocation)
	case a.FromModule == a.ToModule:
		return errors.Newf(errors.CodeValidationError, "source and destination module are both %s", a.ToModule)
	}
	return nil
}

// ParseAction parses an action line as printed under a finding. The leading
// command name is optional.
func ParseAction(line string) (Action, error) {
	args, err := splitArgs(line)
	if err != nil {
		return Action{}, err
	}
	if len(args) > 0 && args[0] == commandName {
		args = args[1:]
	}

	var a Action
	fs := pflag.NewFlagSet(commandName, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&a.FromModule, "from-module", "", "")
	fs.StringVar(&a.FromLocation, "from-location", "", "")
	fs.StringVar(&a.ToModule, "to-module", "", "")
	if err := fs.Parse(args); err != nil {
		return Action{}, errors.Wrap(err, errors.CodeValidationError, "parse action")
	}
	if fs.NArg() > 0 {
		return Action{}, errors.Newf(errors.CodeValidationError, "unexpected arguments %v", fs.Args())
	}
	if err := a.validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

// ParseBatch reads one action per line. Blank lines and lines starting with
// # are skipped. Errors name the offending line number.
func ParseBatch(r io.Reader) ([]Action, error) {
	var actions []Action
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		a, err := ParseAction(line)
		if err != nil {
			return nil, errors.AddContext(err, "line", lineNo)
		}
		actions = append(actions, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "read batch")
	}
	return actions, nil
}

// splitArgs splits on whitespace, honouring double quotes with backslash
// escapes as produced by %q.
func splitArgs(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inQuote, escaped, started := false, false, false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, errors.New(errors.CodeValidationError, "unterminated quote in action")
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}
