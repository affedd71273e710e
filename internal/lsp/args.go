package lsp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chojs23/mergelens/internal/commands"
	"github.com/chojs23/mergelens/internal/markers"
	"github.com/tidwall/gjson"
)

// CommandPrefix namespaces every command the server registers.
const CommandPrefix = "mergelens."

// ConflictTextCommand returns the text of a range of an open document.
// Clients use it to show the two sides of a conflict in a diff view.
const ConflictTextCommand = CommandPrefix + "conflict-text"

var ErrBadArguments = errors.New("bad command arguments")

// commandArgs is the decoded form of the single object argument:
//
//	{"uri": "...", "position": {"line": 3, "character": 0}}
//	{"uri": "...", "conflict": {"line": 1, "character": 0}}
//
// "conflict" is the start of a conflict the client already knows about,
// as sent back by a code lens.
type commandArgs struct {
	URI      string
	Position markers.Position
	Conflict *markers.Position
}

func commandName(cmd commands.Command) string {
	return CommandPrefix + string(cmd)
}

func parseCommandName(name string) (commands.Command, error) {
	cmd, ok := strings.CutPrefix(name, CommandPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", commands.ErrUnknownCommand, name)
	}
	for _, known := range commands.All {
		if string(known) == cmd {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", commands.ErrUnknownCommand, name)
}

func decodeArgs(arguments []any) (commandArgs, error) {
	root, uri, err := argumentObject(arguments)
	if err != nil {
		return commandArgs{}, err
	}

	args := commandArgs{URI: uri}
	if p := root.Get("position"); p.Exists() {
		if args.Position, err = decodePosition(p); err != nil {
			return commandArgs{}, err
		}
	}
	if c := root.Get("conflict"); c.Exists() {
		pos, err := decodePosition(c)
		if err != nil {
			return commandArgs{}, err
		}
		args.Conflict = &pos
	}
	return args, nil
}

// decodeRangeArgs decodes the argument of the conflict text command:
//
//	{"uri": "...", "range": {"start": {...}, "end": {...}}}
func decodeRangeArgs(arguments []any) (string, markers.Range, error) {
	root, uri, err := argumentObject(arguments)
	if err != nil {
		return "", markers.Range{}, err
	}
	r := root.Get("range")
	if !r.IsObject() {
		return "", markers.Range{}, fmt.Errorf("%w: missing range", ErrBadArguments)
	}
	start, err := decodePosition(r.Get("start"))
	if err != nil {
		return "", markers.Range{}, err
	}
	end, err := decodePosition(r.Get("end"))
	if err != nil {
		return "", markers.Range{}, err
	}
	return uri, markers.Range{Start: start, End: end}, nil
}

// argumentObject returns the first argument as JSON along with its uri.
func argumentObject(arguments []any) (gjson.Result, string, error) {
	if len(arguments) == 0 {
		return gjson.Result{}, "", fmt.Errorf("%w: missing argument object", ErrBadArguments)
	}
	raw, err := json.Marshal(arguments[0])
	if err != nil {
		return gjson.Result{}, "", fmt.Errorf("%w: %w", ErrBadArguments, err)
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return gjson.Result{}, "", fmt.Errorf("%w: expected an object, got %s", ErrBadArguments, root.Raw)
	}
	uri := root.Get("uri")
	if uri.Type != gjson.String || uri.Str == "" {
		return gjson.Result{}, "", fmt.Errorf("%w: missing uri", ErrBadArguments)
	}
	return root, uri.Str, nil
}

func decodePosition(v gjson.Result) (markers.Position, error) {
	line, char := v.Get("line"), v.Get("character")
	if line.Type != gjson.Number || char.Type != gjson.Number || line.Int() < 0 || char.Int() < 0 {
		return markers.Position{}, fmt.Errorf("%w: bad position %s", ErrBadArguments, v.Raw)
	}
	return markers.Position{Line: int(line.Int()), Character: int(char.Int())}, nil
}

// lensArgs is the argument a code lens carries back to executeCommand.
func lensArgs(uri string, c markers.Conflict) map[string]any {
	return map[string]any{
		"uri": uri,
		"conflict": map[string]any{
			"line":      c.Range.Start.Line,
			"character": c.Range.Start.Character,
		},
	}
}
