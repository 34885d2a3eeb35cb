package dispatch

import (
	"fmt"

	"github.com/arthur-debert/navtree/types"
)

// Command is one of the fixed tree-editing operations
type Command int

const (
	CmdView Command = iota
	CmdRename
	CmdRemove
	CmdMove
	CmdAdd
	CmdToggleVisibility
	CmdSuggest
	CmdListChildren
)

var commandNames = [...]string{
	CmdView:             "view",
	CmdRename:           "rename",
	CmdRemove:           "remove",
	CmdMove:             "move",
	CmdAdd:              "add",
	CmdToggleVisibility: "toggle_visibility",
	CmdSuggest:          "suggest",
	CmdListChildren:     "list_children",
}

// aliases are the message ids sent by older tree editors
var aliases = map[string]Command{
	"view_navnode":          CmdView,
	"rename_navnode":        CmdRename,
	"remove_navnode":        CmdRemove,
	"move_navnode":          CmdMove,
	"add_navnode":           CmdAdd,
	"get_suggest_list":      CmdSuggest,
	"navnode_in_navigation": CmdToggleVisibility,
}

func (c Command) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Mutates reports whether the command changes the tree
func (c Command) Mutates() bool {
	switch c {
	case CmdRename, CmdRemove, CmdMove, CmdAdd, CmdToggleVisibility:
		return true
	}
	return false
}

// Commands returns every command in declaration order
func Commands() []Command {
	out := make([]Command, len(commandNames))
	for i := range commandNames {
		out[i] = Command(i)
	}
	return out
}

// UnsupportedCommandError names a message id no command answers to
type UnsupportedCommandError struct {
	Name string
}

func (e *UnsupportedCommandError) Error() string {
	return "Unsupported message : " + e.Name
}

// Is makes errors.Is(err, types.ErrUnsupportedCommand) true
func (e *UnsupportedCommandError) Is(target error) bool {
	return target == types.ErrUnsupportedCommand
}

// ParseCommand resolves a command name or legacy alias
func ParseCommand(name string) (Command, error) {
	for i, n := range commandNames {
		if n == name {
			return Command(i), nil
		}
	}
	if c, ok := aliases[name]; ok {
		return c, nil
	}
	return 0, &UnsupportedCommandError{Name: name}
}
