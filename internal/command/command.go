// Package command turns an argument list into one of a closed set of
// commands and runs it.
package command

import (
	"fmt"
	"strings"

	"github.com/jbweber/vbsnap/internal/naming"
)

// Command is one of Usage, List, Import, Show, Clone, Erase, EraseAll or
// Undefined.
type Command interface {
	command()
}

// Usage prints the usage text.
type Usage struct{}

// List prints every known machine.
type List struct{}

// Import imports an appliance image and rescans the host.
type Import struct {
	Path string
}

// Show prints one known machine.
type Show struct {
	Name string
}

// Clone creates a linked clone of a known machine.
type Clone struct {
	Base     string
	Name     string
	Port     int // 0 allocates the next free port
	Networks []string
}

// Erase deletes one known machine.
type Erase struct {
	Name string
}

// EraseAll deletes every known machine, last first.
type EraseAll struct{}

// Undefined is input that matches no command.
type Undefined struct {
	Input  string
	Reason string
}

func (Usage) command()     {}
func (List) command()      {}
func (Import) command()    {}
func (Show) command()      {}
func (Clone) command()     {}
func (Erase) command()     {}
func (EraseAll) command()  {}
func (Undefined) command() {}

const (
	wordList  = "list"
	wordErase = "erase"
	flagAll   = "--all"
)

// Classify maps args to a command. known reports whether a machine name is
// in the inventory. Shapes are tried in order:
//
//	(none)                              Usage
//	list                                List
//	<image>.ova | <image>.ovf           Import
//	<known>                             Show
//	<known> <clone>[:<port>] [net...]   Clone (at most three networks)
//	erase <known>                       Erase
//	erase --all                         EraseAll
//
// Anything else is Undefined.
func Classify(args []string, known func(string) bool) Command {
	switch {
	case len(args) == 0:
		return Usage{}

	case len(args) == 1 && args[0] == wordList:
		return List{}

	case len(args) == 1 && naming.IsApplianceImage(args[0]):
		return Import{Path: args[0]}

	case len(args) == 1 && known(args[0]):
		return Show{Name: args[0]}

	case len(args) >= 2 && known(args[0]):
		return classifyClone(args)

	case len(args) == 2 && args[0] == wordErase && known(args[1]):
		return Erase{Name: args[1]}

	case len(args) == 2 && args[0] == wordErase && args[1] == flagAll:
		return EraseAll{}
	}

	return undefined(args, reasonFor(args))
}

func classifyClone(args []string) Command {
	name, port, err := naming.ParseCloneSpec(args[1])
	if err != nil {
		return undefined(args, err.Error())
	}

	networks := args[2:]
	if len(networks) > naming.MaxCloneNetworks {
		return undefined(args, fmt.Sprintf("a clone takes at most %d networks, got %d", naming.MaxCloneNetworks, len(networks)))
	}

	return Clone{
		Base:     args[0],
		Name:     name,
		Port:     port,
		Networks: append([]string(nil), networks...),
	}
}

func reasonFor(args []string) string {
	switch {
	case len(args) == 2 && args[0] == wordErase:
		return fmt.Sprintf("no machine named %q", args[1])
	case len(args) == 1:
		return fmt.Sprintf("no machine named %q", args[0])
	case len(args) >= 2:
		return fmt.Sprintf("no base machine named %q", args[0])
	}
	return ""
}

func undefined(args []string, reason string) Undefined {
	return Undefined{Input: strings.Join(args, " "), Reason: reason}
}
