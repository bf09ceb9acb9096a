// Package command implements the second parse stage: turning a generic
// (name, args [][]byte) request into a strongly-typed Command variant, with
// uniform arity and argument-shape validation. It never touches the
// dataspace.
package command

import "fmt"

// ErrorKind enumerates the ways a command can fail to classify.
type ErrorKind int

const (
	// WrongNumberOfArguments: too few or too many arguments for the name.
	WrongNumberOfArguments ErrorKind = iota
	// InvalidArgumentType: an argument that must be numeric was not.
	InvalidArgumentType
	// InvalidCommandFormat: structural error — unknown subcommand,
	// unrecognized trailing token.
	InvalidCommandFormat
	// WrongType: reserved for execution-time value-tag mismatches; never
	// produced by Parse itself.
	WrongType
	// UnknownCommand: name does not match any recognized command.
	UnknownCommand
)

// Error is returned by Parse when a request cannot be classified into a
// valid typed Command.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func wrongArity(lowerName string) *Error {
	return &Error{
		Kind: WrongNumberOfArguments,
		Msg:  fmt.Sprintf("wrong number of arguments for '%s' command", lowerName),
	}
}

func invalidType(msg string) *Error {
	return &Error{Kind: InvalidArgumentType, Msg: msg}
}

func invalidFormat(msg string) *Error {
	return &Error{Kind: InvalidCommandFormat, Msg: msg}
}

func unknownCommand(name string) *Error {
	return &Error{Kind: UnknownCommand, Msg: fmt.Sprintf("unknown command '%s'", name)}
}

// Command is the typed, validated result of classifying a request. Every
// command shares this one struct; Name selects the variant, and the
// Executor looks its handler up by Name.
type Command struct {
	Name string // uppercase canonical name
	Args [][]byte

	// Populated by Parse for commands whose shape needs pre-digesting so
	// the Executor doesn't re-validate arity/parity. Only the field(s)
	// relevant to Name are set.
	Pairs [][2][]byte // HSET field/value pairs, ZADD score/member pairs
	Int   int64       // INCRBY/DECRBY delta, numeric subcommand arguments
	Flag  bool        // ZRANGE WITHSCORES
}
