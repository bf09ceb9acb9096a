package command

import (
	"strconv"
	"strings"
)

// Parse classifies a generic (name, args) request into a typed Command.
// name is matched case-insensitively; the returned Command.Name is always
// the uppercase canonical form.
func Parse(name string, args [][]byte) (*Command, *Error) {
	upper := strings.ToUpper(name)
	lower := strings.ToLower(name)

	switch upper {
	// --- lock-free, per-connection only ---
	case "PING":
		if len(args) > 1 {
			return nil, wrongArity(lower)
		}
	case "ECHO":
		if len(args) != 1 {
			return nil, wrongArity(lower)
		}
	case "CLIENT":
		return parseClient(args)

	// --- string / generic ---
	case "SET":
		if len(args) != 2 {
			return nil, wrongArity(lower)
		}
	case "GET", "GETDEL", "TYPE":
		if len(args) != 1 {
			return nil, wrongArity(lower)
		}
	case "INCR", "DECR":
		if len(args) != 1 {
			return nil, wrongArity(lower)
		}
	case "INCRBY", "DECRBY":
		if len(args) != 2 {
			return nil, wrongArity(lower)
		}
		n, err := strconv.ParseInt(string(args[1]), 10, 64)
		if err != nil {
			return nil, invalidType("value is not an integer or out of range")
		}
		return &Command{Name: upper, Args: args, Int: n}, nil
	case "DEL", "EXISTS":
		if len(args) < 1 {
			return nil, wrongArity(lower)
		}
	case "FLUSHDB":
		if len(args) != 0 {
			return nil, wrongArity(lower)
		}

	// --- hash ---
	case "HSET":
		return parseFieldValuePairs(upper, lower, args)
	case "HGET":
		if len(args) != 2 {
			return nil, wrongArity(lower)
		}

	// --- reserved but not executed; still arity/type validated ---
	case "EXPIRE", "EXPIREAT":
		if len(args) != 2 {
			return nil, wrongArity(lower)
		}
		n, err := strconv.ParseInt(string(args[1]), 10, 64)
		if err != nil {
			return nil, invalidType("value is not an integer or out of range")
		}
		return &Command{Name: upper, Args: args, Int: n}, nil
	case "EXPIRETIME", "TTL", "KEYS":
		if len(args) != 1 {
			return nil, wrongArity(lower)
		}
	case "GETSET":
		if len(args) != 2 {
			return nil, wrongArity(lower)
		}
	case "GETEX":
		if len(args) < 1 {
			return nil, wrongArity(lower)
		}
	case "ZADD":
		return parseScoreMemberPairs(upper, lower, args)
	case "ZCARD":
		if len(args) != 1 {
			return nil, wrongArity(lower)
		}
	case "ZRANK":
		if len(args) != 2 {
			return nil, wrongArity(lower)
		}
	case "ZCOUNT":
		if len(args) != 3 {
			return nil, wrongArity(lower)
		}
	case "ZPOPMIN", "ZPOPMAX":
		if len(args) < 1 || len(args) > 2 {
			return nil, wrongArity(lower)
		}
	case "ZRANGE":
		return parseZRange(upper, lower, args)
	case "ZREM":
		if len(args) < 2 {
			return nil, wrongArity(lower)
		}

	case "HGETALL":
		if len(args) != 1 {
			return nil, wrongArity(lower)
		}

	default:
		return nil, unknownCommand(name)
	}

	return &Command{Name: upper, Args: args}, nil
}

func parseClient(args [][]byte) (*Command, *Error) {
	if len(args) == 0 {
		return nil, wrongArity("client")
	}
	sub := strings.ToUpper(string(args[0]))
	if sub != "SETINFO" {
		return nil, invalidFormat("Syntax error, try CLIENT HELP")
	}
	if len(args) != 3 {
		return nil, wrongArity("client|setinfo")
	}
	return &Command{Name: "CLIENT", Args: args}, nil
}

// parseFieldValuePairs validates HSET's "key (field value)+" shape: the
// key plus an even, non-empty run of field/value pairs.
func parseFieldValuePairs(upper, lower string, args [][]byte) (*Command, *Error) {
	if len(args) < 3 {
		return nil, wrongArity(lower)
	}
	rest := args[1:]
	if len(rest)%2 != 0 {
		return nil, wrongArity(lower)
	}

	pairs := make([][2][]byte, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		pairs = append(pairs, [2][]byte{rest[i], rest[i+1]})
	}
	return &Command{Name: upper, Args: args, Pairs: pairs}, nil
}

// parseScoreMemberPairs validates ZADD's "key (score member)+" shape.
func parseScoreMemberPairs(upper, lower string, args [][]byte) (*Command, *Error) {
	if len(args) < 3 {
		return nil, wrongArity(lower)
	}
	rest := args[1:]
	if len(rest)%2 != 0 {
		return nil, wrongArity(lower)
	}

	pairs := make([][2][]byte, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		if _, err := strconv.ParseFloat(string(rest[i]), 64); err != nil {
			return nil, invalidType("value is not a valid float")
		}
		pairs = append(pairs, [2][]byte{rest[i], rest[i+1]})
	}
	return &Command{Name: upper, Args: args, Pairs: pairs}, nil
}

// parseZRange validates "key start stop [WITHSCORES]".
func parseZRange(upper, lower string, args [][]byte) (*Command, *Error) {
	if len(args) != 3 && len(args) != 4 {
		return nil, wrongArity(lower)
	}
	flag := false
	if len(args) == 4 {
		if !strings.EqualFold(string(args[3]), "WITHSCORES") {
			return nil, invalidFormat("syntax error")
		}
		flag = true
	}
	return &Command{Name: upper, Args: args, Flag: flag}, nil
}
