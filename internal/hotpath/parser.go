package hotpath

import "errors"

// ErrEmptyInput is returned by Parse when given an empty string.
var ErrEmptyInput = errors.New("empty input")

// Option is one parsed long option. Key and Value are sub-slices of the
// parsed input and remain valid as long as the input does.
type Option struct {
	Key   string
	Value string
}

// ParseResult holds the outcome of one parse. Args and Positionals
// alias the caller-supplied buffers; BoolFlags packs short boolean
// flags into a bit-set (see ShortFlagBit for the mapping).
type ParseResult struct {
	Args        []Option
	Positionals []string
	BoolFlags   uint64
}

// HasFlag reports whether the short boolean flag c was present.
func (r ParseResult) HasFlag(c byte) bool {
	bit, ok := ShortFlagBit(c)
	if !ok {
		return false
	}
	return r.BoolFlags&(1<<bit) != 0
}

// ShortFlagBit maps a short-flag character to its bit position:
// a-z occupy bits 0-25, A-Z bits 26-51, 0-9 bits 52-61. Other
// characters have no bit.
func ShortFlagBit(c byte) (uint, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint(c - 'a'), true
	case c >= 'A' && c <= 'Z':
		return uint(c-'A') + 26, true
	case c >= '0' && c <= '9':
		return uint(c-'0') + 52, true
	}
	return 0, false
}

// ZeroCopyParser tokenizes a command line in a single left-to-right
// scan. Every key, value, and positional it returns is a sub-slice of
// the input string; nothing is copied and nothing is allocated beyond
// the caller's buffers.
//
// Grammar, per whitespace-separated token:
//
//	--key=value   long option with value
//	--key         long option, empty value
//	-abc          short boolean flags a, b, c
//	anything else positional
//
// A bare "-" and a bare "--" are positionals.
type ZeroCopyParser struct{}

// Parse scans input and classifies its tokens. argsBuf and posBuf are
// reused as the backing storage for the result; size their capacity for
// the expected token count to keep the scan allocation-free.
func (ZeroCopyParser) Parse(input string, argsBuf []Option, posBuf []string) (ParseResult, error) {
	if input == "" {
		return ParseResult{}, ErrEmptyInput
	}

	result := ParseResult{
		Args:        argsBuf[:0],
		Positionals: posBuf[:0],
	}

	i := 0
	for i < len(input) {
		// Skip the separating run of spaces.
		for i < len(input) && (input[i] == ' ' || input[i] == '\t') {
			i++
		}
		if i >= len(input) {
			break
		}
		start := i
		for i < len(input) && input[i] != ' ' && input[i] != '\t' {
			i++
		}
		token := input[start:i]

		switch {
		case len(token) > 2 && token[0] == '-' && token[1] == '-':
			body := token[2:]
			eq := -1
			for j := 0; j < len(body); j++ {
				if body[j] == '=' {
					eq = j
					break
				}
			}
			if eq >= 0 {
				result.Args = append(result.Args, Option{Key: body[:eq], Value: body[eq+1:]})
			} else {
				result.Args = append(result.Args, Option{Key: body})
			}
		case len(token) > 1 && token[0] == '-' && token[1] != '-':
			for j := 1; j < len(token); j++ {
				if bit, ok := ShortFlagBit(token[j]); ok {
					result.BoolFlags |= 1 << bit
				}
			}
		default:
			result.Positionals = append(result.Positionals, token)
		}
	}

	return result, nil
}
