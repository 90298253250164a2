package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Protocol limits to keep adversarial input from exhausting the process.
const (
	// MaxArrayLen limits the number of elements in a multi-bulk frame.
	// Nothing we emulate takes more than a handful of arguments.
	MaxArrayLen = 1024

	// MaxBulkLen limits the size of a single bulk string (512KB).
	MaxBulkLen = 512 * 1024

	// MaxInlineLen limits inline command line length (4KB).
	MaxInlineLen = 4 * 1024
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")

	// ErrInlineProtocol marks malformed inline lines. It wraps ErrProtocol,
	// so errors.Is(err, ErrProtocol) still matches; the distinction only
	// selects the wire-level error message.
	ErrInlineProtocol = fmt.Errorf("%w: inline command", ErrProtocol)
)

// Command is one decoded client request. Name is case-folded to lowercase
// for dispatch; Args keep the bytes the client sent, already validated as
// UTF-8 text by the decoder.
type Command struct {
	Name string
	Args []string
}

// Empty reports whether the command carries no name (blank inline line or
// a null/zero-length multi-bulk frame).
func (c Command) Empty() bool {
	return c.Name == ""
}

func newCommand(tokens []string) Command {
	if len(tokens) == 0 {
		return Command{}
	}
	return Command{
		Name: strings.ToLower(tokens[0]),
		Args: tokens[1:],
	}
}

// ReadCommand decodes the next client command from r.
//
// Two syntaxes are accepted, matching the real server's duality: the
// multi-bulk array form ("*<n>\r\n$<len>\r\n<payload>\r\n...") and the
// inline form (a plain whitespace-separated line, as sent by telnet-style
// clients). r buffers partial frames across socket reads, so a frame split
// over multiple TCP segments decodes the same as one delivered whole.
func ReadCommand(r *bufio.Reader) (Command, error) {
	b, err := r.Peek(1)
	if err != nil {
		return Command{}, err
	}

	if b[0] == '*' {
		return readArrayCommand(r)
	}

	line, err := readInlineLine(r, MaxInlineLen)
	if err != nil {
		return Command{}, err
	}
	if !utf8.ValidString(line) {
		return Command{}, fmt.Errorf("%w is not valid text", ErrInlineProtocol)
	}
	return newCommand(strings.Fields(line)), nil
}

func readArrayCommand(r *bufio.Reader) (Command, error) {
	// "*<n>\r\n"
	line, err := readLine(r, 64) // Array header is short: "*<number>\r\n"
	if err != nil {
		return Command{}, err
	}
	if len(line) < 2 || line[0] != '*' {
		return Command{}, fmt.Errorf("%w: expected array", ErrProtocol)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
	if err != nil {
		return Command{}, fmt.Errorf("%w: invalid array length", ErrProtocol)
	}
	if n == -1 || n == 0 {
		// Explicit null array or empty array: no command.
		return Command{}, nil
	}
	if n < 0 {
		return Command{}, fmt.Errorf("%w: invalid array length", ErrProtocol)
	}
	if n > MaxArrayLen {
		return Command{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	tokens := make([]string, 0, n)
	for i := 0; i < n; i++ {
		arg, err := readBulkString(r)
		if err != nil {
			return Command{}, err
		}
		tokens = append(tokens, arg)
	}
	return newCommand(tokens), nil
}

func readBulkString(r *bufio.Reader) (string, error) {
	line, err := readLine(r, 64) // Bulk header is short: "$<number>\r\n"
	if err != nil {
		return "", err
	}
	if len(line) < 2 || line[0] != '$' {
		return "", fmt.Errorf("%w: expected bulk string", ErrProtocol)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
	if err != nil {
		return "", fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}
	if n == -1 {
		// Explicit null element decodes as an empty argument.
		return "", nil
	}
	if n < 0 {
		return "", fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}
	if n > MaxBulkLen {
		return "", fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	payload := buf[: len(buf)-2 : len(buf)-2]
	if !utf8.Valid(payload) {
		return "", fmt.Errorf("%w: bulk payload is not valid text", ErrProtocol)
	}
	return string(payload), nil
}

// readLine reads one CRLF-terminated protocol line and strips the
// terminator. Multi-bulk headers are CRLF-strict.
func readLine(r *bufio.Reader, maxLen int) (string, error) {
	buf, err := readLineBytes(r, maxLen)
	if err != nil {
		return "", err
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}

// readInlineLine reads one inline command line. telnet-style clients
// terminate with CRLF but nc sends a bare LF; the real server accepts
// both, and dropping nc probes would cost the decoy its most naive
// visitors.
func readInlineLine(r *bufio.Reader, maxLen int) (string, error) {
	buf, err := readLineBytes(r, maxLen)
	if err != nil {
		return "", err
	}
	buf = bytes.TrimSuffix(buf, []byte("\n"))
	buf = bytes.TrimSuffix(buf, []byte("\r"))
	return string(buf), nil
}

// readLineBytes reads up to and including the next LF, honoring maxLen.
func readLineBytes(r *bufio.Reader, maxLen int) ([]byte, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("%w: invalid maxLen", ErrProtocol)
	}

	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return nil, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
			}
			continue
		}
		return nil, err
	}

	if len(buf) > maxLen {
		return nil, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	return buf, nil
}

// AppendCommand encodes cmd as a multi-bulk frame, appending to dst.
// Decoding the result yields an equivalent Command.
func AppendCommand(dst []byte, cmd Command) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(len(cmd.Args)+1), 10)
	dst = append(dst, '\r', '\n')
	dst = appendBulk(dst, cmd.Name)
	for _, a := range cmd.Args {
		dst = appendBulk(dst, a)
	}
	return dst
}

func appendBulk(dst []byte, s string) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, s...)
	return append(dst, '\r', '\n')
}
