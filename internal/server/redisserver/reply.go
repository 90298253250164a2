package redisserver

import (
	"bufio"
	"strconv"
)

// Reply is one wire-level response. Handlers build a Reply; the session
// encodes it onto the socket and flushes before the next read. A Reply is
// written once and never mutated afterwards.
type Reply interface {
	writeTo(w *bufio.Writer) error
}

// SimpleString encodes as "+<s>\r\n".
type SimpleString string

func (s SimpleString) writeTo(w *bufio.Writer) error {
	_, err := w.WriteString("+" + string(s) + "\r\n")
	return err
}

// ErrorReply encodes as "-<Kind> <Message>\r\n".
type ErrorReply struct {
	Kind    string
	Message string
}

func (e ErrorReply) writeTo(w *bufio.Writer) error {
	_, err := w.WriteString("-" + e.Kind + " " + e.Message + "\r\n")
	return err
}

// Integer encodes as ":<n>\r\n".
type Integer int64

func (n Integer) writeTo(w *bufio.Writer) error {
	_, err := w.WriteString(":" + strconv.FormatInt(int64(n), 10) + "\r\n")
	return err
}

// BulkString encodes as "$<len>\r\n<s>\r\n".
type BulkString string

func (b BulkString) writeTo(w *bufio.Writer) error {
	if _, err := w.WriteString("$" + strconv.Itoa(len(b)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString(string(b)); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

// NullBulk encodes as "$-1\r\n".
type NullBulk struct{}

func (NullBulk) writeTo(w *bufio.Writer) error {
	_, err := w.WriteString("$-1\r\n")
	return err
}

// Array encodes as "*<len>\r\n" followed by each element.
type Array []Reply

func (a Array) writeTo(w *bufio.Writer) error {
	if _, err := w.WriteString("*" + strconv.Itoa(len(a)) + "\r\n"); err != nil {
		return err
	}
	for _, el := range a {
		if err := el.writeTo(w); err != nil {
			return err
		}
	}
	return nil
}

// NullArray encodes as "*-1\r\n".
type NullArray struct{}

func (NullArray) writeTo(w *bufio.Writer) error {
	_, err := w.WriteString("*-1\r\n")
	return err
}

// WriteReply encodes r onto w without flushing.
func WriteReply(w *bufio.Writer, r Reply) error {
	return r.writeTo(w)
}

// EncodeReply returns the wire bytes for r. Used by tests and by callers
// that need the frame without a connection.
func EncodeReply(r Reply) []byte {
	var buf []byte
	bw := bufio.NewWriter(&sliceWriter{buf: &buf})
	_ = r.writeTo(bw)
	_ = bw.Flush()
	return buf
}

type sliceWriter struct {
	buf *[]byte
}

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s.buf = append(*s.buf, p...)
	return len(p), nil
}

func errWrongArity(name string) ErrorReply {
	return ErrorReply{Kind: "ERR", Message: "wrong number of arguments for '" + name + "' command"}
}
