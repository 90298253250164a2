package redisserver

import "testing"

func TestEncodeReply(t *testing.T) {
	tests := []struct {
		name  string
		reply Reply
		want  string
	}{
		{"simple string", SimpleString("OK"), "+OK\r\n"},
		{"pong", SimpleString("PONG"), "+PONG\r\n"},
		{"error", ErrorReply{Kind: "ERR", Message: "invalid password"}, "-ERR invalid password\r\n"},
		{"wrongtype error", ErrorReply{Kind: "WRONGTYPE", Message: "Operation against a key holding the wrong kind of value"}, "-WRONGTYPE Operation against a key holding the wrong kind of value\r\n"},
		{"integer", Integer(42), ":42\r\n"},
		{"negative integer", Integer(-1), ":-1\r\n"},
		{"bulk string", BulkString("hello"), "$5\r\nhello\r\n"},
		{"empty bulk string", BulkString(""), "$0\r\n\r\n"},
		{"null bulk", NullBulk{}, "$-1\r\n"},
		{"null array", NullArray{}, "*-1\r\n"},
		{"empty array", Array{}, "*0\r\n"},
		{"mixed array", Array{SimpleString("OK"), Integer(1), BulkString("x")}, "*3\r\n+OK\r\n:1\r\n$1\r\nx\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(EncodeReply(tt.reply))
			if got != tt.want {
				t.Errorf("EncodeReply() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrWrongArity(t *testing.T) {
	got := string(EncodeReply(errWrongArity("auth")))
	want := "-ERR wrong number of arguments for 'auth' command\r\n"
	if got != want {
		t.Errorf("errWrongArity = %q, want %q", got, want)
	}
}
