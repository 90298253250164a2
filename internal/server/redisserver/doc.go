// Package redisserver implements the decoy Redis protocol engine.
//
// It speaks enough RESP2 to look like a real server to scanners and
// credential harvesters: both the inline and the multi-bulk command
// syntaxes are decoded, a fixed table of commands is emulated (AUTH, PING,
// INFO, CLIENT, SELECT, QUIT) and everything a client does is handed to
// the telemetry sink. No key/value data is ever stored or returned, and no
// AUTH attempt ever succeeds.
//
// One goroutine serves each accepted connection; a malformed or hostile
// session terminates itself without disturbing the listener or any other
// session.
package redisserver
