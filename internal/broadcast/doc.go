// Package broadcast streams recorded snapshots to a live viewer.
//
// A Channel accepts messages of the form {id, file, content}. The
// SocketChannel implementation writes them as JSON lines to a unix or tcp
// address, dropping messages above a configured rate. A Receiver is the
// other end: it accepts connections and hands every decoded line to a
// Handler.
//
// Broadcasting is best effort. Callers log SendMessage errors and carry on.
package broadcast
