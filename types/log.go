package types

import "time"

// LogEntry is one captured tracking API request/response pair. Entries are
// buffered on the async logger's channel and flushed to the logs table off
// the request path, so a slow database never stalls a delivery update.
type LogEntry struct {
	ID              uint
	Method          string
	URL             string
	RequestBody     string
	ResponseBody    string
	RequestHeaders  string
	ResponseHeaders string
	StatusCode      int
	CreatedAt       time.Time
}
