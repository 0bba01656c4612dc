// Package api provides the client for the remote AI query service.
package api

// GJSON paths for extracting values from query service responses.
const (
	// PathResponse holds the reply text in a successful payload: {"response": "..."}
	PathResponse = "response"
)

// Form field names used when a submission carries an attachment
const (
	FieldQuery = "query"
	FieldFile  = "file"
)

// Limits for reading response bodies
const (
	maxErrorBody    = 4096
	maxResponseBody = 8 << 20
)
