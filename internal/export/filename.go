package export

import (
	"strings"
	"time"
)

var unsafeStamp = strings.NewReplacer(":", "-", ".", "-")

// FileName returns the download name for a transcript exported at t
func FileName(t time.Time) string {
	return "chat-transcript-" + unsafeStamp.Replace(t.UTC().Format(time.RFC3339Nano)) + ".pdf"
}
