package models

// Attachment is a validated file reference held until submission.
// Data is loaded by the attachment collaborator; the session never re-validates it.
type Attachment struct {
	Name     string
	Size     int64
	MIMEType string
	Data     []byte
}

// IsZero reports whether the attachment is empty
func (a *Attachment) IsZero() bool {
	return a == nil || a.Name == ""
}
