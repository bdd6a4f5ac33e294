package domain

// DocumentState represents the remote processing state of an uploaded file
type DocumentState string

const (
	DocumentStateUnspecified DocumentState = "unspecified"
	DocumentStateProcessing  DocumentState = "processing"
	DocumentStateActive      DocumentState = "active"
	DocumentStateFailed      DocumentState = "failed"
)

// Terminal reports whether the state can no longer change
func (s DocumentState) Terminal() bool {
	return s == DocumentStateActive || s == DocumentStateFailed
}

// Supported upload MIME types
const (
	MIMETypePDF       = "application/pdf"
	MIMETypePlainText = "text/plain"
)

// SupportedMIMEType checks if a MIME type may be attached to a prompt
func SupportedMIMEType(mimeType string) bool {
	switch mimeType {
	case MIMETypePDF, MIMETypePlainText:
		return true
	default:
		return false
	}
}

// DocumentRef is a file uploaded to the remote model service.
// ID is the remote resource name used to re-fetch its state.
type DocumentRef struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"display_name"`
	URI         string        `json:"uri"`
	MIMEType    string        `json:"mime_type"`
	State       DocumentState `json:"state"`
}

// Ready reports whether the document can be referenced in a prompt
func (d DocumentRef) Ready() bool {
	return d.State == DocumentStateActive
}

// Attachment is a local file handed over by the UI runtime
type Attachment struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
}
