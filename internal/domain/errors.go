package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a transcript record does not exist
	ErrNotFound = errors.New("resource not found")
	// ErrSessionNotFound indicates the session is not registered in this process
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed indicates the session has ended
	ErrSessionClosed = errors.New("session closed")
	// ErrActivationTimeout indicates a document did not leave processing in time
	ErrActivationTimeout = errors.New("document activation timed out")
	// ErrUnsupportedMIMEType indicates an attachment type that cannot be uploaded
	ErrUnsupportedMIMEType = errors.New("unsupported mime type")
	// ErrNoValidDocuments indicates attachments were sent but none were usable
	ErrNoValidDocuments = errors.New("no valid documents were uploaded")
	// ErrEmptyMessage indicates a turn with neither text nor documents
	ErrEmptyMessage = errors.New("message is empty")
)

// UploadError is returned when a local file cannot be read or the remote store rejects it
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// DocumentProcessingError is returned when the remote service marks a document as failed
type DocumentProcessingError struct {
	Name  string
	State DocumentState
}

func (e *DocumentProcessingError) Error() string {
	return fmt.Sprintf("file %s failed to process (state %s)", e.Name, e.State)
}

// PreconditionError is returned when a non-active document is referenced in a prompt
type PreconditionError struct {
	Document string
	State    DocumentState
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("document %s is not active (state %s)", e.Document, e.State)
}

// RemoteServiceError wraps transport, quota and content-policy failures from the model service
type RemoteServiceError struct {
	Op  string
	Err error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("remote service %s: %v", e.Op, e.Err)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// StorageError wraps durable transcript read/write failures
type StorageError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *StorageError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
