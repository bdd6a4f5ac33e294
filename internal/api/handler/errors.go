package handler

import (
	"errors"
	"net/http"

	"github.com/Rrens/auditlens/internal/api/response"
	"github.com/Rrens/auditlens/internal/domain"
	"github.com/rs/zerolog/log"
)

// writeError maps a service error onto an HTTP status and a user-facing message
func writeError(w http.ResponseWriter, err error) {
	var (
		uploadErr     *domain.UploadError
		processingErr *domain.DocumentProcessingError
		preErr        *domain.PreconditionError
		remoteErr     *domain.RemoteServiceError
		storageErr    *domain.StorageError
	)

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		response.Fail(w, http.StatusNotFound, "session_not_found", "session not found, start or resume a chat first")
	case errors.Is(err, domain.ErrSessionClosed):
		response.Fail(w, http.StatusNotFound, "session_closed", "session has ended")
	case errors.Is(err, domain.ErrNoValidDocuments):
		response.Fail(w, http.StatusBadRequest, "no_valid_documents", "no valid files were uploaded, only PDF and plain text are supported")
	case errors.Is(err, domain.ErrEmptyMessage):
		response.Fail(w, http.StatusBadRequest, "empty_message", "message must contain text or files")
	case errors.Is(err, domain.ErrUnsupportedMIMEType):
		response.Fail(w, http.StatusBadRequest, "unsupported_type", err.Error())
	case errors.As(err, &preErr):
		response.Fail(w, http.StatusBadRequest, "document_not_ready", preErr.Error())
	case errors.As(err, &processingErr):
		response.Fail(w, http.StatusUnprocessableEntity, "document_failed", processingErr.Error())
	case errors.Is(err, domain.ErrActivationTimeout):
		response.Fail(w, http.StatusUnprocessableEntity, "activation_timeout", "document processing did not finish in time")
	case errors.As(err, &uploadErr):
		log.Error().Err(err).Msg("Upload failed")
		response.Fail(w, http.StatusBadGateway, "upload_failed", "failed to upload file to the model service")
	case errors.As(err, &remoteErr):
		log.Error().Err(err).Msg("Model service error")
		response.Fail(w, http.StatusBadGateway, "remote_error", "the model service could not answer, please try again")
	case errors.As(err, &storageErr):
		log.Error().Err(err).Msg("History storage error")
		response.Fail(w, http.StatusInternalServerError, "storage_error", "failed to access chat history")
	default:
		log.Error().Err(err).Msg("Unhandled error")
		response.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
