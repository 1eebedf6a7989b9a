package minio

import (
	"context"
	"errors"
	"net/http"

	"github.com/aysualkaya/assistant/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
)

// mapError translates a MinIO SDK error into a *errs.Error, mirroring the
// mapError convention of the warehouse drivers.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}
	return errs.Wrap(kindOf(err), msg, err)
}

func kindOf(err error) errs.ErrKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.ErrKindTimeout
	}

	// S3-protocol errors arrive as a typed ErrorResponse.
	var resp miniogo.ErrorResponse
	if !errors.As(err, &resp) {
		return errs.ErrKindConnectionFailed
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errs.ErrKindNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.ErrKindPermissionDenied
	case http.StatusBadRequest:
		return errs.ErrKindInvalidInput
	}

	// Some backends report these codes with a non-error HTTP status.
	switch resp.Code {
	case "NoSuchBucket", "NoSuchKey", "NoSuchUpload":
		return errs.ErrKindNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errs.ErrKindPermissionDenied
	case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
		return errs.ErrKindInvalidInput
	case "RequestTimeout", "SlowDown":
		return errs.ErrKindTimeout
	}

	return errs.ErrKindConnectionFailed
}
