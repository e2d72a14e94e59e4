package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrGalleryNotReady = ErrorResponse{
		Status:  "error",
		Error:   "gallery_not_ready",
		Details: "Gallery is not initialized yet",
	}

	ErrUpstreamUnavailable = ErrorResponse{
		Status:  "error",
		Error:   "upstream_unavailable",
		Details: "Remote content source is unavailable, retry later",
	}

	ErrPhotoNotFound = ErrorResponse{
		Status:  "error",
		Error:   "photo_not_found",
		Details: "No photo with this id in the current session",
	}
)
