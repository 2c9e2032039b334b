package services

import apperrors "nepsecli/internal/errors"

// ErrRunInProgress is returned when a pipeline run is requested while another is active.
var ErrRunInProgress error = apperrors.NewAppError(apperrors.ErrTypeConflict, "pipeline run already in progress", nil)
