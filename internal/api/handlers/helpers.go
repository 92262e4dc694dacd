package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/utils"
)

// urlParamInt64 parses a chi URL parameter as int64
func urlParamInt64(r *http.Request, name string) (int64, *errors.AppError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.BadRequest("Invalid " + name)
	}
	return id, nil
}

// writeServiceError writes err as an AppError, wrapping unknown errors as 500
func writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		utils.WriteError(w, appErr)
		return
	}
	utils.WriteError(w, errors.Internal("Unexpected error", err))
}
