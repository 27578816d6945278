package controller

import (
	"errors"
	"net/http"
	"strconv"

	"weatherhub-server/internal/modules/telemetry/types"
	"weatherhub-server/internal/utils"
)

// parseIntQuery returns 0 when the parameter is absent; clamping to
// defaults and ceilings happens in the service layer.
func parseIntQuery(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid '" + key + "' (expected integer)")
	}
	return n, nil
}

// writeServiceError maps the module's error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		utils.WriteError(w, http.StatusBadRequest, validationErr.Error())
		return
	}
	var notFoundErr *types.NotFoundError
	if errors.As(err, &notFoundErr) {
		utils.WriteError(w, http.StatusNotFound, notFoundErr.Error())
		return
	}
	utils.WriteError(w, http.StatusInternalServerError, err.Error())
}
