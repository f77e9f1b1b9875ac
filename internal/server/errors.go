package server

import (
	"net/http"

	apperrors "github.com/namelens/genproxy/internal/errors"
)

// HandleError is the single writer for JSON error responses.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
