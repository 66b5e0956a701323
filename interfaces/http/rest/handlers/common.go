package handlers

import (
	"net/http"

	"ideagraph/pkg/common"
	pkgerrors "ideagraph/pkg/errors"
)

// requireUser reads the owner set by the auth middleware
func requireUser(w http.ResponseWriter, r *http.Request, errorHandler *pkgerrors.ErrorHandler) (string, bool) {
	userID, ok := common.GetUserID(r.Context())
	if !ok {
		errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return "", false
	}
	return userID, true
}

// parseOptionalBody decodes the body when one was sent. Synthesize and rate accept no body.
func parseOptionalBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return common.ParseJSONBody(w, r, v, common.DefaultMaxBodyBytes)
}
