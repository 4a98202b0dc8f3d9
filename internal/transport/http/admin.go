package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// AdminCredentials is the configured login pair plus the shared secret
// handed to authenticated clients for subsequent admin calls.
type AdminCredentials struct {
	User   string
	Pass   string
	Secret string
}

type loginRequest struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

type loginResponse struct {
	Secret string `json:"secret"`
}

// HandleAdminLogin checks the configured credential pair and returns the
// admin secret on success. There are no sessions or tokens; the secret
// itself authenticates later requests.
func HandleAdminLogin(creds AdminCredentials) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		if creds.Pass == "" || creds.Secret == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "admin login disabled")
			return
		}
		userOK := subtle.ConstantTimeCompare([]byte(req.User), []byte(creds.User)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(req.Pass), []byte(creds.Pass)) == 1
		if !userOK || !passOK {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid credentials")
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Secret: creds.Secret})
	}
}
