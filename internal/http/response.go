package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

const maxBodyBytes = 1 << 20

// APIError is the error body every endpoint returns. Message is shown to
// the user as is.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Fail(w http.ResponseWriter, status int, msg, code string) {
	WriteJSON(w, status, APIError{Message: msg, Code: code})
}

var errEmptyBody = errors.New("empty body")

// readJSON decodes the request body into v. An empty body is an error unless
// allowEmpty is set.
func readJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		if allowEmpty {
			return nil
		}
		return errEmptyBody
	}
	return err
}

func badJSON(w http.ResponseWriter) {
	Fail(w, http.StatusBadRequest, "Ogiltig förfrågan.", "invalid_json")
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
