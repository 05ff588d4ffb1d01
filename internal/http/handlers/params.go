package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/hongminglow/finance-ledger/internal/http/respond"
	"github.com/hongminglow/finance-ledger/internal/ledger"
	"github.com/hongminglow/finance-ledger/internal/middleware"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var errInvalidJSON = errors.New("invalid JSON payload")

// pathID reads a positive integer path value. ok is false for anything else.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// decodeBody reads a JSON object into dst. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidJSON
	}
	if dec.More() {
		return errInvalidJSON
	}
	return nil
}

// writeError maps ledger errors to 400/404/409 and logs anything else as a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var lerr *ledger.Error
	if errors.As(err, &lerr) {
		status := http.StatusInternalServerError
		switch lerr.Kind {
		case ledger.KindBadRequest:
			status = http.StatusBadRequest
		case ledger.KindNotFound:
			status = http.StatusNotFound
		case ledger.KindConflict:
			status = http.StatusConflict
		}
		respond.Error(w, status, lerr.Message)
		return
	}
	if errors.Is(err, errInvalidJSON) {
		respond.Error(w, http.StatusBadRequest, errInvalidJSON.Error())
		return
	}
	middleware.Logger(r.Context()).Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	respond.Error(w, http.StatusInternalServerError, "internal server error")
}

// NotFound answers requests that match no route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusNotFound, "Route not found")
}
