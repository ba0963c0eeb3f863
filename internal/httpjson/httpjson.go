// Package httpjson writes JSON responses and maps tagged errors to HTTP
// statuses. Internal causes are logged, never echoed to clients.
package httpjson

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/apperr"
)

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as {"error": ..., "code": ...} with the status for
// its kind. Internal errors log at error level with the full cause chain.
func WriteError(logger *zap.SugaredLogger, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.Errorw("request failed", "err", err)
	} else {
		logger.Debugw("request rejected", "err", err)
	}
	Write(w, apperr.HTTPStatus(kind), map[string]string{
		"error": apperr.Message(err),
		"code":  kind.String(),
	})
}
