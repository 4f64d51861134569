package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/shopfloor/internal/lookup"
)

// Client-facing messages. Store error text never reaches the client.
const (
	msgTermRequired  = "Informe o termo de busca."
	msgOrderRequired = "Informe a ordem de produção."
	msgInvalidLocale = "Locale inválido."
	msgInternal      = "Erro interno."
	msgTimeout       = "Tempo esgotado."
	msgUnauthorized  = "unauthorized"
	msgRateLimited   = "Muitas requisições."
	msgNotFound      = "not found"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// statusFor maps a lookup failure to its HTTP status.
func statusFor(err error) int {
	switch lookup.KindOf(err) {
	case lookup.KindInvalidArgument:
		return http.StatusBadRequest
	case lookup.KindTimeout:
		return http.StatusGatewayTimeout
	case lookup.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondLookupError logs err in full and sends only a generic message.
// invalidMsg is used for invalid-argument failures.
func respondLookupError(w http.ResponseWriter, r *http.Request, err error, invalidMsg string) {
	status := statusFor(err)
	log := zap.L().With(
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.String("kind", lookup.KindOf(err).String()),
	)

	switch status {
	case http.StatusBadRequest:
		log.Debug("api: rejected request", zap.Error(err))
		respondError(w, status, invalidMsg)
	case http.StatusNotFound:
		log.Debug("api: no such record", zap.Error(err))
		respondError(w, status, msgNotFound)
	case http.StatusGatewayTimeout:
		log.Warn("api: lookup timed out", zap.Error(err))
		respondError(w, status, msgTimeout)
	default:
		log.Error("api: lookup failed", zap.Error(err))
		respondError(w, status, msgInternal)
	}
}
