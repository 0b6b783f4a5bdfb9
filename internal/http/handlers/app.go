// Package handlers implements the operational HTTP API: health checks and
// the token-guarded admin surface.
package handlers

import (
	"encoding/json"
	"net/http"

	"cardpro/internal/bot"
	"cardpro/internal/domain"
	"cardpro/internal/infra"
	"cardpro/internal/ledger"
)

type App struct {
	Ledger *ledger.Service
	Users  domain.UserRepository
	Stats  domain.StatsRepository
	Sender bot.Sender
	Logger infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, msg string) {
	a.json(w, code, map[string]string{"error": slug, "message": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
