package middleware

import (
	"net/http"

	"go-phonestore/services"
	"go-phonestore/utils"
)

// Maintenance rejects storefront writes while the store is in maintenance
// mode. Reads stay available.
func Maintenance(settings *services.SettingsProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && settings.Current().Store.MaintenanceMode {
				if p, ok := CurrentUser(r); !ok || !p.Admin {
					utils.RespondError(w, http.StatusServiceUnavailable, "the store is under maintenance, please try again later")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
