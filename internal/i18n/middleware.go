package i18n

import "net/http"

// Middleware injects a localizer into every request context. The language
// comes from the "language" query parameter when present, otherwise the
// configured default. POST handlers whose payload carries a language field
// re-localize with WithLang after decoding.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := r.URL.Query().Get("language")
			if lang == "" {
				lang = defaultLang
			}
			ctx := WithLocalizer(r.Context(), NewLocalizer(lang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
