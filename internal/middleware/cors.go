package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// corsMethods はルーターに登録しているメソッド。PATCH は使わない。
var corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}

// corsMaxAge はプリフライト結果をブラウザがキャッシュする秒数。
const corsMaxAge = 24 * 60 * 60

// NewCORSMiddleware はフロントエンドのオリジン allowedOrigin からの資格情報付きリクエストを許可する。
// Cookieセッションを使うためワイルドカードは返さない。
// CSRFトークンのヘッダーを許可ヘッダーに含め、プリフライトは後段に渡さず204で返す。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	headers := map[string]string{
		"Access-Control-Allow-Origin":      allowedOrigin,
		"Access-Control-Allow-Methods":     strings.Join(corsMethods, ", "),
		"Access-Control-Allow-Headers":     "Content-Type, " + csrfHeaderName,
		"Access-Control-Allow-Credentials": "true",
		"Access-Control-Max-Age":           strconv.Itoa(corsMaxAge),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range headers {
				h.Set(k, v)
			}
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
