package httpapi

import (
	"net/http"

	"voice-cart/internal/infra/proxy"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	limit := app.limiter.Middleware

	mux := http.NewServeMux()
	if app.opts.ProxyEndpoints {
		// Browser clients of the proxy post with a trailing slash.
		for _, path := range []string{proxy.GetTextPath, proxy.GetTextPath + "/{$}"} {
			mux.HandleFunc("POST "+path, limit(app.getTextHandler))
		}
		for _, path := range []string{proxy.ProcessTranscriptPath, proxy.ProcessTranscriptPath + "/{$}"} {
			mux.HandleFunc("POST "+path, limit(app.processTranscriptHandler))
		}
	}
	mux.HandleFunc("GET /api/products", app.productsHandler)
	mux.HandleFunc("GET /api/cart", app.getCartHandler)
	mux.HandleFunc("DELETE /api/cart", app.clearCartHandler)
	mux.HandleFunc("POST /api/cart/calls", limit(app.callHandler))
	mux.HandleFunc("POST /api/voice", limit(app.voiceHandler))
	mux.HandleFunc("POST /api/transcript", limit(app.transcriptHandler))
	mux.HandleFunc("GET /health", app.healthHandler)
	return WithRequestID(WithLogging(app.logger)(mux))
}
