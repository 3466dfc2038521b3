package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler

// Wrap applies mws in order, so the last one sees the request first. nil
// entries are skipped.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for _, mw := range mws {
		if mw == nil {
			continue
		}
		h = mw(h)
	}
	return h
}
