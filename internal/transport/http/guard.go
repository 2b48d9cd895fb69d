package http

import (
	"net/http"

	"users/internal/domain"
)

type authedHandlerFunc func(w http.ResponseWriter, r *http.Request, sess *domain.Session)

// guarded authenticates the request from its token headers and passes the
// resulting session to next. With rotate set, the new token pair is echoed in
// the response headers.
func (h *handler) guarded(next authedHandlerFunc, rotate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.guard.Authenticate(r.Context(),
			r.Header.Get(HeaderAccessToken),
			r.Header.Get(HeaderRefreshToken),
		)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if rotate {
			w.Header().Set(HeaderAccessToken, sess.Tokens.AccessToken)
			w.Header().Set(HeaderRefreshToken, sess.Tokens.RefreshToken)
		}
		next(w, r, sess)
	}
}
