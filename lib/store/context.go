package store

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// NewContext returns a copy of ctx that carries s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the store carried by ctx.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Store)
	return s, ok && s != nil
}

// Factory builds the store for one request.
type Factory func(r *http.Request) (*Store, error)

// SaveMiddleware gives every request its own store (see FromContext) and saves
// it exactly once after the wrapped handler returned. The save does not
// inherit the request's cancellation. Save errors are only logged since the
// response has been written at that point.
func SaveMiddleware(factory Factory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := factory(r)
			if err != nil {
				log.Errorf("creating settings store for %s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "settings unavailable", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))

			if err := s.Save(context.WithoutCancel(r.Context())); err != nil {
				log.Errorf("saving settings after %s %s: %v", r.Method, r.URL.Path, err)
			}
		})
	}
}
