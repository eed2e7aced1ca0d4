package app

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/solkit/pkg/metrics"
)

func recoveryMiddleware(log *logrus.Entry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					log.WithFields(logrus.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
						"panic":  fmt.Sprintf("%v", p),
					}).Error("recovered from handler panic")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDHeader carries the request's ID. Clients may supply their own
// UUID, otherwise one is generated. The ID is echoed back in the response.
const RequestIDHeader = "X-Request-Id"

func requestIDMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(r.Header.Get(RequestIDHeader))
			if err != nil {
				id = uuid.New()
			}

			r.Header.Set(RequestIDHeader, id.String())
			w.Header().Set(RequestIDHeader, id.String())

			next.ServeHTTP(w, r)
		})
	}
}

// newRelicMiddleware wraps each request in a New Relic web transaction, and
// makes the application available to the metrics package helpers.
func newRelicMiddleware(nr *newrelic.Application) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			txn := nr.StartTransaction(r.Method + " " + r.URL.Path)
			defer txn.End()

			txn.SetWebRequestHTTP(r)
			w = txn.SetWebResponse(w)

			r = newrelic.RequestWithTransactionContext(r, txn)
			r = r.WithContext(metrics.NewContext(r.Context(), nr))

			next.ServeHTTP(w, r)
		})
	}
}
