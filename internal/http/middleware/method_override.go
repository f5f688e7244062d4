package middleware

import (
	"net/http"
	"strings"
)

// MethodOverrideParam is the query parameter HTML forms use to tunnel PUT and
// DELETE through POST, e.g. <form method="POST" action="/products/1?_method=PUT">.
const MethodOverrideParam = "_method"

var overridable = map[string]struct{}{
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// MethodOverride rewrites the method of POST requests carrying a supported
// _method query value before next routes them. It wraps the whole engine
// because Gin selects the route tree from the method before any middleware
// runs.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			m := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get(MethodOverrideParam)))
			if _, ok := overridable[m]; ok {
				r = r.Clone(r.Context())
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}
