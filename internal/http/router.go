package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Claim         http.HandlerFunc
	Join          http.HandlerFunc
	Release       http.HandlerFunc
	Status        http.HandlerFunc
	Stations      http.HandlerFunc
	AdminLogin    http.HandlerFunc
	AdminRollover http.Handler
	Dashboard     http.HandlerFunc
	Health        http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Claim != nil {
		mux.Handle("/claim", method(http.MethodPost, routes.Claim))
	}
	if routes.Join != nil {
		mux.Handle("/waitlist", method(http.MethodPost, routes.Join))
	}
	if routes.Release != nil {
		mux.Handle("/release", method(http.MethodPost, routes.Release))
	}
	if routes.Status != nil {
		mux.Handle("/status", method(http.MethodGet, routes.Status))
	}
	if routes.Stations != nil {
		mux.Handle("/stations", method(http.MethodGet, routes.Stations))
	}
	if routes.AdminLogin != nil {
		mux.Handle("/admin/login", method(http.MethodPost, routes.AdminLogin))
	}
	if routes.AdminRollover != nil {
		mux.Handle("/admin/rollover", methodHandler(http.MethodPost, routes.AdminRollover))
	}
	if routes.Dashboard != nil {
		mux.Handle("/ws", routes.Dashboard)
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func methodHandler(expected string, handler http.Handler) http.Handler {
	return method(expected, handler.ServeHTTP)
}
