package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tandem-server/middleware"
)

// RouterConfig holds what NewRouter needs besides the handlers.
type RouterConfig struct {
	AllowedOrigins []string
	UploadDir      string
	Tokens         middleware.TokenVerifier
	Logger         *zap.Logger
}

// NewRouter wires every API route.
func NewRouter(cfg RouterConfig, auth *AuthHandler, profile *ProfileHandler, members *MemberHandler, presence *PresenceHandler) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.ErrorMiddleware(cfg.Logger))
	r.Use(middleware.LoggingMiddleware(cfg.Logger))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	requireAuth := middleware.AuthMiddleware(cfg.Tokens)

	// Auth routes
	authRouter := r.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/signup", auth.Signup).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", auth.Login).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/logout", auth.Logout).Methods("POST", "OPTIONS")
	authRouter.Handle("/verify/me", requireAuth(http.HandlerFunc(auth.Me))).Methods("GET", "OPTIONS")

	// Profile routes
	profileRouter := r.PathPrefix("/api/profile").Subrouter()
	profileRouter.Use(requireAuth)
	profileRouter.HandleFunc("", profile.Create).Methods("POST", "OPTIONS")
	profileRouter.HandleFunc("", profile.Delete).Methods("DELETE")
	profileRouter.HandleFunc("/me", profile.Me).Methods("GET", "OPTIONS")
	profileRouter.HandleFunc("/update", profile.Update).Methods("PUT", "OPTIONS")
	profileRouter.HandleFunc("/follow/{id}", profile.Follow).Methods("POST", "OPTIONS")
	profileRouter.HandleFunc("/unfollow/{id}", profile.Unfollow).Methods("POST", "OPTIONS")
	profileRouter.HandleFunc("/block/{id}", profile.Block).Methods("POST", "OPTIONS")
	profileRouter.HandleFunc("/unblock/{id}", profile.Unblock).Methods("POST", "OPTIONS")
	profileRouter.HandleFunc("/enable-notifications", profile.EnableNotifications).Methods("POST", "OPTIONS")
	profileRouter.HandleFunc("/disable-notifications", profile.DisableNotifications).Methods("POST", "OPTIONS")
	profileRouter.HandleFunc("/upload-picture", profile.UploadPicture).Methods("POST", "OPTIONS")

	// Member directory
	memberRouter := r.PathPrefix("/api/members").Subrouter()
	memberRouter.Use(requireAuth)
	memberRouter.HandleFunc("", members.List).Methods("GET", "OPTIONS")
	memberRouter.HandleFunc("/{id}", members.Get).Methods("GET", "OPTIONS")

	r.Handle("/api/presence/ws", requireAuth(http.HandlerFunc(presence.Connect))).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	if cfg.UploadDir != "" {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))
	}
	return r
}
