package handlers

import (
	"net/http"
	"time"

	"tandem-server/middleware"
	"tandem-server/models"
	"tandem-server/services"
)

type AuthHandler struct {
	auth         *services.AuthService
	tokenTTL     time.Duration
	secureCookie bool
}

type signupResponse struct {
	Message string          `json:"message"`
	User    *models.Account `json:"user"`
	Token   string          `json:"token"`
}

type loginResponse struct {
	User  *models.Account `json:"user"`
	Token string          `json:"token"`
}

func NewAuthHandler(auth *services.AuthService, tokenTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, tokenTTL: tokenTTL, secureCookie: secureCookie}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input services.SignupInput
	if !decodeJSON(w, r, &input) {
		return
	}
	res, err := h.auth.Register(r.Context(), input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.setTokenCookie(w, res.Token)
	middleware.WriteJSON(w, http.StatusCreated, signupResponse{
		Message: "User registered successfully",
		User:    res.Account,
		Token:   res.Token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}
	res, err := h.auth.Login(r.Context(), input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.setTokenCookie(w, res.Token)
	middleware.WriteJSON(w, http.StatusOK, loginResponse{User: res.Account, Token: res.Token})
}

// Me returns the account behind the session token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	account, err := h.auth.Me(r.Context(), accountID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, account)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}
