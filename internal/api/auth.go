package api

import (
	"errors"
	"net/http"

	"situationroom/internal/auth"
	"situationroom/internal/model"
	"situationroom/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (d Dependencies) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !d.decodeJSON(w, r, &req) {
		return
	}

	token, user, err := d.Users.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrBadCredentials) {
		WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid email or password", d.Log)
		return
	}
	if err != nil {
		d.serviceError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (d Dependencies) me(w http.ResponseWriter, r *http.Request) {
	user, err := d.Users.Get(r.Context(), auth.GetUserID(r.Context()))
	if err != nil {
		d.serviceError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: user})
}
