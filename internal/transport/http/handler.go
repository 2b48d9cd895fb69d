package http

import (
	"encoding/json"
	"net/http"

	"users/internal/domain"
	"users/internal/dto"
	"users/internal/netutil"
	"users/internal/service"
)

const maxBodyBytes = 1 << 20

type handler struct {
	users      service.UserService
	guard      service.Guard
	trustProxy bool
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) activate(w http.ResponseWriter, r *http.Request) {
	var req dto.ActivationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.Activate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ActivationResponse{User: dto.NewUserResponse(u)})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.IP = netutil.ClientIP(r, h.trustProxy)
	req.UserAgent = netutil.TruncateUserAgent(r.UserAgent())

	res, err := h.users.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Error != nil {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, res)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	res, err := h.users.LoggedInUser(r.Context(), sess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	res, err := h.users.Logout(r.Context(), sess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request, _ *domain.Session) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := dto.UsersResponse{Users: make([]dto.UserResponse, 0, len(users))}
	for i := range users {
		out.Users = append(out.Users, *dto.NewUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "malformed JSON body"})
		return false
	}
	return true
}
