// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/alfurqan/internal/platform/middleware"
	requestutil "github.com/taibuivan/alfurqan/internal/platform/request"
	"github.com/taibuivan/alfurqan/internal/platform/respond"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
	"github.com/taibuivan/alfurqan/internal/platform/validate"
)

// # Handler Implementation

// Handler implements the HTTP layer for accounts.
type Handler struct {
	service *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AuthRoutes returns the router mounted at /api/v1/auth.
func (handler *Handler) AuthRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.With(middleware.RequireAuth).Get("/me", handler.me)

	return router
}

// AdminRoutes returns the router mounted at /api/v1/admin.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireRole(sec.RoleAdmin))
	router.Patch("/users/{id}/role", handler.changeRole)

	return router
}

// # Request Payloads

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// # Endpoints

/*
POST /api/v1/auth/register.

Request (Body):
  - username: string (3-32, letters, digits, dots, dashes, underscores)
  - email: string
  - password: string (8-72)

Response:
  - 201: Account
  - 400: ErrValidation
  - 409: ErrConflict: username or email taken
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input RegisterInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	acc, err := handler.service.Register(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, acc)
}

/*
POST /api/v1/auth/login.

Request (Body):
  - login: string (username or email)
  - password: string

Response:
  - 200: Session: bearer token and account
  - 401: ErrUnauthorized: invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldLogin, input.Login).Required(FieldPassword, input.Password)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), input.Login, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

// GET /api/v1/auth/me.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	acc, err := handler.service.Me(request.Context(), requestutil.Principal(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, acc)
}

/*
PATCH /api/v1/admin/users/{id}/role.

Description: Grants or revokes a role. The change is picked up by the
target's next access token.

Request (Body):
  - role: string (public, registered, ulama, admin)

Response:
  - 200: Account
  - 400: ErrValidation: unknown role
  - 403: ErrForbidden: not admin, or own account
  - 404: ErrNotFound
*/
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	var input roleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	acc, err := handler.service.ChangeRole(request.Context(), requestutil.Principal(request),
		requestutil.Param(request, "id"), input.Role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, acc)
}
