// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/constants"
	"github.com/taibuivan/alfurqan/internal/platform/middleware"
	requestutil "github.com/taibuivan/alfurqan/internal/platform/request"
	"github.com/taibuivan/alfurqan/internal/platform/respond"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
	"github.com/taibuivan/alfurqan/internal/platform/validate"
	"github.com/taibuivan/alfurqan/pkg/pagination"
	"github.com/taibuivan/alfurqan/pkg/query"
	"github.com/taibuivan/alfurqan/pkg/slice"
)

// # Handler Implementation

// Handler implements the HTTP layer for contributions and their review.
type Handler struct {
	service *Service
}

// NewHandler constructs a new moderation [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ContributionRoutes returns the router mounted at /api/v1/contributions.
//
// # Routing Strategy
//
//   - Reads: open to everyone; visibility is applied per caller.
//   - Writes: require an authenticated caller.
func (handler *Handler) ContributionRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{type}", handler.list)
	router.Get("/{type}/{id}", handler.view)

	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)

		authed.Post("/{type}", handler.submit)
		authed.Put("/{type}/{id}", handler.revise)
		authed.Delete("/{type}/{id}", handler.delete)
	})

	return router
}

// ModerationRoutes returns the router mounted at /api/v1/moderation.
//
// # Routing Strategy
//
//   - Review: ulama and above.
//   - History: owners and reviewers, checked per item.
//   - Audit queries: admin only.
func (handler *Handler) ModerationRoutes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(reviewer chi.Router) {
		reviewer.Use(middleware.RequireRole(sec.RoleUlama))

		reviewer.Get("/queue", handler.queue)
		reviewer.Post("/{type}/{id}/decision", handler.decide)
	})

	router.With(middleware.RequireAuth).Get("/{type}/{id}/history", handler.history)
	router.With(middleware.RequireRole(sec.RoleAdmin)).Get("/audit", handler.audit)

	return router
}

// # Request Payloads

type submitRequest struct {
	Visibility string          `json:"visibility"`
	Payload    json.RawMessage `json:"payload"`
}

type reviseRequest struct {
	Visibility *string         `json:"visibility"`
	Payload    json.RawMessage `json:"payload"`
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

// # Contribution Endpoints

/*
POST /api/v1/contributions/{type}.

Description: Submits a new contribution. Scholars publish directly; other
registered users enter the review queue. "private" keeps a draft.

Request (Body):
  - visibility: string (private, community_proposed, public)
  - payload: object (schema depends on type)

Response:
  - 201: Item: the stored contribution
  - 400: ErrValidation: invalid payload or visibility
  - 401: ErrUnauthorized: missing token
  - 403: ErrForbidden: role may only create drafts
  - 404: ErrNotFound: unknown content type
*/
func (handler *Handler) submit(writer http.ResponseWriter, request *http.Request) {
	kind, err := content.ParseKind(requestutil.Param(request, "type"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input submitRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Custom("payload", len(input.Payload) == 0, "This field is required")
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	item, err := handler.service.Submit(request.Context(), requestutil.Principal(request), kind, Submission{
		Payload:    input.Payload,
		Visibility: input.Visibility,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, item)
}

/*
GET /api/v1/contributions/{type}/{id}.

Response:
  - 200: Item
  - 403: ErrForbidden: not yet published
  - 404: ErrNotFound: missing, or another user's private draft
*/
func (handler *Handler) view(writer http.ResponseWriter, request *http.Request) {
	kind, err := content.ParseKind(requestutil.Param(request, "type"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	item, err := handler.service.View(request.Context(), requestutil.Principal(request), kind, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, item)
}

/*
GET /api/v1/contributions/{type}.

Description: Lists the contributions visible to the caller, newest first.

Request:
  - owner: string (user id, or "me")
  - status: []string (comma separated)
  - q: string (case-insensitive substring of the payload)
  - page, limit: int

Response:
  - 200: []Item: paginated list
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	kind, err := content.ParseKind(requestutil.Param(request, "type"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal := requestutil.Principal(request)
	page := pagination.FromRequest(request)
	params := request.URL.Query()

	owner := params.Get("owner")
	if owner == "me" {
		if principal, err = requestutil.RequiredPrincipal(request); err != nil {
			respond.Error(writer, request, err)
			return
		}
		owner = principal.ID
	}

	filter := ListFilter{
		OwnerID:  owner,
		Statuses: slice.Map(query.StringSlice(params.Get("status")), func(s string) Status { return Status(s) }),
		Text:     params.Get("q"),
		Limit:    page.Limit,
		Offset:   page.Offset(),
	}

	items, total, err := handler.service.List(request.Context(), principal, kind, filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, items, pagination.NewMeta(page.Page, page.Limit, total))
}

/*
PUT /api/v1/contributions/{type}/{id}.

Description: Owner edit. Omitted fields are unchanged. Reviewed community
items return to the review queue.

Response:
  - 200: Item: the updated contribution
  - 403: ErrForbidden: not the owner
  - 409: ErrInvalidState: changed concurrently, retry
*/
func (handler *Handler) revise(writer http.ResponseWriter, request *http.Request) {
	kind, err := content.ParseKind(requestutil.Param(request, "type"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input reviseRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	item, err := handler.service.Revise(request.Context(), requestutil.Principal(request), kind, requestutil.Param(request, "id"), RevisionInput{
		Payload:    input.Payload,
		Visibility: input.Visibility,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, item)
}

/*
DELETE /api/v1/contributions/{type}/{id}.

Response:
  - 204: deleted
  - 403: ErrForbidden: neither owner nor reviewer
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	kind, err := content.ParseKind(requestutil.Param(request, "type"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), requestutil.Principal(request), kind, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Moderation Endpoints

/*
GET /api/v1/moderation/queue.

Description: Pending community proposals, oldest first. The caller's own
submissions are left out.

Request:
  - type: string (optional content type)
  - limit: int
*/
func (handler *Handler) queue(writer http.ResponseWriter, request *http.Request) {
	var kind content.Kind
	if raw := request.URL.Query().Get("type"); raw != "" {
		parsed, err := content.ParseKind(raw)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		kind = parsed
	}

	limit := requestutil.QueryInt(request, "limit", constants.DefaultListLimit)
	if limit < 1 || limit > constants.MaxListLimit {
		limit = constants.DefaultListLimit
	}

	items, err := handler.service.ReviewQueue(request.Context(), requestutil.Principal(request), kind, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, items)
}

/*
POST /api/v1/moderation/{type}/{id}/decision.

Request (Body):
  - decision: string (approved, rejected)

Response:
  - 200: Item: the reviewed contribution
  - 403: ErrSelfReview: reviewers cannot decide on their own items
  - 409: ErrInvalidState: already reviewed by someone else
*/
func (handler *Handler) decide(writer http.ResponseWriter, request *http.Request) {
	kind, err := content.ParseKind(requestutil.Param(request, "type"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input decisionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("decision", input.Decision).
		OneOf("decision", input.Decision, string(DecisionApprove), string(DecisionReject))
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	item, err := handler.service.Decide(request.Context(), requestutil.Principal(request), kind, requestutil.Param(request, "id"), input.Decision)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, item)
}

// GET /api/v1/moderation/{type}/{id}/history.
func (handler *Handler) history(writer http.ResponseWriter, request *http.Request) {
	kind, err := content.ParseKind(requestutil.Param(request, "type"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	events, err := handler.service.History(request.Context(), requestutil.Principal(request), kind, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, events)
}

/*
GET /api/v1/moderation/audit.

Request:
  - type, actor, action: string
  - since, until: RFC 3339 timestamps
  - limit: int
*/
func (handler *Handler) audit(writer http.ResponseWriter, request *http.Request) {
	params := request.URL.Query()

	v := &validate.Validator{}
	filter := AuditFilter{
		ActorID: params.Get("actor"),
		Action:  Action(params.Get("action")),
		Since:   parseTime(v, "since", params.Get("since")),
		Until:   parseTime(v, "until", params.Get("until")),
		Limit:   requestutil.QueryInt(request, "limit", constants.MaxListLimit),
	}
	if raw := params.Get("type"); raw != "" {
		v.Custom("type", !content.Kind(raw).Valid(), "Unknown content type")
		filter.ContentType = content.Kind(raw)
	}
	if filter.Action != "" {
		v.OneOf("action", string(filter.Action),
			string(ActionSubmitted), string(ActionDecided), string(ActionRevised), string(ActionDeleted))
	}
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	events, err := handler.service.AuditEvents(request.Context(), requestutil.Principal(request), filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, events)
}

func parseTime(v *validate.Validator, field, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	v.Custom(field, err != nil, "Must be an RFC 3339 timestamp")
	return parsed
}
