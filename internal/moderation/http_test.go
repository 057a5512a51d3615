// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/alfurqan/internal/moderation"
	"github.com/taibuivan/alfurqan/internal/platform/middleware"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

var (
	signingKeyOnce sync.Once
	signingKey     *rsa.PrivateKey
)

func testTokens(t *testing.T) *sec.TokenService {
	t.Helper()
	signingKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		signingKey = key
	})
	return sec.NewTokenServiceWithKey(signingKey, &signingKey.PublicKey, "alfurqan.test")
}

type api struct {
	t      *testing.T
	router http.Handler
	tokens *sec.TokenService
	f      *fixture
}

func newAPI(t *testing.T) *api {
	f := newFixture(t)
	tokens := testTokens(t)
	handler := moderation.NewHandler(f.service)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokens))
	router.Mount("/api/v1/contributions", handler.ContributionRoutes())
	router.Mount("/api/v1/moderation", handler.ModerationRoutes())

	return &api{t: t, router: router, tokens: tokens, f: f}
}

func (a *api) do(who sec.Principal, method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()

	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")

	if !who.IsAnonymous() {
		token, err := a.tokens.GenerateAccessToken(who.ID, "user", who.Role, time.Hour)
		require.NoError(a.t, err)
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	a.router.ServeHTTP(recorder, request)
	return recorder
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
	Code string `json:"code"`
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body), recorder.Body.String())
	return body
}

func decodeItem(t *testing.T, recorder *httptest.ResponseRecorder) moderation.Item {
	t.Helper()
	var item moderation.Item
	require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &item))
	return item
}

func TestHTTP_SubmitReviewFlow(t *testing.T) {
	a := newAPI(t)

	created := a.do(alice, http.MethodPost, "/api/v1/contributions/note",
		`{"visibility":"community_proposed","payload":{"surah":112,"ayah":1,"text":"Say: He is Allah, the One"}}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	item := decodeItem(t, created)
	assert.Equal(t, moderation.StatusPending, item.Status)

	itemPath := "/api/v1/contributions/note/" + item.ID

	assert.Equal(t, http.StatusForbidden, a.do(bob, http.MethodGet, itemPath, "").Code)
	assert.Equal(t, http.StatusOK, a.do(scholar, http.MethodGet, itemPath, "").Code)

	queue := a.do(scholar, http.MethodGet, "/api/v1/moderation/queue?type=note", "")
	require.Equal(t, http.StatusOK, queue.Code)
	var pending []moderation.Item
	require.NoError(t, json.Unmarshal(decode(t, queue).Data, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, item.ID, pending[0].ID)

	decisionPath := "/api/v1/moderation/note/" + item.ID + "/decision"
	decided := a.do(scholar, http.MethodPost, decisionPath, `{"decision":"approved"}`)
	require.Equal(t, http.StatusOK, decided.Code, decided.Body.String())
	assert.Equal(t, moderation.StatusApproved, decodeItem(t, decided).Status)

	late := a.do(scholar2, http.MethodPost, decisionPath, `{"decision":"rejected"}`)
	assert.Equal(t, http.StatusConflict, late.Code)
	assert.Equal(t, "INVALID_STATE", decode(t, late).Code)

	assert.Equal(t, http.StatusOK, a.do(anonymous, http.MethodGet, itemPath, "").Code)

	history := a.do(alice, http.MethodGet, "/api/v1/moderation/note/"+item.ID+"/history", "")
	require.Equal(t, http.StatusOK, history.Code)
	var events []moderation.Event
	require.NoError(t, json.Unmarshal(decode(t, history).Data, &events))
	assert.Len(t, events, 2)
}

func TestHTTP_ErrorMapping(t *testing.T) {
	a := newAPI(t)
	draft := a.f.submit(t, alice, moderation.TierPrivate, "draft")
	own := a.f.submit(t, bob, moderation.TierCommunity, "bob's")

	tests := []struct {
		name   string
		who    sec.Principal
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"anonymous_submit", anonymous, http.MethodPost, "/api/v1/contributions/note", `{"payload":{}}`, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown_kind", alice, http.MethodPost, "/api/v1/contributions/hadith", `{"payload":{}}`, http.StatusNotFound, "NOT_FOUND"},
		{"missing_payload", alice, http.MethodPost, "/api/v1/contributions/note", `{"visibility":"private"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown_body_field", alice, http.MethodPost, "/api/v1/contributions/note", `{"payload":{},"extra":1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"public_role_proposes", visitor, http.MethodPost, "/api/v1/contributions/note", `{"visibility":"public","payload":{"surah":1,"ayah":1,"text":"x"}}`, http.StatusForbidden, "FORBIDDEN"},
		{"private_draft_hidden", admin, http.MethodGet, "/api/v1/contributions/note/" + draft.ID, "", http.StatusNotFound, "NOT_FOUND"},
		{"queue_needs_ulama", alice, http.MethodGet, "/api/v1/moderation/queue", "", http.StatusForbidden, "FORBIDDEN"},
		{"queue_unknown_type", scholar, http.MethodGet, "/api/v1/moderation/queue?type=poem", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad_decision", scholar, http.MethodPost, "/api/v1/moderation/note/" + own.ID + "/decision", `{"decision":"maybe"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"self_review", bob.WithRole(sec.RoleUlama), http.MethodPost, "/api/v1/moderation/note/" + own.ID + "/decision", `{"decision":"approved"}`, http.StatusForbidden, "SELF_REVIEW_DENIED"},
		{"audit_needs_admin", scholar, http.MethodGet, "/api/v1/moderation/audit", "", http.StatusForbidden, "FORBIDDEN"},
		{"audit_bad_since", admin, http.MethodGet, "/api/v1/moderation/audit?since=yesterday", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"list_owner_me_anonymous", anonymous, http.MethodGet, "/api/v1/contributions/note?owner=me", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"list_bad_status", alice, http.MethodGet, "/api/v1/contributions/note?status=archived", "", http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := a.do(tt.who, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			assert.Equal(t, tt.code, decode(t, recorder).Code)
		})
	}
}

func TestHTTP_ListMine(t *testing.T) {
	a := newAPI(t)
	a.f.submit(t, alice, moderation.TierPrivate, "one")
	a.f.submit(t, alice, moderation.TierCommunity, "two")
	a.f.submit(t, bob, moderation.TierCommunity, "three")

	recorder := a.do(alice, http.MethodGet, "/api/v1/contributions/note?owner=me&limit=1", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decode(t, recorder)
	assert.Equal(t, 2, body.Meta.Total)

	var items []moderation.Item
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, alice.ID, items[0].OwnerID)

	pending := a.do(alice, http.MethodGet, "/api/v1/contributions/note?owner=me&status=pending,approved", "")
	assert.Equal(t, 1, decode(t, pending).Meta.Total)
}

func TestHTTP_ReviseAndDelete(t *testing.T) {
	a := newAPI(t)
	item := a.f.submit(t, alice, moderation.TierPrivate, "draft")
	path := "/api/v1/contributions/note/" + item.ID

	revised := a.do(alice, http.MethodPut, path, `{"visibility":"community_proposed"}`)
	require.Equal(t, http.StatusOK, revised.Code, revised.Body.String())
	assert.Equal(t, moderation.StatusPending, decodeItem(t, revised).Status)

	assert.Equal(t, http.StatusForbidden, a.do(scholar, http.MethodPut, path, `{"payload":{"surah":1,"ayah":1,"text":"hijack"}}`).Code)
	assert.Equal(t, http.StatusNotFound, a.do(bob, http.MethodDelete, path, "").Code)

	assert.Equal(t, http.StatusNoContent, a.do(alice, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(alice, http.MethodGet, path, "").Code)
}

func TestHTTP_AuditQuery(t *testing.T) {
	a := newAPI(t)
	a.f.submit(t, alice, moderation.TierCommunity, "one")
	a.f.submit(t, scholar, moderation.TierPublic, "two")

	recorder := a.do(admin, http.MethodGet, "/api/v1/moderation/audit?type=note&actor="+scholar.ID, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var events []moderation.Event
	require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, scholar.ID, events[0].ActorID)
}
