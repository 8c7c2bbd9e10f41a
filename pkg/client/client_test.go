package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

func TestClient_CookieSessionAndErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in domain.LoginInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "TripTree123!" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Invalid credentials"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "triptree_session", Value: "tok", Path: "/"})
		_, _ = io.WriteString(w, `{"user":{"id":"u1","email":"demo@triptree.dev","username":"demo","displayName":"Demo"}}`)
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("triptree_session"); err != nil || c.Value != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Unauthorized"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"u1","username":"demo","links":[],"places":[]}`)
	})
	mux.HandleFunc("POST /links", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Invalid data","fields":[{"field":"url","rule":"url"}]}`)
	})
	mux.HandleFunc("DELETE /places/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"Place not found"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL + "/")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = c.Login(ctx, domain.LoginInput{Email: "demo@triptree.dev", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	user, err := c.Login(ctx, domain.LoginInput{Email: "demo@triptree.dev", Password: "TripTree123!"})
	require.NoError(t, err)
	assert.Equal(t, "demo", user.Username)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
	assert.NotNil(t, me.Links)

	_, err = c.CreateLink(ctx, domain.LinkInput{Title: "Blog", URL: "nope"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, []domain.FieldError{{Field: "url", Rule: "url"}}, apiErr.Fields)

	err = c.DeletePlace(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, "api error 404: Place not found", err.Error())
}

func TestUploadFile(t *testing.T) {
	var gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	require.NoError(t, UploadFile(context.Background(), srv.URL+"/bucket/key", "image/png", []byte("png")))
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("png"), gotBody)
}
