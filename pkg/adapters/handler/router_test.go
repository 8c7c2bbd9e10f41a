package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/triptree/pkg/adapters/ratelimit"
	"github.com/wadjakorntonsri/triptree/pkg/auth"
	"github.com/wadjakorntonsri/triptree/pkg/config"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
	"golang.org/x/oauth2"
)

var demoUser = &domain.User{
	ID:           "user-1",
	Email:        "demo@triptree.dev",
	Username:     "demo",
	PasswordHash: "$2a$10$secret",
	DisplayName:  "Demo Traveler",
	Theme:        domain.DefaultTheme,
}

type stubAuth struct {
	signupErr error
	loginErr  error
	byEmail   map[string]*domain.User
}

func (s *stubAuth) Signup(_ context.Context, in domain.SignupInput) (*domain.User, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return demoUser, nil
}

func (s *stubAuth) Login(_ context.Context, in domain.LoginInput) (*domain.User, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return demoUser, nil
}

func (s *stubAuth) LoginWithEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrInvalidCredentials
}

type stubProfiles struct{}

func (stubProfiles) Owner(_ context.Context, userID string) (*domain.Profile, error) {
	if userID != demoUser.ID {
		return nil, domain.ErrNotFound
	}
	return &domain.Profile{User: *demoUser, Links: []domain.Link{}, Places: []domain.Place{}}, nil
}

func (stubProfiles) Public(_ context.Context, username string) (*domain.PublicProfile, error) {
	if username != demoUser.Username {
		return nil, domain.ErrNotFound
	}
	return &domain.PublicProfile{PublicUser: demoUser.Public(), Links: []domain.Link{}, Places: []domain.Place{}}, nil
}

func (stubProfiles) Update(_ context.Context, userID string, in domain.ProfileUpdate) (*domain.User, error) {
	return demoUser, nil
}

type stubLinks struct{ deleted []string }

func (s *stubLinks) List(context.Context, string) ([]domain.Link, error) { return []domain.Link{}, nil }
func (s *stubLinks) Create(_ context.Context, userID string, in domain.LinkInput) (*domain.Link, error) {
	return &domain.Link{ID: "link-1", UserID: userID, Title: in.Title, URL: in.URL}, nil
}
func (s *stubLinks) Update(context.Context, string, string, domain.LinkInput) (*domain.Link, error) {
	return nil, domain.ErrNotFound
}
func (s *stubLinks) Delete(_ context.Context, userID, id string) error {
	s.deleted = append(s.deleted, userID+"/"+id)
	return nil
}

type stubPlaces struct{}

func (stubPlaces) List(context.Context, string) ([]domain.Place, error) { return []domain.Place{}, nil }
func (stubPlaces) Create(_ context.Context, userID string, in domain.PlaceInput) (*domain.Place, error) {
	return &domain.Place{ID: "place-1", UserID: userID, Name: in.Name}, nil
}
func (stubPlaces) Update(context.Context, string, string, domain.PlaceInput) (*domain.Place, error) {
	return nil, domain.ErrNotFound
}
func (stubPlaces) Delete(context.Context, string, string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      testSecret,
		CORSOrigin:     "http://localhost:3000",
		FrontendURL:    "http://localhost:3000",
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
	}
}

func newTestRouter(cfg *config.Config, a *stubAuth, links *stubLinks) http.Handler {
	limiter := ratelimit.New(ratelimit.NewMemoryStore(nil), cfg.AuthRateLimit, cfg.AuthRateWindow, "auth:")
	return NewRouter(cfg, Services{
		Auth:     a,
		Profiles: stubProfiles{},
		Links:    links,
		Places:   stubPlaces{},
	}, limiter, logging.Nop())
}

func sessionCookie(t *testing.T) *http.Cookie {
	return &http.Cookie{Name: auth.CookieName, Value: generateTestToken(t, testSecret, time.Hour)}
}

func TestRouter_SignupSetsSessionCookie(t *testing.T) {
	r := newTestRouter(testConfig(), &stubAuth{}, &stubLinks{})

	req := httptest.NewRequest("POST", "/auth/signup", strings.NewReader(`{"email":"demo@triptree.dev","username":"demo","password":"TripTree123!","displayName":"Demo Traveler"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user":{"id":"user-1","email":"demo@triptree.dev","username":"demo","displayName":"Demo Traveler"}}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "secret")

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, auth.CookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
	assert.False(t, c.Secure)

	session, err := auth.Verify(c.Value, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.UserID)
	assert.NotEmpty(t, rr.Header().Get("RateLimit-Limit"))
}

func TestRouter_LoginFailuresLookTheSame(t *testing.T) {
	r := newTestRouter(testConfig(), &stubAuth{loginErr: domain.ErrInvalidCredentials}, &stubLinks{})

	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"email":"demo@triptree.dev","password":"wrong-password"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rr.Body.String())
	assert.Empty(t, rr.Result().Cookies())
}

func TestRouter_MalformedJSON(t *testing.T) {
	r := newTestRouter(testConfig(), &stubAuth{}, &stubLinks{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{"email":`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid data"}`, rr.Body.String())
}

func TestRouter_Logout(t *testing.T) {
	r := newTestRouter(testConfig(), &stubAuth{}, &stubLinks{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	r := newTestRouter(testConfig(), &stubAuth{}, &stubLinks{})

	for _, route := range []struct{ method, path string }{
		{"GET", "/me"}, {"PUT", "/me"},
		{"GET", "/links"}, {"POST", "/links"}, {"PUT", "/links/x"}, {"DELETE", "/links/x"},
		{"GET", "/places"}, {"POST", "/places"}, {"PUT", "/places/x"}, {"DELETE", "/places/x"},
	} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(route.method, route.path, strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", route.method, route.path)
	}
}

func TestRouter_SessionRoutes(t *testing.T) {
	links := &stubLinks{}
	r := newTestRouter(testConfig(), &stubAuth{}, links)

	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(sessionCookie(t))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var me map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, "demo@triptree.dev", me["email"])
	assert.NotContains(t, me, "passwordHash")
	assert.Equal(t, []any{}, me["links"])

	req = httptest.NewRequest("POST", "/links", strings.NewReader(`{"title":"Blog","url":"https://blog.example"}`))
	req.AddCookie(sessionCookie(t))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	req = httptest.NewRequest("PUT", "/links/someone-elses", strings.NewReader(`{"title":"Blog","url":"https://blog.example"}`))
	req.AddCookie(sessionCookie(t))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Link not found"}`, rr.Body.String())

	req = httptest.NewRequest("DELETE", "/links/link-1", nil)
	req.AddCookie(sessionCookie(t))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"user-1/link-1"}, links.deleted)
}

func TestRouter_PublicProfileHidesEmail(t *testing.T) {
	r := newTestRouter(testConfig(), &stubAuth{}, &stubLinks{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/public/demo", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "email")
	assert.NotContains(t, rr.Body.String(), "password")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/public/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rr.Body.String())
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(testConfig(), &stubAuth{}, &stubLinks{})

	req := httptest.NewRequest("OPTIONS", "/links", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_OptionalRoutesAbsentWhenUnconfigured(t *testing.T) {
	r := newTestRouter(testConfig(), &stubAuth{}, &stubLinks{})

	req := httptest.NewRequest("POST", "/me/uploads", strings.NewReader(`{}`))
	req.AddCookie(sessionCookie(t))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/auth/google/login", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type stubUploads struct{ err error }

func (s stubUploads) Presign(_ context.Context, userID string, req domain.UploadRequest) (*domain.Upload, error) {
	if s.err != nil {
		return nil, s.err
	}
	key := req.Kind + "/" + userID + "/img.png"
	return &domain.Upload{Key: key, UploadURL: "https://s3.example/" + key + "?sig=1", PublicURL: "https://cdn.example/" + key}, nil
}

func TestRouter_Uploads(t *testing.T) {
	cfg := testConfig()
	limiter := ratelimit.New(ratelimit.NewMemoryStore(nil), cfg.AuthRateLimit, cfg.AuthRateWindow, "auth:")
	newRouter := func(up stubUploads) http.Handler {
		return NewRouter(cfg, Services{
			Auth: &stubAuth{}, Profiles: stubProfiles{}, Links: &stubLinks{}, Places: stubPlaces{}, Uploads: up,
		}, limiter, logging.Nop())
	}

	req := httptest.NewRequest("POST", "/me/uploads", strings.NewReader(`{"kind":"avatar","contentType":"image/png"}`))
	req.AddCookie(sessionCookie(t))
	rr := httptest.NewRecorder()
	newRouter(stubUploads{}).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var up domain.Upload
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &up))
	assert.Equal(t, "avatar/user-1/img.png", up.Key)
	assert.Equal(t, "https://cdn.example/avatar/user-1/img.png", up.PublicURL)

	req = httptest.NewRequest("POST", "/me/uploads", strings.NewReader(`{"kind":"avatar","contentType":"image/png"}`))
	req.AddCookie(sessionCookie(t))
	rr = httptest.NewRecorder()
	newRouter(stubUploads{err: domain.ErrUploadsDisabled}).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

// fakeGoogle serves the token and userinfo endpoints of the OAuth flow.
func fakeGoogle(t *testing.T, user GoogleUser) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"google-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer google-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGoogleHandler(t *testing.T, a *stubAuth, user GoogleUser) *AuthHandler {
	cfg := testConfig()
	cfg.GoogleClientID = "client"
	cfg.GoogleClientSecret = "secret"
	cfg.GoogleRedirectURL = "http://localhost:4000/auth/google/callback"

	srv := fakeGoogle(t, user)
	h := NewAuthHandler(cfg, a, logging.Nop())
	h.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	h.userInfoURL = srv.URL + "/userinfo"
	return h
}

func callback(h *AuthHandler, state, cookieState string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/auth/google/callback?code=abc&state="+url.QueryEscape(state), nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: cookieState})
	}
	rr := httptest.NewRecorder()
	h.GoogleCallback(rr, req)
	return rr
}

func TestGoogleLogin_RedirectsWithState(t *testing.T) {
	h := newGoogleHandler(t, &stubAuth{}, GoogleUser{})

	rr := httptest.NewRecorder()
	h.GoogleLogin(rr, httptest.NewRequest("GET", "/auth/google/login", nil))

	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, oauthStateCookie, cookies[0].Name)
	assert.Equal(t, cookies[0].Value, loc.Query().Get("state"))
}

func TestGoogleCallback(t *testing.T) {
	t.Run("invalid state", func(t *testing.T) {
		h := newGoogleHandler(t, &stubAuth{}, GoogleUser{Email: demoUser.Email, VerifiedEmail: true})
		rr := callback(h, "forged", "expected")
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = callback(h, "forged", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("existing account", func(t *testing.T) {
		a := &stubAuth{byEmail: map[string]*domain.User{demoUser.Email: demoUser}}
		h := newGoogleHandler(t, a, GoogleUser{Email: demoUser.Email, VerifiedEmail: true})

		rr := callback(h, "s1", "s1")
		require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
		assert.Equal(t, "http://localhost:3000/dashboard", rr.Header().Get("Location"))

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		session, err := auth.Verify(cookies[0].Value, []byte(testSecret))
		require.NoError(t, err)
		assert.Equal(t, demoUser.ID, session.UserID)
	})

	t.Run("no account", func(t *testing.T) {
		h := newGoogleHandler(t, &stubAuth{}, GoogleUser{Email: "stranger@example.com", VerifiedEmail: true})

		rr := callback(h, "s1", "s1")
		require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
		assert.Equal(t, "http://localhost:3000/login?error=no_account", rr.Header().Get("Location"))
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("unverified email", func(t *testing.T) {
		a := &stubAuth{byEmail: map[string]*domain.User{demoUser.Email: demoUser}}
		h := newGoogleHandler(t, a, GoogleUser{Email: demoUser.Email})

		rr := callback(h, "s1", "s1")
		assert.Equal(t, "http://localhost:3000/login?error=unverified", rr.Header().Get("Location"))
		assert.Empty(t, rr.Result().Cookies())
	})
}
