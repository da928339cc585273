package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"vidshare/internal/middleware"
	"vidshare/internal/models"
	"vidshare/internal/storage"
	"vidshare/internal/testsupport/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server *Server
	store  *memstore.Store
	files  *storage.LocalStore
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := middleware.NewTokenService("test-secret", "vidshare-test")
	require.NoError(t, err)
	files, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	store := memstore.New()
	server := NewServer(store, tokens, files, nil, nil)
	router := server.NewRouter(RouterOptions{
		MetricsEnabled: true,
		StaticDir:      files.Root(),
		StaticPath:     files.PublicPath(),
	})

	return &testEnv{server: server, store: store, files: files, router: router}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// doMultipart sends fields and files (form name -> file name/content) as
// multipart/form-data.
func (e *testEnv) doMultipart(t *testing.T, path, token string, fields map[string]string, files map[string][2]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	for name, file := range files {
		part, err := mw.CreateFormFile(name, file[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(file[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, w, &body)
	return body["error"]
}

// signUp registers and logs in a user, returning the user and a bearer token.
func (e *testEnv) signUp(t *testing.T, username, email string) (*models.User, string) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/register", "", RegisterUserRequest{
		Username: username,
		Email:    email,
		Password: "secret-" + username,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/login", "", LoginRequest{Email: email, Password: "secret-" + username})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.User, resp.Token
}

func (e *testEnv) createChannel(t *testing.T, token, name, handle string) *models.Channel {
	t.Helper()

	w := e.do(t, http.MethodPost, "/channels", token, CreateChannelRequest{Name: name, Handle: handle})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var channel models.Channel
	decode(t, w, &channel)
	return &channel
}

func (e *testEnv) upload(t *testing.T, token string, channel *models.Channel, title, category string) *httptest.ResponseRecorder {
	t.Helper()
	return e.doMultipart(t, "/videos/upload", token,
		map[string]string{
			"title":       title,
			"description": "about " + title,
			"category":    category,
			"channelId":   channel.ID.String(),
		},
		map[string][2]string{
			"video":     {"clip.mp4", "video-bytes"},
			"thumbnail": {"thumb.png", "thumb-bytes"},
		})
}

func (e *testEnv) uploadVideo(t *testing.T, token string, channel *models.Channel, title, category string) *models.Video {
	t.Helper()

	w := e.upload(t, token, channel, title, category)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var video models.Video
	decode(t, w, &video)
	return &video
}
