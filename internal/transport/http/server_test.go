package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"photowall/internal/domain/models"
	gallerysvc "photowall/internal/services/gallery_service"
	pagesvc "photowall/internal/services/pagination_service"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"log/slog"
)

type MockGallery struct {
	mock.Mock
}

func (m *MockGallery) Initialize(ctx context.Context, databaseID string) error {
	args := m.Called(ctx, databaseID)
	return args.Error(0)
}

func (m *MockGallery) LoadMore(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGallery) FilterByModule(module string) ([]models.Photo, error) {
	args := m.Called(module)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Photo), args.Error(1)
}

func (m *MockGallery) SelectPhoto(ctx context.Context, photoID string) (models.Photo, error) {
	args := m.Called(ctx, photoID)
	return args.Get(0).(models.Photo), args.Error(1)
}

func (m *MockGallery) CurrentPage() []models.Photo {
	args := m.Called()
	return args.Get(0).([]models.Photo)
}

func (m *MockGallery) Pagination() models.PaginationState {
	args := m.Called()
	return args.Get(0).(models.PaginationState)
}

func (m *MockGallery) Mode() models.ViewMode {
	args := m.Called()
	return args.Get(0).(models.ViewMode)
}

func (m *MockGallery) TotalPhotos() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockGallery) HandleScroll(metrics pagesvc.ScrollMetrics) {
	m.Called(metrics)
}

func (m *MockGallery) HandleResize(viewportWidth float64) {
	m.Called(viewportWidth)
}

func (m *MockGallery) Cleanup() {
	m.Called()
}

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func setupServer(gallery *MockGallery) *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("test-secret"))))

	r := NewRouter(slog.Default(), "db1", gallery)

	api := e.Group("/api/v1")
	api.GET("/feed", r.GetFeed)
	api.POST("/feed/more", r.LoadMore)
	api.GET("/feed/filter/:module", r.FilterByModule)
	api.POST("/feed/scroll", r.ScrollEvent)
	api.POST("/feed/resize", r.ResizeEvent)
	api.GET("/photos/:id", r.GetPhoto)
	api.GET("/health", r.Health)

	return e
}

// stubFeedState вешает на мок ответы, которые нужны для сборки FeedResponse
func stubFeedState(gallery *MockGallery, photos []models.Photo) {
	gallery.On("Pagination").Return(models.PaginationState{
		CurrentPageIndex: 1,
		PageSize:         9,
		ModuleFilter:     models.ModuleAll,
		HasMore:          true,
		NextCursor:       "c2",
	})
	gallery.On("CurrentPage").Return(photos)
	gallery.On("Mode").Return(models.ViewModeGrid)
	gallery.On("TotalPhotos").Return(len(photos))
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestGetFeed(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("Initialize", mock.Anything, "db1").Return(nil)
	stubFeedState(gallery, []models.Photo{
		{ID: "p-0", Title: "first", ThumbnailURL: "https://cdn.example.com/p0.jpg"},
	})

	rec := doRequest(setupServer(gallery), http.MethodGet, "/api/v1/feed", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"success"`)
	assert.Contains(t, rec.Body.String(), `"p-0"`)
	assert.Contains(t, rec.Body.String(), `"has_more":true`)

	gallery.AssertExpectations(t)
}

func TestGetFeed_UpstreamDown(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("Initialize", mock.Anything, "db1").Return(errors.New("connect: refused"))

	rec := doRequest(setupServer(gallery), http.MethodGet, "/api/v1/feed", "")

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream_unavailable")
}

func TestLoadMore(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("LoadMore", mock.Anything).Return(nil)
	stubFeedState(gallery, []models.Photo{})

	rec := doRequest(setupServer(gallery), http.MethodPost, "/api/v1/feed/more", "")

	require.Equal(t, http.StatusOK, rec.Code)
	gallery.AssertExpectations(t)
}

func TestLoadMore_NotInitialized(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("LoadMore", mock.Anything).Return(gallerysvc.ErrNotInitialized)

	rec := doRequest(setupServer(gallery), http.MethodPost, "/api/v1/feed/more", "")

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "gallery_not_ready")
}

func TestLoadMore_FetchFailed(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("LoadMore", mock.Anything).Return(errors.New("upstream timeout"))

	rec := doRequest(setupServer(gallery), http.MethodPost, "/api/v1/feed/more", "")

	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestFilterByModule(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("FilterByModule", "travel").Return([]models.Photo{{ID: "t-0"}}, nil)
	stubFeedState(gallery, []models.Photo{{ID: "t-0"}})

	rec := doRequest(setupServer(gallery), http.MethodGet, "/api/v1/feed/filter/travel", "")

	require.Equal(t, http.StatusOK, rec.Code)

	// выбранный фильтр запомнился в сессионной куке
	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == sessionName {
			found = true
		}
	}
	assert.True(t, found, "session cookie must be set")

	gallery.AssertExpectations(t)
}

func TestFilterByModule_NotInitialized(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("FilterByModule", "travel").Return(nil, gallerysvc.ErrNotInitialized)

	rec := doRequest(setupServer(gallery), http.MethodGet, "/api/v1/feed/filter/travel", "")

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetPhoto(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("SelectPhoto", mock.Anything, "p-1").
		Return(models.Photo{ID: "p-1", Title: "found", ThumbnailURL: "https://x/y.jpg"}, nil)

	rec := doRequest(setupServer(gallery), http.MethodGet, "/api/v1/photos/p-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"p-1"`)
}

func TestGetPhoto_NotFound(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("SelectPhoto", mock.Anything, "ghost").
		Return(models.Photo{}, gallerysvc.ErrPhotoNotFound)

	rec := doRequest(setupServer(gallery), http.MethodGet, "/api/v1/photos/ghost", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "photo_not_found")
}

func TestScrollEvent(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("HandleScroll", pagesvc.ScrollMetrics{
		ScrollTop:    2395,
		ScrollHeight: 3000,
		ClientHeight: 600,
		SentinelTop:  900,
	}).Return()

	body := `{"scroll_top":2395,"scroll_height":3000,"client_height":600,"sentinel_top":900}`
	rec := doRequest(setupServer(gallery), http.MethodPost, "/api/v1/feed/scroll", body)

	require.Equal(t, http.StatusAccepted, rec.Code)
	gallery.AssertExpectations(t)
}

func TestScrollEvent_BadPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `scroll`},
		{"missing scroll height", `{"scroll_top":100}`},
		{"negative scroll top", `{"scroll_top":-5,"scroll_height":3000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gallery := new(MockGallery)

			rec := doRequest(setupServer(gallery), http.MethodPost, "/api/v1/feed/scroll", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			gallery.AssertNotCalled(t, "HandleScroll", mock.Anything)
		})
	}
}

func TestResizeEvent(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("HandleResize", float64(640)).Return()

	rec := doRequest(setupServer(gallery), http.MethodPost, "/api/v1/feed/resize", `{"viewport_width":640}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	gallery.AssertExpectations(t)
}

func TestResizeEvent_MissingWidth(t *testing.T) {
	gallery := new(MockGallery)

	rec := doRequest(setupServer(gallery), http.MethodPost, "/api/v1/feed/resize", `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	gallery.AssertNotCalled(t, "HandleResize", mock.Anything)
}

func TestHealth(t *testing.T) {
	gallery := new(MockGallery)
	gallery.On("Mode").Return(models.ViewModeGrid)

	rec := doRequest(setupServer(gallery), http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"grid"`)
}
