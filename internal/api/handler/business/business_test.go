package business

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakeBusinesses struct {
	names map[string]string
}

func (f *fakeBusinesses) Create(_ context.Context, id, name string) (domain.Business, error) {
	if _, ok := f.names[id]; ok {
		return domain.Business{}, errors.Wrap(constant.ErrDuplicateEntry, "businesses")
	}
	f.names[id] = name
	return domain.Business{ID: id, Name: name}, nil
}

func (f *fakeBusinesses) Name(_ context.Context, id string) (string, error) {
	name, ok := f.names[id]
	if !ok {
		return "", constant.ErrBusinessNotFound
	}
	return name, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(&fakeBusinesses{names: map[string]string{}})

	r := gin.New()
	r.POST("/v1/businesses", h.Create)
	r.GET("/v1/businesses/:business_id", h.Get)
	return r
}

func TestCreateAndGet(t *testing.T) {
	r := newRouter()

	body := `{"id":"cafe-central","name":"Cafe Central"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/businesses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/businesses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/businesses/cafe-central", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"cafe-central","name":"Cafe Central"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/businesses/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreate_MissingFields(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/businesses", strings.NewReader(`{"id":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
