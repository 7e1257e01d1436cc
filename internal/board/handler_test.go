package board

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *Store) {
	t.Helper()
	store := NewStore()
	store.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return NewRouter(store), store
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAppliesDefaults(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/listings", `{"title":"Lamp","type":"sell","price":"0.02"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Lamp", got.Title)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, DefaultCategory, got.Category)
	assert.Equal(t, DefaultDurationUnit, got.DurationUnit)
	assert.Equal(t, DefaultLocation, got.Location)
	assert.Equal(t, DefaultContactEmail, got.ContactEmail)
	assert.Equal(t, DefaultContactPhone, got.ContactPhone)
	assert.True(t, got.IsAvailable)
	assert.Equal(t, "2025-01-02T03:04:05.000Z", got.CreatedAt)
	assert.JSONEq(t, `"0.02"`, string(got.Price))
}

func TestCreateRequiresTitleTypePrice(t *testing.T) {
	r, store := newTestRouter(t)

	bodies := []string{
		`{"type":"sell","price":1}`,
		`{"title":"Lamp","price":1}`,
		`{"title":"Lamp","type":"sell"}`,
		`{"title":"Lamp","type":"sell","price":0}`,
		`{"title":"Lamp","type":"sell","price":""}`,
		`{"title":"Lamp","type":"sell","price":null}`,
	}
	for _, body := range bodies {
		w := do(t, r, http.MethodPost, "/api/listings", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Title, type and price are required."}`, w.Body.String(), body)
	}
	assert.Empty(t, store.All())
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/api/listings", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIDsIncreaseAndListKeepsOrder(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, title := range []string{"A", "B", "C"} {
		w := do(t, r, http.MethodPost, "/api/listings", `{"title":"`+title+`","type":"rent","price":5}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(t, r, http.MethodGet, "/api/listings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 3)
	for i, l := range got {
		assert.Equal(t, int64(i+1), l.ID)
	}
	assert.Equal(t, "C", got[2].Title)
}

func TestListEmptyIsArray(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/listings", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestToggle(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/listings", `{"title":"A","type":"rent","price":5}`).Code)

	w := do(t, r, http.MethodPatch, "/api/listings/1/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.IsAvailable)

	w = do(t, r, http.MethodPatch, "/api/listings/1/toggle", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.IsAvailable)
}

func TestToggleUnknown(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/listings/9/toggle", "/api/listings/abc/toggle"} {
		w := do(t, r, http.MethodPatch, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"error":"Listing not found"}`, w.Body.String())
	}
}
