package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Osdague92/fullstack-docker/domain"
	"github.com/Osdague92/fullstack-docker/pkg/metrics"
	"github.com/Osdague92/fullstack-docker/pkg/repo/memdb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testItem1 = item{
	ID:          primitive.NewObjectID().Hex(),
	Name:        "test one",
	Description: "first item",
}

// brokenRepo имитирует недоступное хранилище.
type brokenRepo struct{}

var errBroken = errors.New("connection lost")

func (brokenRepo) Items(context.Context) ([]item, error) {
	return nil, errBroken
}

func (brokenRepo) Item(context.Context, string) (item, error) {
	return item{}, errBroken
}

func (brokenRepo) AddItem(context.Context, domain.ItemInput) (item, error) {
	return item{}, errBroken
}

func (brokenRepo) ReplaceItem(context.Context, string, domain.ItemInput) (domain.ReplaceResult, error) {
	return domain.ReplaceResult{}, errBroken
}

func (brokenRepo) DeleteItem(context.Context, string) error {
	return errBroken
}

func (brokenRepo) Ping(context.Context) error {
	return errBroken
}

func (brokenRepo) Close() error {
	return nil
}

func newTestAPI(r repo) *API {
	return New(r, zerolog.Nop(), WithMetrics(metrics.New()))
}

func do(t *testing.T, api *API, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func TestAPI(t *testing.T) {
	api := newTestAPI(memdb.New(testItem1))
	missing := primitive.NewObjectID().Hex()

	tests := []struct {
		name           string
		path           string
		method         string
		body           string
		wantStatusCode int
	}{
		{name: "itemsHandlerList", path: "/api/items", method: http.MethodGet, wantStatusCode: http.StatusOK},
		{name: "itemsHandlerListSlash", path: "/api/items/", method: http.MethodGet, wantStatusCode: http.StatusOK},
		{name: "itemsHandlerGet", path: "/api/items/" + testItem1.ID, method: http.MethodGet, wantStatusCode: http.StatusOK},
		{name: "itemsHandlerGetMissing", path: "/api/items/" + missing, method: http.MethodGet, wantStatusCode: http.StatusNotFound},
		{name: "itemsHandlerGetMalformed", path: "/api/items/123", method: http.MethodGet, wantStatusCode: http.StatusNotFound},
		{name: "itemsHandlerCreate", path: "/api/items", method: http.MethodPost, body: `{"name":"n","description":"d"}`, wantStatusCode: http.StatusCreated},
		{name: "itemsHandlerCreateNoName", path: "/api/items", method: http.MethodPost, body: `{"description":"d"}`, wantStatusCode: http.StatusBadRequest},
		{name: "itemsHandlerCreateEmptyDesc", path: "/api/items", method: http.MethodPost, body: `{"name":"n","description":""}`, wantStatusCode: http.StatusBadRequest},
		{name: "itemsHandlerCreateBadJSON", path: "/api/items", method: http.MethodPost, body: `{name: "fail"}`, wantStatusCode: http.StatusBadRequest},
		{name: "itemsHandlerCreateNoBody", path: "/api/items", method: http.MethodPost, wantStatusCode: http.StatusBadRequest},
		{name: "itemsHandlerReplaceMissingFields", path: "/api/items/" + missing, method: http.MethodPut, body: `{"name":"n"}`, wantStatusCode: http.StatusBadRequest},
		{name: "itemsHandlerReplaceUnknown", path: "/api/items/" + missing, method: http.MethodPut, body: `{"name":"n","description":"d"}`, wantStatusCode: http.StatusNotFound},
		{name: "itemsHandlerReplaceMalformed", path: "/api/items/xyz", method: http.MethodPut, body: `{"name":"n","description":"d"}`, wantStatusCode: http.StatusNotFound},
		{name: "itemsHandlerDeleteUnknown", path: "/api/items/" + missing, method: http.MethodDelete, wantStatusCode: http.StatusNotFound},
		{name: "itemsHandlerDeleteMalformed", path: "/api/items/xyz", method: http.MethodDelete, wantStatusCode: http.StatusNotFound},
		{name: "preflight", path: "/api/items", method: http.MethodOptions, wantStatusCode: http.StatusNoContent},
		{name: "health", path: "/healthz", method: http.MethodGet, wantStatusCode: http.StatusOK},
		{name: "metrics", path: "/metrics", method: http.MethodGet, wantStatusCode: http.StatusOK},
		{name: "unknownRoute", path: "/api/other", method: http.MethodGet, wantStatusCode: http.StatusNotFound},
		{name: "methodNotAllowed", path: "/api/items", method: http.MethodPatch, wantStatusCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, api, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatusCode, rr.Code, "%s() body = %s", tt.name, rr.Body.String())
		})
	}
}

func TestAPI_Scenario(t *testing.T) {
	api := newTestAPI(memdb.New())

	rr := do(t, api, http.MethodPost, "/api/items", `{"name":"Pen","description":"Blue ink pen"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[item](t, rr)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Pen", created.Name)
	assert.Equal(t, "Blue ink pen", created.Description)

	path := "/api/items/" + created.ID

	rr = do(t, api, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created, decode[item](t, rr))

	rr = do(t, api, http.MethodPut, path, `{"name":"Pen","description":"Black ink pen"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.MsgItemUpdated, decode[domain.Message](t, rr).Message)

	rr = do(t, api, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Black ink pen", decode[item](t, rr).Description)

	rr = do(t, api, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.MsgItemDeleted, decode[domain.Message](t, rr).Message)

	rr = do(t, api, http.MethodGet, path, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, map[string]string{"error": ErrNotFound.Error()}, decode[map[string]string](t, rr))
}

func TestAPI_ReplaceNoChanges(t *testing.T) {
	api := newTestAPI(memdb.New(testItem1))

	body := `{"name":"` + testItem1.Name + `","description":"` + testItem1.Description + `"}`
	rr := do(t, api, http.MethodPut, "/api/items/"+testItem1.ID, body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.MsgItemNoChange, decode[domain.Message](t, rr).Message)
}

func TestAPI_ListCount(t *testing.T) {
	api := newTestAPI(memdb.New())

	rr := do(t, api, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	const n = 5
	for i := 0; i < n; i++ {
		rr = do(t, api, http.MethodPost, "/api/items", `{"name":"n","description":"d"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr = do(t, api, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]item](t, rr), n)
}

func TestAPI_InvalidInputLeavesStoreUntouched(t *testing.T) {
	db := memdb.New(testItem1)
	api := newTestAPI(db)

	for _, body := range []string{`{}`, `{"name":""}`, `{"name":"x","description":""}`} {
		rr := do(t, api, http.MethodPost, "/api/items", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = do(t, api, http.MethodPut, "/api/items/"+testItem1.ID, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	}

	items, err := db.Items(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []item{testItem1}, items)
}

func TestAPI_FormBody(t *testing.T) {
	api := newTestAPI(memdb.New())

	form := url.Values{"name": {"Mug"}, "description": {"Coffee mug"}}
	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	got := decode[item](t, rr)
	assert.Equal(t, "Mug", got.Name)
	assert.Equal(t, "Coffee mug", got.Description)
}

func TestAPI_StoreErrors(t *testing.T) {
	api := newTestAPI(brokenRepo{})
	id := primitive.NewObjectID().Hex()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"list", http.MethodGet, "/api/items", "", http.StatusInternalServerError},
		{"create", http.MethodPost, "/api/items", `{"name":"n","description":"d"}`, http.StatusInternalServerError},
		{"get", http.MethodGet, "/api/items/" + id, "", http.StatusInternalServerError},
		{"replace", http.MethodPut, "/api/items/" + id, `{"name":"n","description":"d"}`, http.StatusInternalServerError},
		{"delete", http.MethodDelete, "/api/items/" + id, "", http.StatusInternalServerError},
		{"health", http.MethodGet, "/healthz", "", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, api, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rr.Code)
			body := decode[map[string]string](t, rr)
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body["error"], errBroken.Error())
		})
	}
}

func TestAPI_Headers(t *testing.T) {
	api := New(memdb.New(), zerolog.Nop(), WithCORSOrigin("http://localhost:3000"))

	rr := do(t, api, http.MethodOptions, "/api/items/"+testItem1.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rr = httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "req-42", rr.Header().Get(requestIDHeader))

	rr = do(t, api, http.MethodGet, "/api/items", "")
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))

	// без WithMetrics маршрута /metrics нет
	rr = do(t, api, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestAPI_MethodNotAllowed(t *testing.T) {
	api := newTestAPI(memdb.New(testItem1))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/api/items"},
		{http.MethodDelete, "/api/items/"},
		{http.MethodPost, "/api/items/" + testItem1.ID},
		{http.MethodPost, "/healthz"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := do(t, api, tt.method, tt.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			body := decode[map[string]string](t, rr)
			assert.Equal(t, "method "+tt.method+" not allowed", body["error"])
		})
	}
}
