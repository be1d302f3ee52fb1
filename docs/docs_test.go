package docs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

func TestReadDoc(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var spec struct {
		Swagger  string                    `json:"swagger"`
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &spec))
	assert.Equal(t, "2.0", spec.Swagger)
	assert.Equal(t, "/api", spec.BasePath)

	for path, method := range map[string]string{
		"/route/generate": "post",
		"/route/loop":     "post",
		"/route/custom":   "post",
		"/route/options":  "get",
		"/route/health":   "get",
	} {
		require.Contains(t, spec.Paths, path)
		assert.Contains(t, spec.Paths[path], method, path)
	}
}

func TestSwaggerHandlerServesDoc(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cyclone API")
	assert.True(t, json.Valid(rec.Body.Bytes()))
}
