package themes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCatalog(t *testing.T) {
	r := chi.NewRouter()
	(&Component{}).Routes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/themes", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got Catalog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "church", got.Default)
	require.Len(t, got.Themes, 5)
	assert.Equal(t, "church", got.Themes[0].ID)
	assert.Equal(t, "교회 브라이트", got.Themes[0].LabelKo)
}
