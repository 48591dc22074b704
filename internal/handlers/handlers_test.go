package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", services.ErrVersionConflict, http.StatusConflict, "VERSION_CONFLICT"},
		{"wrapped forbidden", errors.Wrap(services.ErrPrivateCommunity, "load posts"), http.StatusForbidden, "PRIVATE_COMMUNITY"},
		{"not found", services.ErrPostNotFound, http.StatusNotFound, services.ErrPostNotFound.Code},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testContext("/api/posts/1")
			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			res := body(t, w)
			assert.Equal(t, tt.code, res["code"])
			assert.NotContains(t, res["error"], "connection reset")
		})
	}
}

func TestPager(t *testing.T) {
	p := pager{size: 10}

	c, _ := testContext("/api/posts?page=abc")
	assert.Equal(t, services.Page{Number: 1, Size: 10}, p.page(c))

	c, _ = testContext("/api/posts?page=0")
	assert.Equal(t, 1, p.page(c).Number)

	c, w := testContext("/api/tags/go/posts?page=2&order=newest")
	page := p.page(c)
	p.respond(c, page, 35, []int{})

	res := body(t, w)
	assert.EqualValues(t, 35, res["count"])
	assert.Equal(t, "/api/tags/go/posts?order=newest&page=3", res["next"])
	assert.Equal(t, "/api/tags/go/posts?order=newest&page=1", res["previous"])

	c, w = testContext("/api/posts?page=4")
	p.respond(c, p.page(c), 35, []int{})
	res = body(t, w)
	assert.Nil(t, res["next"])

	c, w = testContext("/api/posts?page=9223372036854775807")
	p.respond(c, p.page(c), 35, []int{})
	res = body(t, w)
	assert.Nil(t, res["next"])
	assert.Equal(t, "/api/posts?page=4", res["previous"])

	c, w = testContext("/api/posts?page=3")
	p.respond(c, p.page(c), 0, []int{})
	res = body(t, w)
	assert.Nil(t, res["next"])
	assert.Equal(t, "/api/posts?page=1", res["previous"])
}

func TestParamID(t *testing.T) {
	c, w := testContext("/api/posts/x")
	c.Params = gin.Params{{Key: "id", Value: "x"}}

	_, ok := paramID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, _ = testContext("/api/posts/7")
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	id, ok := paramID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, 7, id)
}
