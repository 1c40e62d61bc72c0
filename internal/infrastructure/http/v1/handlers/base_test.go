package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
)

func paramContext(t *testing.T, value string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: value}}
	return c
}

func TestParamID(t *testing.T) {
	h := NewBaseHandler()
	want := id.New()

	c := paramContext(t, want.String())
	got, ok := h.ParamID(c, "id")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Empty(t, c.Errors)
	assert.False(t, c.IsAborted())
}

func TestParamID_Malformed(t *testing.T) {
	h := NewBaseHandler()

	c := paramContext(t, "not-a-uuid")
	got, ok := h.ParamID(c, "id")
	assert.False(t, ok)
	assert.True(t, id.IsNil(got))
	assert.True(t, c.IsAborted())

	require.Len(t, c.Errors, 1)
	var appErr *apperror.AppError
	require.True(t, errors.As(c.Errors.Last().Err, &appErr))
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "not-a-uuid", appErr.Details["value"])
}
