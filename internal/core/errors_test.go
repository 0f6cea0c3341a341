// AngelaMos | 2026
// errors_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("create review: %w", ConflictError("already reviewed"))

	assert.True(t, IsAppError(err))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, NotFoundError("order"))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "order not found", body.Error)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestJSONErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, errors.New("dial tcp 10.0.0.5:27017: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestPaginatedTotalPages(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2}, 2, 10, 21)

	var body PaginatedResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(3), body.TotalPages)
	assert.Equal(t, 2, body.Page)
}
