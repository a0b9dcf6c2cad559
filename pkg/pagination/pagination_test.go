package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/campaigns", nil)

	p := FromRequest(r)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_Explicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/campaigns?page=3&per_page=50", nil)

	p := FromRequest(r)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PerPage)
	assert.Equal(t, 100, p.Offset)
}

func TestFromRequest_IgnoresInvalid(t *testing.T) {
	r := httptest.NewRequest("GET", "/campaigns?page=-1&per_page=500", nil)

	p := FromRequest(r)

	// Out-of-range values fall back to the defaults instead of erroring.
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
}

func TestNewResult(t *testing.T) {
	params := Params{Page: 2, PerPage: 10}

	result := NewResult([]string{"a", "b"}, 25, params)

	assert.Equal(t, 25, result.TotalCount)
	assert.Equal(t, 3, result.TotalPages)
	assert.True(t, result.HasNext)
	assert.True(t, result.HasPrev)
}

func TestNewResult_NilDataBecomesEmptySlice(t *testing.T) {
	result := NewResult[string](nil, 0, Params{Page: 1, PerPage: 20})

	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
	assert.Equal(t, 0, result.TotalPages)
	assert.False(t, result.HasNext)
	assert.False(t, result.HasPrev)
}
