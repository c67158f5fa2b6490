package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBizErrorMatchesBaseErrno(t *testing.T) {
	cause := errors.New("duplicate key")
	err := NewSimpleBizError(ErrDatabase, cause, "insert notification")

	assert.True(t, errors.Is(err, ErrDatabase))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Database error: insert notification", err.Message())
	assert.Equal(t, ErrDatabase, From(fmt.Errorf("create: %w", err)))
}

func TestBizErrorFormatsDetail(t *testing.T) {
	err := NewSimpleBizError(ErrParameterInvalid, nil, "body")
	assert.Equal(t, "Invalid parameter body", err.Message())
	assert.Equal(t, "Invalid parameter body", err.Error())
}

func TestFromPlainErrors(t *testing.T) {
	assert.Equal(t, OK, From(nil))
	assert.Equal(t, ErrNotFound, From(ErrNotFound))
	assert.Equal(t, ErrInternalServer, From(errors.New("boom")))
	assert.Equal(t, "Invalid parameter", MessageOf(ErrParameterInvalid))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 404, ErrNotFound.HTTPStatus())
	assert.Equal(t, 401, ErrAuth.HTTPStatus())
	assert.Equal(t, 500, ErrDatabase.HTTPStatus())
	assert.Equal(t, 200, OK.HTTPStatus())
}
