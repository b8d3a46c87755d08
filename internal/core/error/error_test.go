package errx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))

	notFound := WrapRedis(redis.Nil)
	assert.Equal(t, http.StatusNotFound, StatusOf(notFound))
	assert.True(t, errors.Is(notFound, redis.Nil))

	failed := WrapRedis(errors.New("connection refused"))
	assert.Equal(t, http.StatusBadGateway, StatusOf(failed))
	assert.Equal(t, RedisErrorMessage, MessageOf(failed))
}

func TestWrapKeepsKindAndCause(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := Wrap(ErrClassifierUnavailable, cause)

	assert.ErrorIs(t, err, ErrClassifierUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrClassifierMalformed)
	assert.Equal(t, ErrSearchUnavailable, Wrap(ErrSearchUnavailable, nil))
}

func TestStatusOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, SystemErrorMessage, MessageOf(err))

	var appErr *AppError
	assert.True(t, errors.As(NotFound("c1"), &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.ErrorIs(t, appErr, ErrSessionNotFound)
}
