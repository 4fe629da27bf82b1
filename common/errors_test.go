package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestKindPredicates(t *testing.T) {
	err := NotFoundf("block [%s] not found", "00ab")
	assert.Equal(t, IsNotFound(err), true)
	assert.Equal(t, IsInvalidParameter(err), false)
	assert.Equal(t, HasKind(err, KindStorage), false)

	assert.Equal(t, IsInvalidParameter(InvalidParameterf("bad limit")), true)
	assert.Equal(t, HasKind(Framingf("bad magic"), KindFraming), true)
}

func TestWrappedKindSurvives(t *testing.T) {
	cause := errors.New("connection refused")
	err := RemoteConnection("fetch block", cause)

	wrapped := fmt.Errorf("run aborted: %w", err)
	assert.Equal(t, HasKind(wrapped, KindRemoteConnection), true)
	assert.Equal(t, errors.Is(wrapped, cause), true)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, NotFoundf("missing").Error(), "missing")

	err := Storage("insert block", errors.New("disk I/O error"))
	assert.Equal(t, err.Error(), "insert block: disk I/O error")
}
