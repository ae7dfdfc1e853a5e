package siteingest_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/siteingest"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := siteingest.Errorf(siteingest.ETIMEOUT, "navigating to %q timed out", "https://example.com")

	assert.Equal(t, siteingest.ETIMEOUT, siteingest.ErrorCode(err))
	assert.Equal(t, "navigating to \"https://example.com\" timed out", siteingest.ErrorMessage(err))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("fetch: %w", siteingest.Errorf(siteingest.ENAVIGATION, "dns failure"))

	assert.Equal(t, siteingest.ENAVIGATION, siteingest.ErrorCode(err))
	assert.Equal(t, "dns failure", siteingest.ErrorMessage(err))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("boom")

	assert.Equal(t, siteingest.EINTERNAL, siteingest.ErrorCode(err))
	assert.Equal(t, "Internal error", siteingest.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, siteingest.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, siteingest.ErrorMessage(nil))
}

func TestPageBundle_CanonicalURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/b", (&siteingest.PageBundle{URL: "https://example.com/a", FinalURL: "https://example.com/b"}).CanonicalURL())
	assert.Equal(t, "https://example.com/a", (&siteingest.PageBundle{URL: "https://example.com/a"}).CanonicalURL())
}

func TestPageBundle_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&siteingest.PageBundle{URL: "https://example.com/"}).Validate())

	err := (&siteingest.PageBundle{}).Validate()
	assert.Equal(t, siteingest.EINVALID, siteingest.ErrorCode(err))
}

func TestResult_String(t *testing.T) {
	t.Parallel()

	tests := map[siteingest.Result]string{
		siteingest.ResultPersisted:          "persisted",
		siteingest.ResultOutOfScope:         "out_of_scope",
		siteingest.ResultAlreadyVisited:     "already_visited",
		siteingest.ResultNavigationTimeout:  "navigation_timeout",
		siteingest.ResultNavigationFailure:  "navigation_failure",
		siteingest.ResultPersistenceFailure: "persistence_failure",
		siteingest.Result(99):               "unknown",
	}
	for result, want := range tests {
		assert.Equal(t, want, result.String())
	}
}
