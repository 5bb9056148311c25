package sitexport_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/sitexport"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := sitexport.Errorf(sitexport.ENOTFOUND, "seed file %q not found", "seeds.txt")

	assert.Equal(t, sitexport.ENOTFOUND, sitexport.ErrorCode(err))
	assert.Equal(t, "seed file \"seeds.txt\" not found", sitexport.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, sitexport.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, sitexport.ErrorMessage(nil))
}

func TestErrorCode_Wrapped(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("write page: %w", sitexport.Errorf(sitexport.EUNSAFEPATH, "route escapes output"))

	assert.Equal(t, sitexport.EUNSAFEPATH, sitexport.ErrorCode(err))
	assert.Equal(t, "route escapes output", sitexport.ErrorMessage(err))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, sitexport.EINTERNAL, sitexport.ErrorCode(err))
	assert.Equal(t, "Internal error.", sitexport.ErrorMessage(err))
}
