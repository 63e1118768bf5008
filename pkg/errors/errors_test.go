package errors_test

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/termsim/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"unknown term", errors.ErrCodeUnknownTerm, "term GO:1 missing"},
		{"invalid param", errors.CodeInvalidParam, "reference key must not be empty"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestAppError_ErrorFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[COMMON_001] boom", errors.New(errors.CodeInternal, "boom").Error())
	assert.Equal(t, "[COMMON_001] boom: id=1", errors.New(errors.CodeInternal, "boom").WithDetail("id=1").Error())

	wrapped := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrCodeSourceRead, "read failed")
	assert.Equal(t, "[SRC_001] read failed: unexpected EOF", wrapped.Error())
}

func TestWrap_NilReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "ignored"))
}

func TestWrap_PreservesCodeWhenUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.UnknownTerm("GO:1")
	outer := errors.Wrap(inner, errors.CodeUnknown, "expanding reference set")

	assert.Equal(t, errors.ErrCodeUnknownTerm, outer.Code)
	assert.True(t, stderrors.Is(outer, inner))
}

func TestWrap_UnknownCodeOnPlainErrorBecomesInternal(t *testing.T) {
	t.Parallel()

	outer := errors.Wrap(fmt.Errorf("plain"), errors.CodeUnknown, "ctx")
	assert.Equal(t, errors.CodeInternal, outer.Code)
}

func TestIsCode_TraversesFmtWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("run aborted: %w", errors.ReferenceKeyNotFound("set9"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeReferenceKeyNotFound))
	assert.False(t, errors.IsCode(err, errors.ErrCodeUnknownTerm))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeUnknownTerm))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeMalformedRecord, errors.GetCode(errors.MalformedRecord("a.tsv", 3, 1)))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.ExitOK, errors.ExitCode(nil))
	assert.Equal(t, errors.ExitGeneric, errors.ExitCode(stderrors.New("plain")))
	assert.Equal(t, errors.ExitUnknownTerm, errors.ExitCode(errors.UnknownTerm("x")))
}

func TestSourceRead_KeepsCause(t *testing.T) {
	t.Parallel()

	err := errors.SourceRead("closures.tsv", io.ErrUnexpectedEOF)
	assert.Equal(t, errors.ErrCodeSourceRead, err.Code)
	assert.Contains(t, err.Detail, "closures.tsv")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestMalformedRecord_Detail(t *testing.T) {
	t.Parallel()

	err := errors.MalformedRecord("test_set.tsv", 7, 3)
	assert.Equal(t, "source=test_set.tsv row=7 fields=3", err.Detail)
}

func TestUnknownTerm_NamesTerm(t *testing.T) {
	t.Parallel()

	err := errors.UnknownTerm("unknown")
	assert.Contains(t, err.Error(), `term="unknown"`)
}

func TestReferenceKeyNotFound_NamesKey(t *testing.T) {
	t.Parallel()

	err := errors.ReferenceKeyNotFound("missingset")
	assert.Contains(t, err.Error(), `key="missingset"`)
}

func TestWithDetail_NilSafe(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
}

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	base := errors.New(errors.CodeInternal, "base")
	detailed := base.WithDetail("id=1")
	assert.Empty(t, base.Detail)
	assert.Equal(t, "id=1", detailed.Detail)
	assert.Equal(t, base.Code, detailed.Code)
}

func TestStack_StartsAtCaller(t *testing.T) {
	t.Parallel()

	assert.Contains(t, errors.UnknownTerm("x").Stack, "TestStack_StartsAtCaller")
	assert.NotContains(t, errors.New(errors.CodeInternal, "x").Stack, "newError")
}

//Personal.AI order the ending
