package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesAcrossWrapping(t *testing.T) {
	cases := map[string]struct {
		kind *Error
		err  error
		want bool
	}{
		"direct match": {
			kind: ErrInvalidInstruction,
			err:  ErrInvalidInstruction,
			want: true,
		},
		"single wrap": {
			kind: ErrInsufficientWeight,
			err:  Wrap(ErrInsufficientWeight, "only 1 of 1000"),
			want: true,
		},
		"double wrap": {
			kind: ErrInvalidAccountData,
			err:  Wrap(Wrap(ErrInvalidAccountData, "inner"), "outer"),
			want: true,
		},
		"different kind": {
			kind: ErrInvalidOwner,
			err:  Wrap(ErrInvalidState, "frozen"),
			want: false,
		},
		"stdlib error": {
			kind: ErrInvalidInstruction,
			err:  fmt.Errorf("invalid instruction"),
			want: false,
		},
		"nil kind matches nil": {
			kind: nil,
			err:  nil,
			want: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.kind.Is(tc.err))
		})
	}
}

func TestWrapNilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "whatever"))
	assert.Nil(t, Wrapf(nil, "whatever %d", 42))
}

func TestCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want uint32
	}{
		"nil is success":      {err: nil, want: 0},
		"root error":          {err: ErrInsufficientWeight, want: 5},
		"wrapped root":        {err: Wrap(ErrInvalidInstruction, "tag 200"), want: 6},
		"deeply wrapped root": {err: Wrap(Wrap(ErrMissingSignature, "a"), "b"), want: 11},
		"stdlib is internal":  {err: fmt.Errorf("boom"), want: 1},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, Code(tc.err))
		})
	}
}

func TestInfoRedactsInternal(t *testing.T) {
	code, log := Info(fmt.Errorf("secret detail"), false)
	assert.Equal(t, uint32(1), code)
	assert.Equal(t, "internal error", log)

	code, log = Info(Wrap(ErrInvalidState, "frozen"), false)
	assert.Equal(t, uint32(7), code)
	assert.Equal(t, "frozen: invalid state for requested operation", log)
}

func TestNewPreservesKind(t *testing.T) {
	err := ErrInvalidOwner.Newf("identity %q", "abc")
	assert.True(t, ErrInvalidOwner.Is(err))
	assert.Equal(t, uint32(4), Code(err))
}

func TestRecover(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		panic("kaboom")
	}()
	assert.True(t, ErrPanic.Is(err))
}

func TestRegisterRejectsDuplicateCode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	Register(5, "duplicate of insufficient weight")
}
