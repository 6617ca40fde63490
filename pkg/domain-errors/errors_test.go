package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type carrier struct{}

func (carrier) Error() string    { return "carrier" }
func (carrier) DomainCode() Code { return CodeConflict }

func TestCodeOf(t *testing.T) {
	t.Run("nil error has no code", func(t *testing.T) {
		assert.Equal(t, Code(""), CodeOf(nil))
	})

	t.Run("plain error maps to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("outermost coded error wins", func(t *testing.T) {
		inner := New(CodeValidation, "bad field")
		outer := Wrap(inner, CodeStorage, "write failed")
		assert.Equal(t, CodeStorage, CodeOf(outer))
		assert.True(t, HasCode(outer, CodeValidation))
	})

	t.Run("typed errors contribute their code", func(t *testing.T) {
		err := fmt.Errorf("check: %w", carrier{})
		assert.Equal(t, CodeConflict, CodeOf(err))
		assert.True(t, Is(err, CodeConflict))
		assert.False(t, Is(err, CodeValidation))
	})
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(errors.New("connection reset"), CodeStorage, "insert record")
	assert.Equal(t, "insert record: connection reset", err.Error())
	assert.Equal(t, "tenant unknown", New(CodeTenantNotFound, "tenant unknown").Error())
}
