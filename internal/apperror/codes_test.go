package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	t.Run("Wrapped errors keep their contract code", func(t *testing.T) {
		// Given: a rule error wrapped twice
		err := fmt.Errorf("failed to play: %w", fmt.Errorf("%w: cell 9", ErrInvalidMove))

		// When: the code is resolved
		code := Code(err)

		// Then: it should be the invalid move code
		assert.Equal(t, 101, code)
		assert.True(t, IsRuleViolation(err))
	})

	t.Run("Every game error has a distinct code", func(t *testing.T) {
		// Given: all known errors
		seen := make(map[int]error)

		// When/Then: no two errors share a code
		for _, c := range codes {
			prev, ok := seen[c.code]
			assert.False(t, ok, "code %d used by %v and %v", c.code, prev, c.err)
			seen[c.code] = c.err
			assert.Equal(t, c.code, Code(c.err))
		}
	})

	t.Run("Unknown errors are internal", func(t *testing.T) {
		// Given: an infrastructure error
		err := errors.New("connection refused")

		// When: the code is resolved
		code := Code(err)

		// Then: it should be internal and not a rule violation
		assert.Equal(t, CodeInternal, code)
		assert.False(t, IsRuleViolation(err))
	})

	t.Run("Nil has no code", func(t *testing.T) {
		assert.Zero(t, Code(nil))
		assert.False(t, IsRuleViolation(nil))
	})
}
