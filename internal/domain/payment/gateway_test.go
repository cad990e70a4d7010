package payment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type outcomeErr struct{ ambiguous bool }

func (e outcomeErr) Error() string   { return "gateway failed" }
func (e outcomeErr) Ambiguous() bool { return e.ambiguous }

func TestMayHaveApplied(t *testing.T) {
	assert.True(t, MayHaveApplied(errors.New("connection reset")))
	assert.True(t, MayHaveApplied(outcomeErr{ambiguous: true}))
	assert.False(t, MayHaveApplied(outcomeErr{ambiguous: false}))
	assert.False(t, MayHaveApplied(fmt.Errorf("create: %w", outcomeErr{ambiguous: false})))
}
