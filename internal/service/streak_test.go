package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreakNext(t *testing.T) {
	var engine StreakEngine

	assert.Equal(t, 1, engine.Next(0, Early))
	assert.Equal(t, 8, engine.Next(7, Early))
	assert.Equal(t, 1, engine.Next(0, Late))
	assert.Equal(t, 1, engine.Next(42, Late))
}

func TestStreakApplyUnknownTask(t *testing.T) {
	f := newFixture(t)

	_, err := StreakEngine{}.Apply(f.ctx, f.repo, 404, Early)
	assert.ErrorIs(t, err, ErrNotFound)
}
