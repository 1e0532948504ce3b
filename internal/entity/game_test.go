package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampRating(t *testing.T) {
	assert.Equal(t, 0.0, ClampRating(-1))
	assert.Equal(t, 5.0, ClampRating(9.5))
	assert.Equal(t, 4.2, ClampRating(4.2))
}

func TestBeforeSaveClampsRating(t *testing.T) {
	g := &Game{Rating: 6}
	assert.NoError(t, g.BeforeSave(nil))
	assert.Equal(t, MaxRating, g.Rating)
}

func TestHasPlatform(t *testing.T) {
	g := &Game{Platform: []string{"PC", "PlayStation 5"}}
	assert.True(t, g.HasPlatform("pc"))
	assert.True(t, g.HasPlatform(" PlayStation 5"))
	assert.False(t, g.HasPlatform("Switch"))
}
