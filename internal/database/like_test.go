package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%marlboro%", Contains("  Marlboro "))
	assert.Equal(t, `%50\%\_off%`, Contains("50%_OFF"))
	assert.Equal(t, `%a\\b%`, Contains(`a\b`))
}
