package registry

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "terra novia", NormalizeName("Terra Novia"))
	assert.Equal(t, "terra novia", NormalizeName("  TERRA NOVIA  "))
	assert.Equal(t, "jyokaro", NormalizeName("jyokaro"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("driver: bad connection")))
	assert.False(t, isUniqueViolation(nil))
}
