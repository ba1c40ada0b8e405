package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Setenv("PROCUREMENT_TEST_VALUE", "  console ")
	assert.Equal(t, "console", Get("PROCUREMENT_TEST_VALUE", "json"))

	t.Setenv("PROCUREMENT_TEST_VALUE", "   ")
	assert.Equal(t, "json", Get("PROCUREMENT_TEST_VALUE", "json"))
}
