package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_Deterministic(t *testing.T) {
	key1 := CacheKey("google", "Calle Mayor 1, Madrid, Madrid")
	key2 := CacheKey("google", "Calle Mayor 1, Madrid, Madrid")
	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 64) // SHA-256 hex is 64 chars
}

func TestCacheKey_CaseAndSpaceInsensitive(t *testing.T) {
	assert.Equal(t,
		CacheKey("nominatim", "Avda. de Andalucía 3, Jaén, Jaén"),
		CacheKey("nominatim", "  AVDA. DE ANDALUCÍA   3, JAÉN, jaén "),
	)
}

func TestCacheKey_NormalizesUnicodeForms(t *testing.T) {
	composed := "Alcal\u00e1, Madrid"
	decomposed := "Alcala\u0301, Madrid"
	assert.Equal(t, CacheKey("google", composed), CacheKey("google", decomposed))
}

func TestCacheKey_ProviderScoped(t *testing.T) {
	assert.NotEqual(t, CacheKey("google", "A St, X, Y"), CacheKey("nominatim", "A St, X, Y"))
	assert.NotEqual(t, CacheKey("google", "A St, X, Y"), CacheKey("google", "B St, X, Y"))
}
