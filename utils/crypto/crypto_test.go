package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentDigest(t *testing.T) {
	a := ContentDigest([]byte("logo bytes"))
	b := ContentDigest([]byte("logo bytes"))
	c := ContentDigest([]byte("other bytes"))

	assert.Len(t, a, DigestLength*2)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, ContentDigest(nil), DigestLength*2)
}
