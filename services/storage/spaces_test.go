package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey(PrefixImages, "s-1", "Logo.PNG", []byte("png"))
	assert.True(t, strings.HasPrefix(key, "brand-images/s-1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, key, ObjectKey(PrefixImages, "s-1", "other-name.png", []byte("png")))
}

func TestSpacesConfigEnabled(t *testing.T) {
	assert.False(t, SpacesConfig{}.Enabled())
	assert.True(t, SpacesConfig{AccessKey: "a", SecretKey: "b", Bucket: "c", Region: "nyc3"}.Enabled())
}

func TestFileURL(t *testing.T) {
	c, err := NewSpacesClient(SpacesConfig{AccessKey: "a", SecretKey: "b", Bucket: "media", Region: "nyc3"})
	require.NoError(t, err)
	assert.Equal(t, "https://media.nyc3.digitaloceanspaces.com/k/v.mp4", c.FileURL("k/v.mp4"))

	cdn, err := NewSpacesClient(SpacesConfig{AccessKey: "a", SecretKey: "b", Bucket: "media", Region: "nyc3", CDNURL: "https://cdn.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k/v.mp4", cdn.FileURL("k/v.mp4"))
}
