package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "reports/u1/abc.jpg", ObjectName("u1", "abc", "image/jpeg"))
	assert.Equal(t, "reports/u1/abc.png", ObjectName("u1", "abc", "image/png"))
	assert.Equal(t, "reports/u1/abc.bin", ObjectName("u1", "abc", "application/octet-stream"))
}

func TestObjectNameSeparatesOwners(t *testing.T) {
	assert.NotEqual(t, ObjectName("u1", "sub-1", "image/png"), ObjectName("u2", "sub-1", "image/png"))
}

func TestObjectFromURLRoundTrip(t *testing.T) {
	url := PublicURL("civicfix-images", ObjectName("u1", "sub-1", "image/webp"))
	assert.Equal(t, "https://storage.googleapis.com/civicfix-images/reports/u1/sub-1.webp", url)

	obj, err := ObjectFromURL("civicfix-images", url)
	require.NoError(t, err)
	assert.Equal(t, "reports/u1/sub-1.webp", obj)
}

func TestObjectFromURLRejectsForeignURLs(t *testing.T) {
	_, err := ObjectFromURL("civicfix-images", "https://example.com/civicfix-images/a.jpg")
	assert.Error(t, err)

	_, err = ObjectFromURL("civicfix-images", "https://storage.googleapis.com/other-bucket/a.jpg")
	assert.Error(t, err)

	_, err = ObjectFromURL("civicfix-images", "https://storage.googleapis.com/civicfix-images/")
	assert.Error(t, err)
}
