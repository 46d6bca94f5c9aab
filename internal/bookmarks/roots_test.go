package bookmarks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromeResolver(t *testing.T) {
	r := NewChromeResolver()

	assert.Equal(t, PlatformChrome, r.Platform())
	assert.Equal(t, "0", r.TreeRootID())
	assert.Equal(t, []string{"1", "3", "2"}, r.FallbackOrder())
	require.Len(t, r.Roots(), 3)

	id, ok := r.MatchRoot("bookmarks BAR")
	require.True(t, ok)
	assert.Equal(t, "1", id)

	id, ok = r.MatchRoot("Bookmarks Toolbar")
	require.True(t, ok)
	assert.Equal(t, "1", id)

	_, ok = r.MatchRoot("Bookmarks Menu")
	assert.False(t, ok)

	assert.Equal(t, "chrome://settings", r.RewriteURL("chrome://settings"))
}

func TestFirefoxResolver(t *testing.T) {
	r := NewFirefoxResolver()

	assert.Equal(t, PlatformFirefox, r.Platform())
	assert.Equal(t, []string{FirefoxMenu, FirefoxToolbar, FirefoxMobile, FirefoxUnfiled}, r.FallbackOrder())

	id, ok := r.MatchRoot("Bookmarks bar")
	require.True(t, ok)
	assert.Equal(t, FirefoxToolbar, id)

	id, ok = r.MatchRoot("Other bookmarks")
	require.True(t, ok)
	assert.Equal(t, FirefoxUnfiled, id)

	assert.Equal(t, "about:config", r.RewriteURL("chrome://config"))
	assert.Equal(t, "https://x.test", r.RewriteURL("https://x.test"))
}

func TestResolverRootsAreCopies(t *testing.T) {
	r := NewChromeResolver()
	roots := r.Roots()
	roots[0].ID = "mutated"
	assert.Equal(t, "1", r.Roots()[0].ID)
}

func TestResolverByName(t *testing.T) {
	r, err := ResolverByName("Firefox")
	require.NoError(t, err)
	assert.Equal(t, PlatformFirefox, r.Platform())

	r, err = ResolverByName("chrome")
	require.NoError(t, err)
	assert.Equal(t, PlatformChrome, r.Platform())

	_, err = ResolverByName("safari")
	require.Error(t, err)
}

func TestDetectResolver(t *testing.T) {
	assert.Equal(t, PlatformChrome, DetectResolver(nil).Platform())
	assert.Equal(t, PlatformChrome, DetectResolver([]string{"1", "2", "3"}).Platform())
	assert.Equal(t, PlatformFirefox, DetectResolver([]string{"toolbar_____"}).Platform())
	assert.Equal(t, PlatformFirefox, DetectResolver([]string{"root________"}).Platform())
}
