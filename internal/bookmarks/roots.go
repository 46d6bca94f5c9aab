package bookmarks

import (
	"fmt"
	"strings"
)

// RootFolder is one of the fixed top-level folders a platform provides.
type RootFolder struct {
	ID      string
	Title   string
	Aliases []string
}

// RootFolderResolver captures how a host platform names and orders its root
// folders, and how imported content has to be adjusted for it.
type RootFolderResolver interface {
	// Platform returns a short name such as "chrome" or "firefox".
	Platform() string
	// TreeRootID is the id of the invisible node that holds the root folders.
	TreeRootID() string
	// Roots lists the root folders in display order.
	Roots() []RootFolder
	// FallbackOrder lists root ids in the order they are tried when an
	// imported node has nowhere better to go.
	FallbackOrder() []string
	// MatchRoot maps a folder title to a root id by alias.
	MatchRoot(title string) (string, bool)
	// RewriteURL adapts a link URL before it is created locally.
	RewriteURL(url string) string
}

const (
	PlatformChrome  = "chrome"
	PlatformFirefox = "firefox"
	PlatformAuto    = "auto"
)

type rootTable struct {
	treeRoot string
	roots    []RootFolder
	fallback []string
}

func (t rootTable) TreeRootID() string { return t.treeRoot }

func (t rootTable) Roots() []RootFolder {
	out := make([]RootFolder, len(t.roots))
	copy(out, t.roots)
	return out
}

func (t rootTable) FallbackOrder() []string {
	return append([]string(nil), t.fallback...)
}

func (t rootTable) MatchRoot(title string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(title))
	if want == "" {
		return "", false
	}
	for _, r := range t.roots {
		if strings.ToLower(r.Title) == want {
			return r.ID, true
		}
		for _, a := range r.Aliases {
			if a == want {
				return r.ID, true
			}
		}
	}
	return "", false
}

// ChromeResolver follows the Chromium convention: numeric ids, toolbar "1",
// other "2", mobile "3".
type ChromeResolver struct{ rootTable }

func NewChromeResolver() *ChromeResolver {
	return &ChromeResolver{rootTable{
		treeRoot: "0",
		roots: []RootFolder{
			{ID: "1", Title: "Bookmarks bar", Aliases: []string{"bookmarks toolbar", "favorites bar"}},
			{ID: "2", Title: "Other bookmarks", Aliases: []string{"other", "unfiled bookmarks"}},
			{ID: "3", Title: "Mobile bookmarks", Aliases: []string{"mobile"}},
		},
		fallback: []string{"1", "3", "2"},
	}}
}

func (*ChromeResolver) Platform() string { return PlatformChrome }

func (*ChromeResolver) RewriteURL(url string) string { return url }

// FirefoxResolver follows the Gecko convention of fixed twelve character
// GUIDs for the root folders.
type FirefoxResolver struct{ rootTable }

const (
	FirefoxMenu    = "menu________"
	FirefoxToolbar = "toolbar_____"
	FirefoxUnfiled = "unfiled_____"
	FirefoxMobile  = "mobile______"
)

func NewFirefoxResolver() *FirefoxResolver {
	return &FirefoxResolver{rootTable{
		treeRoot: "root________",
		roots: []RootFolder{
			{ID: FirefoxMenu, Title: "Bookmarks Menu", Aliases: []string{"menu"}},
			{ID: FirefoxToolbar, Title: "Bookmarks Toolbar", Aliases: []string{"bookmarks bar", "favorites bar"}},
			{ID: FirefoxUnfiled, Title: "Other Bookmarks", Aliases: []string{"other", "unfiled bookmarks"}},
			{ID: FirefoxMobile, Title: "Mobile Bookmarks", Aliases: []string{"mobile"}},
		},
		fallback: []string{FirefoxMenu, FirefoxToolbar, FirefoxMobile, FirefoxUnfiled},
	}}
}

func (*FirefoxResolver) Platform() string { return PlatformFirefox }

// RewriteURL maps chrome:// pages to their about: equivalents, which is the
// only form Firefox accepts for internal pages.
func (*FirefoxResolver) RewriteURL(url string) string {
	if rest, ok := strings.CutPrefix(url, "chrome://"); ok {
		return "about:" + rest
	}
	return url
}

// ResolverByName returns the resolver for an explicit platform name.
func ResolverByName(name string) (RootFolderResolver, error) {
	switch strings.ToLower(name) {
	case PlatformChrome:
		return NewChromeResolver(), nil
	case PlatformFirefox:
		return NewFirefoxResolver(), nil
	default:
		return nil, fmt.Errorf("unknown browser platform %q", name)
	}
}

// DetectResolver picks a resolver from the root ids a store already exposes.
// Gecko's GUID-shaped ids are unambiguous; anything else, including an empty
// store, is treated as Chromium.
func DetectResolver(rootIDs []string) RootFolderResolver {
	ff := NewFirefoxResolver()
	for _, id := range rootIDs {
		if id == ff.TreeRootID() {
			return ff
		}
		for _, r := range ff.roots {
			if r.ID == id {
				return ff
			}
		}
	}
	return NewChromeResolver()
}
