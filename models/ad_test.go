package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedAssetExtension(t *testing.T) {
	cases := []struct {
		path    string
		allowed bool
	}{
		{"banner.png", true},
		{"banner.PNG", true},
		{"clip.mp4", true},
		{"photo.jpeg", true},
		{"photo.jpg", true},
		{"anim.gif", true},
		{"modern.webp", true},
		{"document.pdf", false},
		{"script.sh", false},
		{"noextension", false},
		{"", false},
		{"nested/dir/asset.png", true},
	}

	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			assert.Equal(t, c.allowed, AllowedAssetExtension(c.path))
		})
	}
}

func TestAdBeforeSave(t *testing.T) {
	valid := func() *Ad {
		return &Ad{
			AdAssetPath: "creative.png",
			AppLink:     "https://example.com/install",
		}
	}

	t.Run("ValidAd", func(t *testing.T) {
		require.NoError(t, valid().BeforeSave(nil))
	})

	t.Run("EmptyAssetPath", func(t *testing.T) {
		ad := valid()
		ad.AdAssetPath = "   "
		assert.ErrorIs(t, ad.BeforeSave(nil), ErrAssetPathEmpty)
	})

	t.Run("DisallowedExtension", func(t *testing.T) {
		ad := valid()
		ad.AdAssetPath = "creative.exe"
		assert.ErrorIs(t, ad.BeforeSave(nil), ErrAssetExtNotAllowed)
	})

	t.Run("EmptyAppLink", func(t *testing.T) {
		ad := valid()
		ad.AppLink = ""
		assert.ErrorIs(t, ad.BeforeSave(nil), ErrAppLinkEmpty)
	})

	t.Run("AppLinkWithoutScheme", func(t *testing.T) {
		ad := valid()
		ad.AppLink = "example.com/install"
		assert.ErrorIs(t, ad.BeforeSave(nil), ErrAppLinkNotURL)
	})

	t.Run("AppLinkWithoutHost", func(t *testing.T) {
		ad := valid()
		ad.AppLink = "https://"
		assert.ErrorIs(t, ad.BeforeSave(nil), ErrAppLinkNotURL)
	})
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "ads", Ad{}.TableName())
	assert.Equal(t, "registered_apk_keys", RegisteredApp{}.TableName())
	assert.Equal(t, "running_ads", RunningAd{}.TableName())
}
