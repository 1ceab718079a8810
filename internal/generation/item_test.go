package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ecomlisting-ai/internal/common/errors"
)

func TestKey_Derivation(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{
			name: "both ids present and distinct",
			item: Item{ListingID: "123", ProductID: "456", Title: "ignored"},
			want: "123_456",
		},
		{
			name: "ids equal falls back to slug",
			item: Item{ListingID: "7", ProductID: "7", Title: "Wireless Mouse!!"},
			want: "wireless_mouse",
		},
		{
			name: "missing listing id falls back to slug",
			item: Item{ProductID: "456", Title: "Wireless Mouse!!"},
			want: "wireless_mouse",
		},
		{
			name: "no ids",
			item: Item{Title: "Wireless Mouse!!"},
			want: "wireless_mouse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Key())
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Wireless Mouse!!", "wireless_mouse"},
		{"  Deluxe -- Chair  ", "deluxe_chair"},
		{"ALL CAPS 2000", "all_caps_2000"},
		{"___already___", "already"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestValidate(t *testing.T) {
	valid := Item{
		Title:       "Mouse",
		Description: "A mouse",
		Images:      []ImageSource{{URL: "http://img/1.png"}},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(Item) Item
	}{
		{"empty title", func(it Item) Item { it.Title = "  "; return it }},
		{"empty description", func(it Item) Item { it.Description = ""; return it }},
		{"no images", func(it Item) Item { it.Images = nil; return it }},
		{"punctuation-only title yields empty key", func(it Item) Item { it.Title = "!!!"; return it }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeInputInvalid, apperrors.CodeOf(err))
		})
	}
}

func TestImageSource_Ref(t *testing.T) {
	assert.Equal(t, "http://x/y.png", ImageSource{URL: "http://x/y.png"}.Ref())
	assert.Equal(t, "/tmp/y.png", ImageSource{Path: "/tmp/y.png"}.Ref())
	assert.Equal(t, "inline:4", ImageSource{Data: []byte("abcd")}.Ref())
}
