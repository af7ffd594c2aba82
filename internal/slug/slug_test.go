package slug_test

import (
	"testing"

	"storefront/internal/slug"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation is trimmed", "Red Shoe!!", "red-shoe"},
		{"runs collapse", "Men's   T-Shirt -- XL", "men-s-t-shirt-xl"},
		{"leading separators", "  --Summer Sale", "summer-sale"},
		{"digits are kept", "iPhone 15 Pro", "iphone-15-pro"},
		{"accents are folded", "Crème Brûlée", "creme-brulee"},
		{"already a slug", "red-shoe", "red-shoe"},
		{"nothing usable", "!!!", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slug.Make(tt.in)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.True(t, slug.Valid(got))
			}
		})
	}
}

func TestMakeIsIdempotent(t *testing.T) {
	for _, in := range []string{"Red Shoe!!", "Ünïcödé  Stuff", "a_b_c"} {
		once := slug.Make(in)
		assert.Equal(t, once, slug.Make(once))
	}
}

func TestValid(t *testing.T) {
	assert.True(t, slug.Valid("red-shoe"))
	assert.False(t, slug.Valid("Red-Shoe"))
	assert.False(t, slug.Valid("red--shoe"))
	assert.False(t, slug.Valid("-red"))
	assert.False(t, slug.Valid(""))
}
