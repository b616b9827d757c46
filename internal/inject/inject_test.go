package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	heroPlaceholder    = "https://images.unsplash.com/photo-1414235077428-338989a2e8c0?w=1200&h=800&fit=crop"
	sectionPlaceholder = "https://images.unsplash.com/photo-1497366216548-37526070297c?w=1200&h=800&fit=crop"
)

func page(urls ...string) string {
	doc := "<!DOCTYPE html><html><head><style>.hero{background:url(" + urls[0] + ") center/cover;}</style></head><body>"
	for _, u := range urls[1:] {
		doc += `<img src="` + u + `" alt="x">`
	}
	return doc + "</body></html>"
}

func TestInjectIdentityWithoutAssets(t *testing.T) {
	doc := page(heroPlaceholder, sectionPlaceholder)
	assert.Equal(t, doc, Inject(doc, nil, ""))
	assert.Equal(t, doc, Inject(doc, []Asset{}, ""))
}

func TestInjectPrimaryAndSecondary(t *testing.T) {
	doc := page(heroPlaceholder, sectionPlaceholder, heroPlaceholder)
	got := Inject(doc, []Asset{
		{Role: RolePrimary, URL: "https://cdn.test/hero.png"},
		{Role: RoleSecondary, URL: "https://cdn.test/feature.png"},
	}, DefaultPlaceholderPrefix)

	want := page("https://cdn.test/hero.png", sectionPlaceholder, "https://cdn.test/feature.png")
	assert.Equal(t, want, got)
	assert.Equal(t, 1, Count(got, ""))
}

func TestInjectSinglePlaceholderDropsSecondary(t *testing.T) {
	doc := page(heroPlaceholder)
	got := Inject(doc, []Asset{
		{Role: RoleSecondary, URL: "https://cdn.test/feature.png"},
		{Role: RolePrimary, URL: "https://cdn.test/hero.png"},
	}, "")
	assert.Equal(t, page("https://cdn.test/hero.png"), got)
}

func TestInjectSecondaryWithoutPrimaryKeepsFirstSlot(t *testing.T) {
	one := page(heroPlaceholder)
	assets := []Asset{{Role: RoleSecondary, URL: "https://cdn.test/feature.png"}}
	assert.Equal(t, one, Inject(one, assets, ""))

	two := page(heroPlaceholder, sectionPlaceholder)
	assert.Equal(t, page(heroPlaceholder, "https://cdn.test/feature.png"), Inject(two, assets, ""))
}

func TestInjectNoPlaceholders(t *testing.T) {
	doc := "<!DOCTYPE html><html><body><img src=\"https://example.com/a.png\"></body></html>"
	got := Inject(doc, []Asset{{Role: RolePrimary, URL: "https://cdn.test/hero.png"}}, "")
	assert.Equal(t, doc, got)
}

func TestInjectSecondCallIsNoOpOnceConsumed(t *testing.T) {
	assets := []Asset{
		{Role: RolePrimary, URL: "https://cdn.test/hero.png"},
		{Role: RoleSecondary, URL: "https://cdn.test/feature.png"},
	}
	once := Inject(page(heroPlaceholder, sectionPlaceholder), assets, "")
	assert.Equal(t, 0, Count(once, ""))
	assert.Equal(t, once, Inject(once, assets, ""))
}

func TestInjectIgnoresBlankURLs(t *testing.T) {
	doc := page(heroPlaceholder)
	assert.Equal(t, doc, Inject(doc, []Asset{{Role: RolePrimary, URL: "  "}}, ""))
}

func TestInjectPlaceholderAtEndOfDocument(t *testing.T) {
	doc := "see " + heroPlaceholder
	got := Inject(doc, []Asset{{Role: RolePrimary, URL: "https://cdn.test/hero.png"}}, "")
	assert.Equal(t, "see https://cdn.test/hero.png", got)
}
