package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseConversions(t *testing.T) {
	// Test: identifier forms are derived from the same word split
	tests := []struct {
		in     string
		pascal string
		camel  string
		snake  string
		kebab  string
	}{
		{"note", "Note", "note", "note", "note"},
		{"order item", "OrderItem", "orderItem", "order_item", "order-item"},
		{"createdAt", "CreatedAt", "createdAt", "created_at", "created-at"},
		{"created_at", "CreatedAt", "createdAt", "created_at", "created-at"},
		{"HTTPServer", "HttpServer", "httpServer", "http_server", "http-server"},
		{"Użytkownik", "Uzytkownik", "uzytkownik", "uzytkownik", "uzytkownik"},
		{"Zamówienie-Pozycja", "ZamowieniePozycja", "zamowieniePozycja", "zamowienie_pozycja", "zamowienie-pozycja"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.pascal, Pascal(tt.in))
			assert.Equal(t, tt.camel, Camel(tt.in))
			assert.Equal(t, tt.snake, Snake(tt.in))
			assert.Equal(t, tt.kebab, Kebab(tt.in))
		})
	}
}

func TestConversionsAreIdempotent(t *testing.T) {
	// Test: applying a conversion twice gives the same result
	for _, in := range []string{"Order Item", "user_profile", "BlogPost", "książka"} {
		assert.Equal(t, Pascal(in), Pascal(Pascal(in)))
		assert.Equal(t, Snake(in), Snake(Snake(in)))
	}
}

func TestFold(t *testing.T) {
	// Test: Polish and German letters fold to ASCII
	assert.Equal(t, "zolw", Fold("żółw"))
	assert.Equal(t, "Lodz", Fold("Łódź"))
	assert.Equal(t, "strasse", Fold("straße"))
}

func TestPluralSingular(t *testing.T) {
	// Test: regular and irregular English inflection
	tests := []struct {
		singular string
		plural   string
	}{
		{"note", "notes"},
		{"category", "categories"},
		{"box", "boxes"},
		{"address", "addresses"},
		{"person", "people"},
		{"key", "keys"},
		{"order_item", "order_items"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.plural, Plural(tt.singular), "plural of %s", tt.singular)
		assert.Equal(t, tt.singular, Singular(tt.plural), "singular of %s", tt.plural)
	}

	assert.Equal(t, "status", Singular("status"))
	assert.Equal(t, "class", Singular("class"))
}

func TestProjectName(t *testing.T) {
	// Test: project names come from the subject of the first sentence
	assert.Equal(t, "note_api", ProjectName("Simple note API with title and body"))
	assert.Equal(t, "blog_platform_api", ProjectName("Create a blog platform. Users write posts."))
	assert.Equal(t, "generated_api", ProjectName("API for the"))
	assert.Equal(t, "sklep_internetowy_api", ProjectName("Sklep internetowy z produktami"))
}
