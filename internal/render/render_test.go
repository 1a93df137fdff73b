package render

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/westgate-cre/outreach-backend/internal/model"
)

func intPtr(n int) *int { return &n }

func fullProperty() model.Property {
	return model.Property{
		ID:               "prop-1",
		Address:          "412 Harbor Blvd",
		City:             "Long Beach",
		StateCode:        "CA",
		PropertyType:     "Industrial",
		BuildingSizeSqft: intPtr(48500),
		YearBuilt:        intPtr(1987),
		YearAcquired:     intPtr(2012),
	}
}

func TestRenderSubstitutesAllTags(t *testing.T) {
	contact := model.Contact{Name: "Dana Whitfield", Email: "dana@example.com"}
	property := fullProperty()

	template := "Hi {{first_name}}, about {{property_address}}: the {{building_sf}} {{property_type}} building in {{city}}, {{state}} built {{year_built}}."
	got := Render(template, contact, property)

	want := "Hi Dana, about 412 Harbor Blvd, Long Beach, CA: the 48,500 SF industrial building in Long Beach, CA built 1987."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderFallbacks(t *testing.T) {
	got := Render(
		"Hi {{first_name}}, about {{property_address}}, a {{property_type}} asset.",
		model.Contact{},
		model.Property{},
	)
	want := "Hi there, about the property, a commercial asset."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderIsCaseInsensitive(t *testing.T) {
	contact := model.Contact{Name: "Dana Whitfield"}
	got := Render("{{FirstName}} / {{FIRST_NAME}} / {{first_name}}", contact, model.Property{})
	if got != "Dana / Dana / Dana" {
		t.Errorf("got %q", got)
	}
}

func TestRenderYearsHeld(t *testing.T) {
	property := fullProperty()
	years := time.Now().Year() - *property.YearAcquired

	got := Render("You have owned it for {{years_held}} years.", model.Contact{}, property)
	want := "You have owned it for " + strconv.Itoa(years) + " years."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderYearsHeldPhraseStripped(t *testing.T) {
	cases := []struct {
		template string
		want     string
	}{
		{"You have owned it for {{years_held}} years.", "You have owned it ."},
		{"After {{years_held}} years of ownership, is it time?", "After , is it time?"},
		{"Held: {{years_held}}", "Held: "},
	}
	for _, tc := range cases {
		got := Render(tc.template, model.Contact{}, model.Property{})
		if got != tc.want {
			t.Errorf("Render(%q) = %q, want %q", tc.template, got, tc.want)
		}
	}
}

func TestRenderLeavesNoTagSyntax(t *testing.T) {
	template := "{{first_name}} {{property_address}} {{address}} {{property_type}} {{building_sf}} {{size}} {{years_held}} {{year_built}} {{city}} {{state}}"
	got := Render(template, model.Contact{}, model.Property{})
	if strings.Contains(got, "{{") || strings.Contains(got, "}}") {
		t.Errorf("tag syntax survived: %q", got)
	}
}

func TestRenderIdempotent(t *testing.T) {
	contact := model.Contact{Name: "Marcus Okafor"}
	property := fullProperty()
	template := "Hi {{first_name}}, regarding {{address}} ({{building_sf}})."

	once := Render(template, contact, property)
	twice := Render(once, contact, property)
	if once != twice {
		t.Errorf("not idempotent: %q vs %q", once, twice)
	}
}

func TestRenderEmptyTemplate(t *testing.T) {
	if got := Render("", model.Contact{Name: "Dana"}, fullProperty()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		950:     "950",
		1000:    "1,000",
		48500:   "48,500",
		1234567: "1,234,567",
	}
	for n, want := range cases {
		if got := groupThousands(n); got != want {
			t.Errorf("groupThousands(%d) = %q, want %q", n, got, want)
		}
	}
}
