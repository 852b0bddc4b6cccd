package ops

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hpungsan/langroutes/internal/country"
	"github.com/hpungsan/langroutes/internal/errors"
)

// DetailInput contains parameters for the Detail operation.
type DetailInput struct {
	Language string
	Name     string // exact, case-sensitive country name
}

// DetailOutput contains the result of the Detail operation.
type DetailOutput struct {
	Language   string          `json:"language"`
	SnapshotID string          `json:"snapshot_id"`
	Country    country.Country `json:"country"`
	Markdown   string          `json:"markdown"`
}

// Detail looks up one country by name within a language's table.
func Detail(ctx context.Context, src Source, input DetailInput) (*DetailOutput, error) {
	if input.Name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}

	loaded, err := Load(ctx, src, LoadInput{Language: input.Language})
	if err != nil {
		return nil, err
	}
	return Describe(loaded, input.Name)
}

// Describe looks up name in an already loaded table.
func Describe(loaded *LoadOutput, name string) (*DetailOutput, error) {
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}

	c, err := loaded.Table.FindByName(name)
	if err != nil {
		return nil, err
	}

	return &DetailOutput{
		Language:   loaded.Language,
		SnapshotID: loaded.Table.ID(),
		Country:    c,
		Markdown:   DetailMarkdown(c),
	}, nil
}

var numbers = message.NewPrinter(language.English)

// FormatPopulation renders n with thousands separators.
func FormatPopulation(n int64) string {
	return numbers.Sprintf("%d", n)
}

// FormatArea renders an area in km² with thousands separators.
// Whole numbers drop the fraction.
func FormatArea(a float64) string {
	if a == math.Trunc(a) && a < math.MaxInt64 {
		return numbers.Sprintf("%d", int64(a)) + " km²"
	}
	return numbers.Sprintf("%.2f", a) + " km²"
}

// DetailMarkdown renders the country card shown by the detail views.
func DetailMarkdown(c country.Country) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(c.Name))
	if c.FlagURL != "" {
		fmt.Fprintf(&b, "![Flag of %s](%s)\n\n", escapeMarkdown(c.Name), c.FlagURL)
	}

	field := func(label, value string) {
		fmt.Fprintf(&b, "**%s:** %s\n\n", label, escapeMarkdown(value))
	}
	field("Capital", c.Capital)
	field("Region", c.Region)
	field("Languages", c.Languages)
	field("Currency", c.Currency)
	field("Start of week", c.StartOfWeekDisplay())
	field("Borders", c.BordersDisplay())
	field("Area", FormatArea(c.Area))
	field("Population", FormatPopulation(c.Population))

	if c.MapURL != "" {
		fmt.Fprintf(&b, "[View on Google Maps](%s)\n", c.MapURL)
	}

	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
	"<", `\<`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
