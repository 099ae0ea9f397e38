package sources

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

var (
	mdConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// Markdown renders an answer container's HTML as markdown, sanitizing the
// captured markup first. Returns the fallback plain text when conversion
// fails or produces empty output.
func Markdown(rawHTML, fallback string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return fallback
	}
	result, err := mdConverter.ConvertString(sanitizer.Sanitize(rawHTML))
	if err != nil || strings.TrimSpace(result) == "" {
		return fallback
	}
	return strings.TrimSpace(result)
}
