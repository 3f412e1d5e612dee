package toolsets

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harun/toolhub/pkg/dateutil"
	"github.com/harun/toolhub/pkg/toolregistry"
)

// GeneralService exposes date and text utilities
type GeneralService struct {
	*toolregistry.Toolset
	dates  *dateutil.Formatter
	logger zerolog.Logger
}

func NewGeneralService(zone string, clock dateutil.Clock, logger zerolog.Logger) (*GeneralService, error) {
	dates, err := dateutil.New(zone, clock)
	if err != nil {
		return nil, err
	}

	s := &GeneralService{
		Toolset: toolregistry.NewToolset(toolregistry.DomainGeneral, logger),
		dates:   dates,
		logger:  logger.With().Str("toolset", "general").Logger(),
	}

	err = registerAll(s.Toolset, []toolregistry.ToolDefinition{
		{
			Name:        "get_current_date",
			Description: "Get the current date in formatted strings. No parameters required.",
			Handler:     s.getCurrentDate,
		},
		{
			Name: "format_text",
			Description: "Format text in various styles (uppercase, lowercase, title). " +
				"Parameters: text (string), format (string - uppercase, lowercase, or title)",
			Parameters: []toolregistry.ToolParameter{
				{Name: "text", Type: "string", Description: "Text to format", Required: true},
				{Name: "format", Type: "string", Description: "uppercase, lowercase, or title", Required: true},
			},
			Handler: s.formatText,
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("tools", s.ToolCount()).Msg("Registered general tools")
	return s, nil
}

func (s *GeneralService) Kind() string { return "GeneralService" }

func (s *GeneralService) getCurrentDate(_ context.Context, _ map[string]interface{}) (interface{}, error) {
	s.logger.Debug().Msg("Getting current date")
	return s.dates.Now(), nil
}

func (s *GeneralService) formatText(_ context.Context, params map[string]interface{}) (interface{}, error) {
	text, err := toolregistry.StringParam(params, "text")
	if err != nil {
		return nil, err
	}
	format, err := toolregistry.StringParam(params, "format")
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("format", format).Msg("Formatting text")
	return FormatText(text, format), nil
}

// FormatText applies format to text. Unknown formats return text unchanged.
func FormatText(text, format string) string {
	switch strings.ToLower(format) {
	case "uppercase":
		return strings.ToUpper(text)
	case "lowercase":
		return strings.ToLower(text)
	case "title":
		return toTitleCase(text)
	default:
		return text
	}
}

// toTitleCase capitalizes each word and collapses runs of whitespace to single spaces
func toTitleCase(text string) string {
	words := strings.Fields(text)
	caser := cases.Title(language.Und)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}
