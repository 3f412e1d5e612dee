package toolsets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harun/toolhub/pkg/formatter"
	"github.com/harun/toolhub/pkg/toolregistry"
)

const temporaryPassword = "TempPass123!"

// TechSupportService exposes account and system support tools. Both return formatted responses.
type TechSupportService struct {
	*toolregistry.Toolset
	logger zerolog.Logger
}

func NewTechSupportService(logger zerolog.Logger) (*TechSupportService, error) {
	s := &TechSupportService{
		Toolset: toolregistry.NewToolset(toolregistry.DomainTechSupport, logger),
		logger:  logger.With().Str("toolset", "tech_support").Logger(),
	}

	err := registerAll(s.Toolset, []toolregistry.ToolDefinition{
		{
			Name:        "reset_password",
			Description: "Reset password for a user account. Parameters: username (string)",
			Parameters: []toolregistry.ToolParameter{
				{Name: "username", Type: "string", Description: "Account to reset", Required: true},
			},
			Handler: s.resetPassword,
		},
		{
			Name:        "check_system_status",
			Description: "Check the operational status of a system. Parameters: system_name (string)",
			Parameters: []toolregistry.ToolParameter{
				{Name: "system_name", Type: "string", Description: "System to check", Required: true},
			},
			Handler: s.checkSystemStatus,
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("tools", s.ToolCount()).Msg("Registered tech support tools")
	return s, nil
}

func (s *TechSupportService) Kind() string { return "TechSupportService" }

func (s *TechSupportService) resetPassword(_ context.Context, params map[string]interface{}) (interface{}, error) {
	username, err := toolregistry.StringParam(params, "username")
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", username).Msg("Resetting password")

	return formatter.FormatStandardResponse(
		"Password Reset Result",
		formatter.Content{
			{Key: "username", Value: username},
			{Key: "status", Value: "success"},
			{Key: "temporary_password", Value: temporaryPassword},
			{Key: "expires_in", Value: "24 hours"},
		},
		fmt.Sprintf("Successfully reset password for user '%s'", username),
		"Please inform the user to change their temporary password on first login.",
	), nil
}

func (s *TechSupportService) checkSystemStatus(_ context.Context, params map[string]interface{}) (interface{}, error) {
	system, err := toolregistry.StringParam(params, "system_name")
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("system", system).Msg("Checking system status")

	return formatter.FormatStandardResponse(
		"System Status Check",
		formatter.FromMap(map[string]interface{}{
			"system":        system,
			"status":        "operational",
			"uptime":        "99.9%",
			"last_incident": "None in the last 30 days",
		}),
		fmt.Sprintf("System '%s' is operational with excellent uptime", system),
		"",
	), nil
}
