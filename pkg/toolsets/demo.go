package toolsets

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/harun/toolhub/pkg/toolregistry"
)

// DemoService exposes sample arithmetic and user lookup tools
type DemoService struct {
	*toolregistry.Toolset
	logger zerolog.Logger
}

// UserInfo is the profile returned by get_user_info
type UserInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	CPF    string `json:"cpf"`
	Email  string `json:"email"`
}

func NewDemoService(logger zerolog.Logger) (*DemoService, error) {
	s := &DemoService{
		Toolset: toolregistry.NewToolset(toolregistry.DomainDemo, logger),
		logger:  logger.With().Str("toolset", "demo").Logger(),
	}

	err := registerAll(s.Toolset, []toolregistry.ToolDefinition{
		{
			Name:        "add_two_numbers",
			Description: "Adds two integer numbers together. Parameters: a (integer), b (integer)",
			Parameters: []toolregistry.ToolParameter{
				{Name: "a", Type: "integer", Description: "First addend", Required: true},
				{Name: "b", Type: "integer", Description: "Second addend", Required: true},
			},
			Handler: s.addTwoNumbers,
		},
		{
			Name: "get_user_info",
			Description: "Retrieves user information by user_id. Returns user profile including id, name, and status. " +
				"This tool accesses sensitive user data. Parameters: user_id (integer)",
			Parameters: []toolregistry.ToolParameter{
				{Name: "user_id", Type: "integer", Description: "User identifier", Required: true},
			},
			Handler: s.getUserInfo,
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("tools", s.ToolCount()).Msg("Registered demo tools")
	return s, nil
}

func (s *DemoService) Kind() string { return "DemoService" }

func (s *DemoService) addTwoNumbers(_ context.Context, params map[string]interface{}) (interface{}, error) {
	a, err := toolregistry.IntParam(params, "a")
	if err != nil {
		return nil, err
	}
	b, err := toolregistry.IntParam(params, "b")
	if err != nil {
		return nil, err
	}

	if (b > 0 && a > math.MaxInt-b) || (b < 0 && a < math.MinInt-b) {
		return nil, fmt.Errorf("%w: sum of %d and %d overflows", toolregistry.ErrInvalidParameters, a, b)
	}

	s.logger.Debug().Int("a", a).Int("b", b).Int("sum", a+b).Msg("Adding numbers")
	return a + b, nil
}

func (s *DemoService) getUserInfo(_ context.Context, params map[string]interface{}) (interface{}, error) {
	userID, err := toolregistry.IntParam(params, "user_id")
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("user_id", userID).Msg("Retrieving user info")
	return UserInfo{
		ID:     userID,
		Name:   fmt.Sprintf("User %d", userID),
		Status: "active",
		CPF:    fmt.Sprintf("000.000.000-0%d", userID),
		Email:  fmt.Sprintf("user%d@bb.com.br", userID),
	}, nil
}
