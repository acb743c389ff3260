package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/weighbill/internal/api"
	"github.com/mmynk/weighbill/internal/api/apiconnect"
	"github.com/mmynk/weighbill/internal/settings"
)

// Ensure SettingsService implements the handler interface
var _ apiconnect.SettingsServiceHandler = (*SettingsService)(nil)

// SettingsService implements the Connect SettingsService.
type SettingsService struct {
	settings *settings.Service
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(prefs *settings.Service) *SettingsService {
	return &SettingsService{settings: prefs}
}

func (s *SettingsService) GetSettings(ctx context.Context, _ *connect.Request[api.GetSettingsRequest]) (*connect.Response[api.SettingsResponse], error) {
	prefs, err := s.settings.Get(ctx)
	if err != nil {
		return nil, toConnectError("GetSettings", err)
	}
	return connect.NewResponse(&api.SettingsResponse{Settings: prefs}), nil
}

func (s *SettingsService) UpdateSettings(ctx context.Context, req *connect.Request[api.UpdateSettingsRequest]) (*connect.Response[api.SettingsResponse], error) {
	prefs, err := s.settings.Update(ctx, req.Msg.Settings)
	if err != nil {
		return nil, toConnectError("UpdateSettings", err)
	}
	return connect.NewResponse(&api.SettingsResponse{Settings: prefs}), nil
}

func (s *SettingsService) GetTheme(ctx context.Context, _ *connect.Request[api.GetThemeRequest]) (*connect.Response[api.ThemeResponse], error) {
	theme, err := s.settings.Theme(ctx)
	if err != nil {
		return nil, toConnectError("GetTheme", err)
	}
	return connect.NewResponse(&api.ThemeResponse{Theme: theme}), nil
}

func (s *SettingsService) ToggleTheme(ctx context.Context, _ *connect.Request[api.ToggleThemeRequest]) (*connect.Response[api.ThemeResponse], error) {
	theme, err := s.settings.ToggleTheme(ctx)
	if err != nil {
		return nil, toConnectError("ToggleTheme", err)
	}
	return connect.NewResponse(&api.ThemeResponse{Theme: theme}), nil
}
