package settings

import "github.com/JaimeStill/agent-chat/pkg/openapi"

type spec struct {
	Get  *openapi.Operation
	Save *openapi.Operation
}

// Spec documents the settings endpoints.
var Spec = spec{
	Get: &openapi.Operation{
		Summary:     "Get settings",
		Description: "Settings with secret presence flags; secret values are never returned",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Settings snapshot", "SettingsSnapshot"),
		},
	},
	Save: &openapi.Operation{
		Summary:     "Save settings",
		RequestBody: openapi.RequestBodyJSON("SaveSettingsRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Saved settings snapshot", "SettingsSnapshot"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
}
