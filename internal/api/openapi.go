package api

import (
	"net/http"

	"github.com/JaimeStill/agent-chat/pkg/openapi"
	"github.com/JaimeStill/agent-chat/pkg/routes"
)

// SpecPath serves the generated API description without authentication.
const SpecPath = BasePath + "/openapi.json"

func str(desc string) *openapi.Schema {
	return &openapi.Schema{Type: "string", Description: desc}
}

func integer(desc string) *openapi.Schema {
	return &openapi.Schema{Type: "integer", Description: desc}
}

func stamp() *openapi.Schema {
	return &openapi.Schema{Type: "string", Format: "date-time"}
}

func strList() *openapi.Schema {
	return &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string"}}
}

func object(required []string, props map[string]*openapi.Schema) *openapi.Schema {
	return &openapi.Schema{Type: "object", Properties: props, Required: required}
}

func errorResponse(desc string) *openapi.Response {
	return openapi.ResponseJSON(desc, "Error")
}

func components() *openapi.Components {
	agentSnapshot := object(nil, map[string]*openapi.Schema{
		"name":        str(""),
		"description": str(""),
		"avatar_ref":  str(""),
		"tools":       strList(),
		"webhook_url": str(""),
	})

	return &openapi.Components{
		SecuritySchemes: map[string]*openapi.SecurityScheme{
			"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
		},
		Responses: map[string]*openapi.Response{
			"BadRequest":  errorResponse("Invalid request"),
			"Forbidden":   errorResponse("Caller may not perform this action"),
			"NotFound":    errorResponse("Resource not found"),
			"Conflict":    errorResponse("A send for this agent is already in progress"),
			"TooLarge":    errorResponse("Upload exceeds the size limit"),
			"Unavailable": errorResponse("Conversation could not be persisted"),
		},
		Schemas: map[string]*openapi.Schema{
			"Error": object([]string{"error"}, map[string]*openapi.Schema{"error": str("")}),
			"AuthUser": object(nil, map[string]*openapi.Schema{
				"id":         str(""),
				"name":       str(""),
				"email":      str(""),
				"role":       {Type: "string", Enum: []string{"user", "admin"}},
				"is_active":  {Type: "boolean"},
				"avatar_ref": str(""),
				"bio":        str(""),
				"agents":     openapi.ArrayOf("AgentProfile"),
				"created_at": stamp(),
				"updated_at": stamp(),
			}),
			"AgentProfile": object(nil, map[string]*openapi.Schema{
				"id":          str(""),
				"name":        str(""),
				"description": str(""),
				"avatar_ref":  str(""),
				"tools":       strList(),
				"webhook_url": str("Overrides the user's global webhook"),
				"created_at":  stamp(),
				"updated_at":  stamp(),
			}),
			"SaveUserCommand": object(nil, map[string]*openapi.Schema{
				"name":       str(""),
				"email":      str(""),
				"avatar_ref": str(""),
				"bio":        str(""),
			}),
			"SaveAgentCommand": object([]string{"name"}, map[string]*openapi.Schema{
				"name":        str(""),
				"description": str(""),
				"avatar_ref":  str(""),
				"tools":       strList(),
				"webhook_url": str(""),
			}),
			"ChatAttachment": object(nil, map[string]*openapi.Schema{
				"id":               str(""),
				"name":             str(""),
				"size":             integer("Bytes"),
				"mime_type":        str(""),
				"kind":             {Type: "string", Enum: []string{"file", "audio"}},
				"ref":              str("Blob storage key"),
				"duration_seconds": {Type: "number"},
				"waveform":         {Type: "array", Items: &openapi.Schema{Type: "number"}},
			}),
			"ChatMessage": object(nil, map[string]*openapi.Schema{
				"id":          str(""),
				"author":      {Type: "string", Enum: []string{"user", "agent"}},
				"content":     str(""),
				"timestamp":   stamp(),
				"attachments": openapi.ArrayOf("ChatAttachment"),
			}),
			"Conversation": object(nil, map[string]*openapi.Schema{
				"conversation_id": str(""),
				"agent_id":        str(""),
				"messages":        openapi.ArrayOf("ChatMessage"),
				"preview":         str("Latest message, at most 140 characters"),
				"last_updated_at": stamp(),
				"metadata":        agentSnapshot,
				"created_at":      stamp(),
			}),
			"ConversationPage": object(nil, map[string]*openapi.Schema{
				"data":        openapi.ArrayOf("Conversation"),
				"total":       integer(""),
				"page":        integer(""),
				"page_size":   integer(""),
				"total_pages": integer(""),
			}),
			"SendRequest": object(nil, map[string]*openapi.Schema{"text": str("")}),
			"SendResult": object(nil, map[string]*openapi.Schema{
				"conversation":   openapi.SchemaRef("Conversation"),
				"message":        openapi.SchemaRef("ChatMessage"),
				"reply":          openapi.SchemaRef("ChatMessage"),
				"dispatch_error": str("Set when the reply renders a webhook failure"),
			}),
			"Report": object(nil, map[string]*openapi.Schema{
				"user_id":  str(""),
				"synced":   integer("Records whose agent metadata was refreshed"),
				"orphaned": integer("Records deleted because their agent is gone"),
				"repaired": integer("Unsaved sessions written back"),
				"failed":   integer(""),
			}),
			"SettingsSnapshot": object(nil, map[string]*openapi.Schema{
				"webhook_url":    str(""),
				"auth_type":      {Type: "string", Enum: []string{"none", "apiKey", "basic", "oauth"}},
				"api_key_header": str(""),
				"display_name":   str(""),
				"prefs":          {Type: "object"},
				"updated_at":     stamp(),
				"has_secrets": object(nil, map[string]*openapi.Schema{
					"api_key":     {Type: "boolean"},
					"basic_auth":  {Type: "boolean"},
					"oauth_token": {Type: "boolean"},
				}),
			}),
			"SaveSettingsRequest": object([]string{"settings"}, map[string]*openapi.Schema{
				"settings": object(nil, map[string]*openapi.Schema{
					"webhook_url":    str(""),
					"auth_type":      str(""),
					"api_key_header": str(""),
					"display_name":   str(""),
					"prefs":          {Type: "object"},
				}),
				"secrets": object(nil, map[string]*openapi.Schema{
					"api_key":             str(""),
					"basic_auth_username": str(""),
					"basic_auth_password": str(""),
					"oauth_token":         str(""),
				}),
				"clear_secrets": {Type: "boolean"},
			}),
		},
	}
}

// specHandler renders the document once; routes do not change after startup.
func specHandler(r routes.System, runtime *Runtime) (http.HandlerFunc, error) {
	spec := r.Spec(runtime.Config.OpenAPI.Info(), components())
	spec.Security = []map[string][]string{{"bearer": {}}}

	body, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}, nil
}
