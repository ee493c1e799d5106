package chat

import "github.com/JaimeStill/agent-chat/pkg/openapi"

type spec struct {
	List      *openapi.Operation
	Load      *openapi.Operation
	State     *openapi.Operation
	Send      *openapi.Operation
	Reconcile *openapi.Operation
}

var agentParam = openapi.PathParam("id", "Agent id")

// Spec documents the chat endpoints.
var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List conversations",
		Description: "Stored conversations, most recently updated first",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Paginated conversations", "ConversationPage"),
		},
	},
	Load: &openapi.Operation{
		Summary:     "Load conversation",
		Description: "Returns the stored conversation, creating it with a greeting when none exists",
		Parameters:  []*openapi.Parameter{agentParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Conversation", "Conversation"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	State: &openapi.Operation{
		Summary:    "Session state",
		Parameters: []*openapi.Parameter{agentParam},
		Responses: map[int]*openapi.Response{
			200: {Description: "Current session state", Content: map[string]*openapi.MediaType{
				"application/json": {Schema: &openapi.Schema{
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"state": {Type: "string", Enum: []string{"absent", "loaded", "pending_send", "settled"}},
					},
				}},
			}},
		},
	},
	Send: &openapi.Operation{
		Summary:     "Send message",
		Description: "Relays one turn to the agent's webhook. Webhook failures are recorded as an error reply and still return 200.",
		Parameters:  []*openapi.Parameter{agentParam},
		RequestBody: &openapi.RequestBody{Required: true, Content: map[string]*openapi.MediaType{
			"application/json": {Schema: openapi.SchemaRef("SendRequest")},
			"multipart/form-data": {Schema: &openapi.Schema{
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"text":              {Type: "string"},
					"files":             {Type: "array", Items: &openapi.Schema{Type: "string", Format: "binary"}},
					"audio":             {Type: "string", Format: "binary"},
					"audio_duration_ms": {Type: "integer"},
					"waveform":          {Type: "string", Description: "JSON array of amplitudes"},
				},
			}},
		}},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Turn recorded", "SendResult"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
			413: openapi.ResponseRef("TooLarge"),
			503: openapi.ResponseRef("Unavailable"),
		},
	},
	Reconcile: &openapi.Operation{
		Summary:     "Reconcile conversations",
		Description: "Aligns stored conversations with the current agent list",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Reconciliation report", "Report"),
		},
	},
}
