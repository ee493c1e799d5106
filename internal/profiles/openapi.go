package profiles

import "github.com/JaimeStill/agent-chat/pkg/openapi"

type spec struct {
	Me          *openapi.Operation
	SaveMe      *openapi.Operation
	ListAgents  *openapi.Operation
	CreateAgent *openapi.Operation
	UpdateAgent *openapi.Operation
	DeleteAgent *openapi.Operation
	SetActive   *openapi.Operation
}

// Spec documents the profile endpoints.
var Spec = spec{
	Me: &openapi.Operation{
		Summary: "Current user",
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("User with agents", "AuthUser"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	SaveMe: &openapi.Operation{
		Summary:     "Save current user",
		Description: "Creates the account on first call and updates profile fields after",
		RequestBody: openapi.RequestBodyJSON("SaveUserCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Saved user", "AuthUser"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	ListAgents: &openapi.Operation{
		Summary: "List agents",
		Responses: map[int]*openapi.Response{
			200: {Description: "Agents in creation order", Content: map[string]*openapi.MediaType{
				"application/json": {Schema: openapi.ArrayOf("AgentProfile")},
			}},
		},
	},
	CreateAgent: &openapi.Operation{
		Summary:     "Create agent",
		RequestBody: openapi.RequestBodyJSON("SaveAgentCommand", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Agent created", "AgentProfile"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	UpdateAgent: &openapi.Operation{
		Summary:     "Update agent",
		Description: "Changes to name, description, avatar, or tools are mirrored into the stored conversation",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Agent id")},
		RequestBody: openapi.RequestBodyJSON("SaveAgentCommand", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Agent updated", "AgentProfile"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	DeleteAgent: &openapi.Operation{
		Summary:     "Delete agent",
		Description: "Removes the agent and its conversation",
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Agent id")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Agent deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
	SetActive: &openapi.Operation{
		Summary:    "Set user activation",
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "User id")},
		RequestBody: &openapi.RequestBody{Required: true, Content: map[string]*openapi.MediaType{
			"application/json": {Schema: &openapi.Schema{
				Type:       "object",
				Properties: map[string]*openapi.Schema{"active": {Type: "boolean"}},
				Required:   []string{"active"},
			}},
		}},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated user", "AuthUser"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}
