package openapi_test

import (
	"encoding/json"
	"testing"

	"github.com/JaimeStill/agent-chat/pkg/openapi"
)

func TestAddOperation(t *testing.T) {
	spec := &openapi.Spec{Paths: map[string]*openapi.PathItem{}}
	get := &openapi.Operation{Summary: "get"}
	patch := &openapi.Operation{Summary: "patch"}

	spec.AddOperation("GET", "/x", get)
	spec.AddOperation("patch", "/x", patch)
	spec.AddOperation("TRACE", "/y", get)

	item := spec.Paths["/x"]
	if item == nil || item.Get != get || item.Patch != patch {
		t.Errorf("Paths[/x] = %+v, want get and patch bound", item)
	}
	if _, ok := spec.Paths["/y"]; ok {
		t.Error("unsupported method created a path item")
	}
}

func TestMarshalJSON_Refs(t *testing.T) {
	spec := &openapi.Spec{
		OpenAPI: "3.1.0",
		Info:    &openapi.Info{Title: "t", Version: "1"},
		Paths: map[string]*openapi.PathItem{
			"/a": {Get: &openapi.Operation{
				Parameters: []*openapi.Parameter{openapi.PathParam("id", "agent id")},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("ok", "Thing"),
					404: openapi.ResponseRef("NotFound"),
				},
			}},
		},
	}

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	get := doc["paths"].(map[string]any)["/a"].(map[string]any)["get"].(map[string]any)
	responses := get["responses"].(map[string]any)
	if ref := responses["404"].(map[string]any)["$ref"]; ref != "#/components/responses/NotFound" {
		t.Errorf("404 $ref = %v", ref)
	}
	schema := responses["200"].(map[string]any)["content"].(map[string]any)["application/json"].(map[string]any)["schema"].(map[string]any)
	if schema["$ref"] != "#/components/schemas/Thing" {
		t.Errorf("200 schema = %v", schema)
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg openapi.Config
	cfg.Finalize(nil)

	info := cfg.Info()
	if info.Title != "Agent Chat API" || info.Version == "" {
		t.Errorf("Info() = %+v", info)
	}
}
