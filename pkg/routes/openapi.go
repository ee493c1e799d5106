package routes

import (
	"github.com/JaimeStill/agent-chat/pkg/openapi"
)

func (r *routes) Spec(info *openapi.Info, components *openapi.Components) *openapi.Spec {
	spec := &openapi.Spec{
		OpenAPI:    "3.1.0",
		Info:       info,
		Components: components,
		Paths:      make(map[string]*openapi.PathItem),
	}

	for _, route := range r.routes {
		if route.OpenAPI != nil {
			spec.AddOperation(route.Method, route.Pattern, route.OpenAPI)
		}
	}
	for _, group := range r.groups {
		describeGroup(spec, "", nil, group)
	}
	return spec
}

func describeGroup(spec *openapi.Spec, parent string, tags []string, group Group) {
	prefix := parent + group.Prefix
	if len(group.Tags) > 0 {
		tags = group.Tags
	}

	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			continue
		}
		op := *route.OpenAPI
		if len(op.Tags) == 0 {
			op.Tags = tags
		}
		spec.AddOperation(route.Method, prefix+route.Pattern, &op)
	}
	for _, child := range group.Children {
		describeGroup(spec, prefix, tags, child)
	}
}
