package request

import "github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"

var groupKeys = []models.Location{
	models.LocationPath,
	models.LocationQuery,
	models.LocationHeader,
	models.LocationCookie,
}

// FlattenGrouped turns arguments shaped by the grouped layout
// ({"path": {...}, "query": {...}, "body": ...}) into flat arguments.
// The body group stays under BodyKey.
func FlattenGrouped(args map[string]any) map[string]any {
	flat := make(map[string]any, len(args))
	for _, loc := range groupKeys {
		group, ok := args[string(loc)].(map[string]any)
		if !ok {
			continue
		}
		for k, v := range group {
			flat[k] = v
		}
	}
	if body, ok := args[BodyKey]; ok {
		flat[BodyKey] = body
	}
	return flat
}
