package entity

type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}
