package formatters

import (
	"encoding/json"
	"fmt"

	"careeros/internal/state"
	"careeros/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "State", &StateTextFormatter{})
	registry.RegisterFormatter("markdown", "State", &StateMarkdownFormatter{})
	registry.RegisterFormatter("text", "HealthStatus", &HealthTextFormatter{})
	registry.RegisterFormatter("markdown", "HealthStatus", &HealthTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case state.State, *state.State:
		return "State"
	case types.HealthStatus, *types.HealthStatus:
		return "HealthStatus"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// HealthTextFormatter renders a service health report
type HealthTextFormatter struct{}

func (htf *HealthTextFormatter) Format(data any) (string, error) {
	var health types.HealthStatus
	switch v := data.(type) {
	case types.HealthStatus:
		health = v
	case *types.HealthStatus:
		health = *v
	default:
		return "", fmt.Errorf("expected HealthStatus, got %T", data)
	}

	service := health.Service
	if service == "" {
		service = "service"
	}
	return fmt.Sprintf("%s: %s\n", service, health.Status), nil
}

func (htf *HealthTextFormatter) SupportedType() string {
	return "HealthStatus"
}

func asState(data any) (state.State, error) {
	switch v := data.(type) {
	case state.State:
		return v, nil
	case *state.State:
		return *v, nil
	default:
		return state.State{}, fmt.Errorf("expected State, got %T", data)
	}
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
