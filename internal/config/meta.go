package config

import (
	"reflect"
	"strings"
)

// GetSettingsExample uses reflection to generate example settings, so it
// stays in sync when fields are added to Settings
func GetSettingsExample() map[string]any {
	t := reflect.TypeOf(Settings{})
	example := make(map[string]any)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		jsonTag := field.Tag.Get("json")
		if jsonTag == "" {
			continue
		}
		jsonName := strings.Split(jsonTag, ",")[0]
		example[jsonName] = generateExampleValue(field.Type, jsonName)
	}

	return example
}

// generateExampleValue creates example values based on type and field name
func generateExampleValue(t reflect.Type, fieldName string) any {
	if t.Name() == "KeyBindingsConfig" {
		return map[string]any{
			"apply": "A",
			"grab":  []string{"m", "g"},
		}
	}

	if t.Kind() == reflect.Ptr {
		switch t.Elem().Kind() {
		case reflect.Bool:
			return fieldName == "debug"
		case reflect.Int:
			switch fieldName {
			case "error_clear_delay":
				return DefaultErrorClearDelay
			case "max_log_files":
				return 1000
			case "ssh_port":
				return DefaultSSHPort
			}
			return 10
		case reflect.String:
			switch fieldName {
			case "profile":
				return DefaultProfile
			case "ssh_host":
				return DefaultSSHHost
			}
			return "example"
		}
	}

	return nil
}
