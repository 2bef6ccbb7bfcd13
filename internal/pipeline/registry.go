package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/DanchukIvan/byteflow/internal/types"
)

// itemMiddleware is the shape every built-in type in middleware.go
// satisfies.
type itemMiddleware interface {
	Name() string
	Process(*types.Item) (*types.Item, error)
}

// Build resolves a (name, options) pair — the shape of one
// config.MiddlewareConfig entry — into a Step[*types.Item], so a
// Pipeline[*types.Item] can be assembled declaratively from configuration
// instead of from Go call sites. Unknown names are a configuration error,
// not a silently skipped step.
func Build(name string, options map[string]any, logger *slog.Logger) (Step[*types.Item], error) {
	mw, err := buildMiddleware(name, options, logger)
	if err != nil {
		return nil, err
	}
	return ItemStep(mw.Process), nil
}

func buildMiddleware(name string, options map[string]any, logger *slog.Logger) (itemMiddleware, error) {
	switch name {
	case "html_sanitize":
		return NewHTMLSanitizeMiddleware(), nil

	case "date_normalize":
		fields := stringSlice(options["fields"])
		format, _ := options["format"].(string)
		return NewDateNormalizeMiddleware(fields, format), nil

	case "currency_normalize":
		return NewCurrencyNormalizeMiddleware(stringSlice(options["fields"])), nil

	case "type_coercion":
		coercions := make(map[string]string, len(options))
		for k, v := range options {
			if s, ok := v.(string); ok {
				coercions[k] = s
			}
		}
		return NewTypeCoercionMiddleware(coercions), nil

	case "pii_redact":
		if logger == nil {
			logger = slog.Default()
		}
		return NewPIIRedactMiddleware(logger), nil

	case "field_validate":
		patterns := make(map[string]string, len(options))
		for k, v := range options {
			if k == "drop_invalid" {
				continue
			}
			if s, ok := v.(string); ok {
				patterns[k] = s
			}
		}
		dropInvalid, _ := options["drop_invalid"].(bool)
		return NewFieldValidateMiddleware(patterns, dropInvalid)

	case "word_count":
		return NewWordCountMiddleware(stringSlice(options["fields"])), nil

	case "field_filter":
		return NewFieldFilterMiddleware(stringSlice(options["fields"])), nil

	case "field_rename":
		rename := make(map[string]string, len(options))
		for k, v := range options {
			if s, ok := v.(string); ok {
				rename[k] = s
			}
		}
		return NewFieldRenameMiddleware(rename), nil

	case "required_fields":
		return NewRequiredFieldsMiddleware(stringSlice(options["fields"])), nil

	case "default_value":
		return NewDefaultValueMiddleware(options), nil

	case "trim":
		return NewTrimMiddleware(stringSlice(options["fields"])), nil

	case "dedup":
		field, _ := options["field"].(string)
		return NewDedupMiddleware(field), nil

	default:
		return nil, fmt.Errorf("pipeline: no middleware registered as %q", name)
	}
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, r := range vv {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
