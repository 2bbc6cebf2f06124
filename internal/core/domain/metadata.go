package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemMetadata is the catalog record attached to a vector index entry.
// Every field is optional; an empty string means the field is absent.
type ItemMetadata struct {
	PerfumeName string
	Handle      *string
	Olfactive   OlfactiveProfile
	Semantic    SemanticProfile
}

type OlfactiveProfile struct {
	Family string
}

type SemanticProfile struct {
	Gender   string
	Occasion string
	Mood     string
}

func (p SemanticProfile) IsEmpty() bool {
	return p.Gender == "" && p.Occasion == "" && p.Mood == ""
}

// HandleValue returns the item handle and whether the index provided one.
func (m ItemMetadata) HandleValue() (string, bool) {
	if m.Handle == nil {
		return "", false
	}
	return *m.Handle, true
}

// ParseItemMetadata reads the recognized fields from an index payload.
// Nested profiles may arrive as objects, as JSON-encoded strings (flat
// metadata stores), or as dotted keys such as "olfactive_profile.family".
func ParseItemMetadata(payload map[string]any) ItemMetadata {
	if payload == nil {
		return ItemMetadata{}
	}

	meta := ItemMetadata{
		PerfumeName: stringField(payload, "perfume_name"),
	}
	if raw, ok := payload["handle"]; ok && raw != nil {
		handle := stringify(raw)
		meta.Handle = &handle
	}

	olfactive := nestedObject(payload, "olfactive_profile")
	meta.Olfactive.Family = stringField(olfactive, "family")

	semantic := nestedObject(payload, "semantic_profile")
	meta.Semantic = SemanticProfile{
		Gender:   stringField(semantic, "gender"),
		Occasion: stringField(semantic, "occasion"),
		Mood:     stringField(semantic, "mood"),
	}
	return meta
}

func nestedObject(payload map[string]any, key string) map[string]any {
	out := map[string]any{}
	switch v := payload[key].(type) {
	case map[string]any:
		for k, val := range v {
			out[k] = val
		}
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			for k, val := range decoded {
				out[k] = val
			}
		}
	}

	prefix := key + "."
	for k, val := range payload {
		if name, ok := strings.CutPrefix(k, prefix); ok {
			if _, exists := out[name]; !exists {
				out[name] = val
			}
		}
	}
	return out
}

func stringField(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
