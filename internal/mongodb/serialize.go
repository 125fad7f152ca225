package mongodb

import (
	"encoding/base64"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// serializeDocument converts a decoded BSON document into plain Go
// values that marshal cleanly to JSON. Every document leaving the
// executor passes through here so no driver types reach callers.
func serializeDocument(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))

	for key, value := range doc {
		out[key] = serializeValue(value)
	}

	return out
}

func serializeValue(v any) any {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case primitive.Decimal128:
		return val.String()
	case primitive.Timestamp:
		return time.Unix(int64(val.T), 0).UTC().Format(time.RFC3339)
	case primitive.Binary:
		return base64.StdEncoding.EncodeToString(val.Data)
	case bson.M:
		return serializeDocument(val)
	case map[string]any:
		return serializeDocument(bson.M(val))
	case bson.D:
		out := make(map[string]any, len(val))
		for _, elem := range val {
			out[elem.Key] = serializeValue(elem.Value)
		}

		return out
	case bson.A:
		return serializeSlice(val)
	case []any:
		return serializeSlice(val)
	default:
		return v
	}
}

func serializeSlice(items []any) []any {
	out := make([]any, len(items))

	for i, item := range items {
		out[i] = serializeValue(item)
	}

	return out
}
