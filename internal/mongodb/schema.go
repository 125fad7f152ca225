package mongodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/askmongo/askmongo/internal/errors"
)

// SchemaInfo describes every collection in the database. It is built on
// demand and handed to the model as query-generation context. Error is
// set by callers that treat schema introspection as advisory.
type SchemaInfo struct {
	DatabaseName string           `json:"database_name"`
	Collections  []CollectionInfo `json:"collections"`
	Error        string           `json:"error,omitempty"`
}

// CollectionInfo summarizes one collection: an estimated document
// count, field paths inferred from a single sample document, and index
// key patterns.
type CollectionInfo struct {
	Name          string      `json:"name"`
	DocumentCount int64       `json:"document_count"`
	SampleFields  []FieldInfo `json:"sample_fields"`
	Indexes       []IndexSpec `json:"indexes"`
}

// FieldInfo is a dotted field path with its inferred type tag.
type FieldInfo struct {
	Field string `json:"field"`
	Type  string `json:"type"`
}

// IndexSpec is an index key pattern as reported by the server.
type IndexSpec map[string]any

// Schema introspects the configured database. Collections are listed in
// name order so repeated calls produce identical output.
func (c *Client) Schema(ctx context.Context) (*SchemaInfo, error) {
	db := c.Database()

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to list collections")
	}

	sort.Strings(names)

	info := &SchemaInfo{
		DatabaseName: c.database,
		Collections:  make([]CollectionInfo, 0, len(names)),
	}

	for _, name := range names {
		collInfo, err := c.collectionInfo(ctx, db.Collection(name))
		if err != nil {
			return nil, err
		}

		info.Collections = append(info.Collections, *collInfo)
	}

	return info, nil
}

func (c *Client) collectionInfo(ctx context.Context, coll *mongo.Collection) (*CollectionInfo, error) {
	info := &CollectionInfo{
		Name:         coll.Name(),
		SampleFields: []FieldInfo{},
		Indexes:      []IndexSpec{},
	}

	// One arbitrary document is enough to sketch the field layout. An
	// empty collection simply reports no sample fields.
	var sample bson.D

	err := coll.FindOne(ctx, bson.M{}).Decode(&sample)
	if err == nil {
		info.SampleFields = extractFields(sample, "")
	} else if err != mongo.ErrNoDocuments {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to sample collection %s", coll.Name())
	}

	count, err := coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to count collection %s", coll.Name())
	}

	info.DocumentCount = count

	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to list indexes for %s", coll.Name())
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var idx struct {
			Key bson.D `bson:"key"`
		}

		if err := cursor.Decode(&idx); err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to decode index for %s", coll.Name())
		}

		spec := make(IndexSpec, len(idx.Key))
		for _, e := range idx.Key {
			spec[e.Key] = serializeValue(e.Value)
		}

		info.Indexes = append(info.Indexes, spec)
	}

	if err := cursor.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to read indexes for %s", coll.Name())
	}

	return info, nil
}

// extractFields walks a sample document and records one entry per field
// path. Nested documents recurse with a dotted prefix; arrays whose
// first element is a document recurse with a [] marker on the path.
func extractFields(doc bson.D, prefix string) []FieldInfo {
	fields := make([]FieldInfo, 0, len(doc))

	for _, elem := range doc {
		path := elem.Key
		if prefix != "" {
			path = prefix + "." + elem.Key
		}

		switch v := elem.Value.(type) {
		case bson.D:
			fields = append(fields, FieldInfo{Field: path, Type: "object"})
			fields = append(fields, extractFields(v, path)...)
		case bson.A:
			fields = append(fields, FieldInfo{Field: path, Type: "array"})

			if len(v) > 0 {
				if first, ok := v[0].(bson.D); ok {
					fields = append(fields, extractFields(first, path+"[]")...)
				}
			}
		default:
			fields = append(fields, FieldInfo{Field: path, Type: typeName(elem.Value)})
		}
	}

	return fields
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case int32:
		return "int"
	case int64:
		return "long"
	case float64:
		return "double"
	case primitive.Decimal128:
		return "decimal"
	case bool:
		return "bool"
	case primitive.DateTime, time.Time:
		return "date"
	case primitive.ObjectID:
		return "objectId"
	case primitive.Binary:
		return "binary"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
