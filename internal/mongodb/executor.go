package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/askmongo/askmongo/internal/shellquery"
)

// Result is the outcome of executing a parsed operation. Exactly one of
// the success fields or Err is meaningful: count operations set Count
// with IsCount, document operations set Documents, and failures set
// Err. Errors never escape the executor any other way.
type Result struct {
	Documents []map[string]any `json:"documents,omitempty"`
	Count     int64            `json:"count"`
	IsCount   bool             `json:"is_count,omitempty"`
	Err       string           `json:"error,omitempty"`
}

// Succeeded reports whether the operation completed without error.
func (r *Result) Succeeded() bool {
	return r.Err == ""
}

// ExecuteShell parses a mongosh statement and executes it. Parse
// failures surface the same way execution failures do, as a Result
// error string, since there is no operation to run.
func (c *Client) ExecuteShell(ctx context.Context, query string) *Result {
	op, err := shellquery.Parse(query)
	if err != nil {
		return &Result{Err: fmt.Sprintf("MongoDB Error: %v", err)}
	}

	return c.Execute(ctx, op)
}

// Execute runs a parsed shell operation against the database. Filter,
// projection, sort, and limit apply in that order for find; count
// methods use an exact document count rather than the estimate used by
// schema introspection.
func (c *Client) Execute(ctx context.Context, op *shellquery.Operation) *Result {
	coll := c.Database().Collection(op.Collection)

	switch op.Method {
	case shellquery.MethodFind:
		return c.executeFind(ctx, coll, op)
	case shellquery.MethodAggregate:
		return c.executeAggregate(ctx, coll, op)
	case shellquery.MethodCount, shellquery.MethodCountDocuments:
		return c.executeCount(ctx, coll, op)
	default:
		return &Result{Err: fmt.Sprintf("Unsupported method: %s", op.Method)}
	}
}

func (c *Client) executeFind(ctx context.Context, coll *mongo.Collection, op *shellquery.Operation) *Result {
	opts := options.Find()

	if op.Projection != nil {
		opts.SetProjection(bson.M(op.Projection))
	}

	if len(op.Sort) > 0 {
		opts.SetSort(sortDocument(op.Sort))
	}

	if op.Limit != nil {
		opts.SetLimit(*op.Limit)
	}

	cursor, err := coll.Find(ctx, filterDocument(op.Filter), opts)
	if err != nil {
		return &Result{Err: fmt.Sprintf("MongoDB Error: %v", err)}
	}

	return collectDocuments(ctx, cursor)
}

func (c *Client) executeAggregate(ctx context.Context, coll *mongo.Collection, op *shellquery.Operation) *Result {
	cursor, err := coll.Aggregate(ctx, bson.A(op.Pipeline))
	if err != nil {
		return &Result{Err: fmt.Sprintf("MongoDB Error: %v", err)}
	}

	return collectDocuments(ctx, cursor)
}

func (c *Client) executeCount(ctx context.Context, coll *mongo.Collection, op *shellquery.Operation) *Result {
	count, err := coll.CountDocuments(ctx, filterDocument(op.Filter))
	if err != nil {
		return &Result{Err: fmt.Sprintf("MongoDB Error: %v", err)}
	}

	return &Result{Count: count, IsCount: true}
}

func collectDocuments(ctx context.Context, cursor *mongo.Cursor) *Result {
	defer cursor.Close(ctx)

	documents := []map[string]any{}

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return &Result{Err: fmt.Sprintf("MongoDB Error: %v", err)}
		}

		documents = append(documents, serializeDocument(doc))
	}

	if err := cursor.Err(); err != nil {
		return &Result{Err: fmt.Sprintf("MongoDB Error: %v", err)}
	}

	return &Result{Documents: documents, Count: int64(len(documents))}
}

func filterDocument(filter map[string]any) bson.M {
	if filter == nil {
		return bson.M{}
	}

	return bson.M(filter)
}

// sortDocument preserves the field order of the sort specification,
// which bson.M would lose.
func sortDocument(fields []shellquery.SortField) bson.D {
	doc := make(bson.D, 0, len(fields))

	for _, f := range fields {
		doc = append(doc, bson.E{Key: f.Field, Value: f.Direction})
	}

	return doc
}
