package shellquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/askmongo/askmongo/internal/errors"
)

func int64Ptr(n int64) *int64 {
	return &n
}

func TestParseFind(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected *Operation
	}{
		{
			name:  "simple filter",
			query: `db.movies.find({year: 1999})`,
			expected: &Operation{
				Collection: "movies",
				Method:     MethodFind,
				Filter:     map[string]any{"year": int64(1999)},
			},
		},
		{
			name:  "empty arguments",
			query: `db.movies.find()`,
			expected: &Operation{
				Collection: "movies",
				Method:     MethodFind,
				Filter:     map[string]any{},
			},
		},
		{
			name:  "filter and projection",
			query: `db.movies.find({genre: "Sci-Fi"}, {title: 1, _id: 0})`,
			expected: &Operation{
				Collection: "movies",
				Method:     MethodFind,
				Filter:     map[string]any{"genre": "Sci-Fi"},
				Projection: map[string]any{"title": int64(1), "_id": int64(0)},
			},
		},
		{
			name:  "operator keys and nested documents",
			query: `db.movies.find({rating: {$gte: 8.5}, "details.runtime": {$lt: 120}})`,
			expected: &Operation{
				Collection: "movies",
				Method:     MethodFind,
				Filter: map[string]any{
					"rating":          map[string]any{"$gte": 8.5},
					"details.runtime": map[string]any{"$lt": int64(120)},
				},
			},
		},
		{
			name:  "sort and limit chains",
			query: `db.movies.find({year: {$gt: 2000}}).sort({rating: -1, title: 1}).limit(5)`,
			expected: &Operation{
				Collection: "movies",
				Method:     MethodFind,
				Filter:     map[string]any{"year": map[string]any{"$gt": int64(2000)}},
				Sort:       []SortField{{Field: "rating", Direction: -1}, {Field: "title", Direction: 1}},
				Limit:      int64Ptr(5),
			},
		},
		{
			name:  "limit before sort",
			query: `db.movies.find({}).limit(3).sort({year: 1})`,
			expected: &Operation{
				Collection: "movies",
				Method:     MethodFind,
				Filter:     map[string]any{},
				Sort:       []SortField{{Field: "year", Direction: 1}},
				Limit:      int64Ptr(3),
			},
		},
		{
			name:  "trailing semicolon and whitespace",
			query: "  db.theaters.find({city: 'Denver'});  ",
			expected: &Operation{
				Collection: "theaters",
				Method:     MethodFind,
				Filter:     map[string]any{"city": "Denver"},
			},
		},
		{
			name:  "brackets inside string literals",
			query: `db.movies.find({title: "The (Un)usual [Suspects] {Redux}"})`,
			expected: &Operation{
				Collection: "movies",
				Method:     MethodFind,
				Filter:     map[string]any{"title": "The (Un)usual [Suspects] {Redux}"},
			},
		},
		{
			name:  "multiline statement",
			query: "db.movies.find({\n  year: 1999,\n  genre: \"Action\"\n})",
			expected: &Operation{
				Collection: "movies",
				Method:     MethodFind,
				Filter:     map[string]any{"year": int64(1999), "genre": "Action"},
			},
		},
		{
			name:  "array values and in operator",
			query: `db.movies.find({genre: {$in: ["Action", "Drama"]}})`,
			expected: &Operation{
				Collection: "movies",
				Method:     MethodFind,
				Filter: map[string]any{
					"genre": map[string]any{"$in": []any{"Action", "Drama"}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := Parse(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, op)
		})
	}
}

func TestParseCount(t *testing.T) {
	op, err := Parse(`db.movies.count({year: {$gte: 2020}})`)
	require.NoError(t, err)
	assert.Equal(t, MethodCount, op.Method)
	assert.Equal(t, map[string]any{"year": map[string]any{"$gte": int64(2020)}}, op.Filter)

	op, err = Parse(`db.movies.countDocuments()`)
	require.NoError(t, err)
	assert.Equal(t, MethodCountDocuments, op.Method)
	assert.Equal(t, map[string]any{}, op.Filter)
}

func TestParseAggregate(t *testing.T) {
	op, err := Parse(`db.movies.aggregate([{$match: {year: 1999}}, {$group: {_id: "$genre", n: {$sum: 1}}}])`)
	require.NoError(t, err)
	assert.Equal(t, MethodAggregate, op.Method)
	require.Len(t, op.Pipeline, 2)
	assert.Equal(t, map[string]any{"$match": map[string]any{"year": int64(1999)}}, op.Pipeline[0])
}

func TestParseAggregateBareStage(t *testing.T) {
	op, err := Parse(`db.movies.aggregate({$match: {genre: "Drama"}})`)
	require.NoError(t, err)
	require.Len(t, op.Pipeline, 1)
	assert.Equal(t, map[string]any{"$match": map[string]any{"genre": "Drama"}}, op.Pipeline[0])
}

func TestParseMongoTypes(t *testing.T) {
	op, err := Parse(`db.orders.find({_id: ObjectId("507f1f77bcf86cd799439011")})`)
	require.NoError(t, err)

	id, ok := op.Filter["_id"].(primitive.ObjectID)
	require.True(t, ok, "expected an ObjectID, got %T", op.Filter["_id"])
	assert.Equal(t, "507f1f77bcf86cd799439011", id.Hex())

	op, err = Parse(`db.orders.find({created: {$gte: ISODate("2024-03-01T00:00:00Z")}})`)
	require.NoError(t, err)

	bound, ok := op.Filter["created"].(map[string]any)["$gte"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), bound)
}

func TestParseNewDateRewrite(t *testing.T) {
	op, err := Parse(`db.orders.find({created: {$lt: new Date("2024-06-15")}})`)
	require.NoError(t, err)

	bound, ok := op.Filter["created"].(map[string]any)["$lt"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), bound)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		errType  errors.ErrorType
		contains string
	}{
		{
			name:     "empty query",
			query:    "",
			errType:  errors.ErrTypeParse,
			contains: "query is empty",
		},
		{
			name:     "missing db prefix",
			query:    "movies.find({})",
			errType:  errors.ErrTypeParse,
			contains: "must start with db.",
		},
		{
			name:     "invalid collection name",
			query:    "db.mov-ies.find({})",
			errType:  errors.ErrTypeParse,
			contains: "invalid collection name",
		},
		{
			name:     "missing method call",
			query:    "db.movies",
			errType:  errors.ErrTypeParse,
			contains: "missing a method call",
		},
		{
			name:    "unsupported method",
			query:   "db.movies.drop()",
			errType: errors.ErrTypeUnsupportedMethod,
		},
		{
			name:    "unsupported insert",
			query:   `db.movies.insertOne({title: "x"})`,
			errType: errors.ErrTypeUnsupportedMethod,
		},
		{
			name:     "unbalanced brackets",
			query:    "db.movies.find({year: 1999",
			errType:  errors.ErrTypeParse,
			contains: "unterminated",
		},
		{
			name:     "trailing garbage",
			query:    "db.movies.find({}) and more",
			errType:  errors.ErrTypeParse,
			contains: "unexpected trailing input",
		},
		{
			name:     "unknown chained method",
			query:    "db.movies.find({}).explain()",
			errType:  errors.ErrTypeParse,
			contains: "unsupported chained method",
		},
		{
			name:     "bad sort direction",
			query:    "db.movies.find({}).sort({year: 2})",
			errType:  errors.ErrTypeParse,
			contains: "must be 1 or -1",
		},
		{
			name:     "non-numeric limit",
			query:    "db.movies.find({}).limit(five)",
			errType:  errors.ErrTypeParse,
			contains: "limit must be a non-negative integer",
		},
		{
			name:     "negative limit",
			query:    "db.movies.find({}).limit(-5)",
			errType:  errors.ErrTypeParse,
			contains: "limit must be a non-negative integer",
		},
		{
			name:     "too many find arguments",
			query:    "db.movies.find({}, {}, {})",
			errType:  errors.ErrTypeParse,
			contains: "optional projection",
		},
		{
			name:     "empty aggregate",
			query:    "db.movies.aggregate()",
			errType:  errors.ErrTypeParse,
			contains: "requires a pipeline",
		},
		{
			name:    "function in value position",
			query:   `db.movies.find({$where: function() { return true; }})`,
			errType: errors.ErrTypeParse,
		},
		{
			name:    "bare identifier value",
			query:   `db.movies.find({year: currentYear})`,
			errType: errors.ErrTypeParse,
		},
		{
			name:    "find filter is not a document",
			query:   `db.movies.find([1, 2])`,
			errType: errors.ErrTypeParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := Parse(tt.query)
			require.Error(t, err)
			assert.Nil(t, op)
			assert.True(t, errors.IsType(err, tt.errType), "expected %s error, got: %v", tt.errType, err)

			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestSplitTopLevel(t *testing.T) {
	parts, err := splitTopLevel(`{a: [1, 2], b: {c: 3}}, {d: "x,y"}`)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, `{a: [1, 2], b: {c: 3}}`, parts[0])
	assert.Equal(t, ` {d: "x,y"}`, parts[1])
}

func TestScanBalancedStringAware(t *testing.T) {
	body, next, err := scanBalanced(`find({title: "a)b"}).limit(1)`, 4)
	require.NoError(t, err)
	assert.Equal(t, `{title: "a)b"}`, body)
	assert.Equal(t, `.limit(1)`, `find({title: "a)b"}).limit(1)`[next:])
}
