package prompts

import (
	"strings"

	"github.com/askmongo/askmongo/internal/llm"
)

// System messages pair with the templates below. Temperature and token
// limits are fixed per call type: query generation and both validators
// run cold, summaries run slightly warmer.
const (
	QueryGenerationSystem      = "You are a MongoDB query expert. Generate precise MongoDB queries based on user questions."
	QueryHallucinationSystem   = "You are a MongoDB query validator. Analyze queries for hallucinations and errors."
	SummarizationSystem        = "You are a helpful data analyst assistant. Provide clear, natural language summaries of query results."
	EmptyResultSystem          = "You are a helpful data analyst assistant."
	SummaryHallucinationSystem = "You are a fact-checker. Verify summaries against actual data for accuracy."
)

// QueryGeneration turns a question plus schema context into a mongosh
// statement. The model is told to answer with the bare query only.
const QueryGeneration = `You are an expert data analyst experienced at using MongoDB.
Your job is to take information about a MongoDB database plus a natural language query and generate a MongoDB shell (mongosh) query to execute to retrieve the information needed to answer the natural language query.

Format the mongosh query in the following structure:

` + "`db.<collection name>.find({/* query */})` or `db.<collection name>.aggregate({/* query */})`" + `

Some general query-authoring tips:

1. Ensure proper use of MongoDB operators ($eq, $gt, $lt, etc.) and data types (ObjectId, ISODate).
2. For complex queries, use aggregation pipeline with proper stages ($match, $group, $lookup, etc.).
3. Consider performance by utilizing available indexes, avoiding $where and full collection scans, and using covered queries where possible.
4. Include sorting (.sort()) and limiting (.limit()) when appropriate for result set management.
5. Handle null values and existence checks explicitly with $exists and $type operators to differentiate between missing fields, null values, and empty arrays.
6. Do not include ` + "`null`" + ` in results objects in aggregation, e.g. do not include _id: null.
7. For date operations, NEVER use an empty new date object (e.g. ` + "`new Date()`" + `). ALWAYS specify the date, such as ` + "`new Date(\"2024-10-24\")`" + `. Use the provided 'Latest Date' field to inform dates in queries.
8. For Decimal128 operations, prefer range queries over exact equality.
9. When querying arrays, use appropriate operators like $elemMatch for complex matching, $all to match multiple elements, or $size for array length checks.

DATABASE SCHEMA INFORMATION:
{schema_info}

CURRENT DATE: {current_date}

USER QUESTION:
{question}

Generate ONLY the MongoDB query. Do not include any explanation or additional text. The query should be executable as-is in mongosh.`

// QueryHallucination asks the model to vet a generated query against
// the schema. Responses must start with VALID or HALLUCINATION.
const QueryHallucination = `You are a MongoDB query validator. Your task is to check if the generated MongoDB query contains hallucinations or errors.

DATABASE SCHEMA:
{schema_info}

USER'S QUESTION:
{question}

GENERATED QUERY:
{query}

Check if the query:
1. References collections that exist in the schema
2. Uses field names that exist in the collections
3. Uses valid MongoDB operators and syntax
4. Matches the intent of the user's question

Respond with ONLY "VALID" if the query is correct, or "HALLUCINATION: [reason]" if there are issues.`

// Summarization turns raw query results into a conversational answer.
const Summarization = `You are a helpful data analyst assistant. Your task is to analyze query results and provide a clear, natural language answer to the user's question.

USER'S QUESTION:
{question}

QUERY RESULTS:
{results}

QUERY USED:
{query}

Based on the query results above, provide a clear and concise answer to the user's question.
- If the results are empty, explain that no data was found matching the criteria.
- If there are results, summarize the key findings in a natural, conversational way.
- Include specific numbers, names, or data points from the results when relevant.
- Be concise but informative.
- Do not include the raw query or technical details unless specifically asked.

Your answer:`

// EmptyResultSummary explains an empty result set in plain language.
const EmptyResultSummary = `The user asked: "{question}"

The query executed was: {query}

However, no results were found matching the query criteria.

Provide a helpful, natural language response explaining that no data was found matching their question.`

// SummaryHallucination fact-checks a summary against the results it
// claims to describe.
const SummaryHallucination = `You are a fact-checker. Your task is to verify if the summary accurately represents the query results.

USER'S QUESTION:
{question}

QUERY RESULTS:
{results}

GENERATED SUMMARY:
{summary}

Check if the summary:
1. Accurately reflects the data in the results
2. Doesn't make claims not supported by the results
3. Uses correct numbers, names, and facts from the results
4. Doesn't hallucinate information not present in the data

Respond with ONLY "VALID" if the summary is accurate, or "HALLUCINATION: [specific issue]" if there are inaccuracies.`

// Placeholders are substituted with plain string replacement rather
// than a template engine so literal braces in query text survive.

// BuildQueryGeneration prepares the query-generation conversation.
func BuildQueryGeneration(schemaText, currentDate, question string) ([]llm.Message, llm.Options) {
	prompt := strings.NewReplacer(
		"{schema_info}", schemaText,
		"{current_date}", currentDate,
		"{question}", question,
	).Replace(QueryGeneration)

	return messages(QueryGenerationSystem, prompt), llm.Options{Temperature: 0.1, MaxTokens: 1000}
}

// BuildQueryHallucination prepares the query-validation conversation.
func BuildQueryHallucination(schemaText, question, query string) ([]llm.Message, llm.Options) {
	prompt := strings.NewReplacer(
		"{schema_info}", schemaText,
		"{question}", question,
		"{query}", query,
	).Replace(QueryHallucination)

	return messages(QueryHallucinationSystem, prompt), llm.Options{Temperature: 0.1, MaxTokens: 200}
}

// BuildSummarization prepares the results-summarization conversation.
func BuildSummarization(question, resultsText, query string) ([]llm.Message, llm.Options) {
	prompt := strings.NewReplacer(
		"{question}", question,
		"{results}", resultsText,
		"{query}", query,
	).Replace(Summarization)

	return messages(SummarizationSystem, prompt), llm.Options{Temperature: 0.3, MaxTokens: 500}
}

// BuildEmptyResultSummary prepares the empty-result explanation
// conversation.
func BuildEmptyResultSummary(question, query string) ([]llm.Message, llm.Options) {
	prompt := strings.NewReplacer(
		"{question}", question,
		"{query}", query,
	).Replace(EmptyResultSummary)

	return messages(EmptyResultSystem, prompt), llm.Options{Temperature: 0.3, MaxTokens: 200}
}

// BuildSummaryHallucination prepares the summary-validation
// conversation.
func BuildSummaryHallucination(question, resultsText, summary string) ([]llm.Message, llm.Options) {
	prompt := strings.NewReplacer(
		"{question}", question,
		"{results}", resultsText,
		"{summary}", summary,
	).Replace(SummaryHallucination)

	return messages(SummaryHallucinationSystem, prompt), llm.Options{Temperature: 0.1, MaxTokens: 200}
}

// IsValidVerdict reports whether a validator response accepts its
// input. Anything that does not begin with VALID counts as a detected
// hallucination.
func IsValidVerdict(response string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(response)), "VALID")
}

func messages(system, user string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}
}
