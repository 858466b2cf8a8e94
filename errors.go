package lakeq

import "errors"

// Common errors used throughout the lakeq package
var (
	// Parser errors

	// ErrInvalidSyntax indicates the token stream violated the query grammar.
	ErrInvalidSyntax = errors.New("invalid query syntax")
	// ErrUnexpectedEOF indicates the query ended in the middle of a construct.
	ErrUnexpectedEOF = errors.New("unexpected end of query")
	// ErrUnknownFunction indicates a call to a function not present in the function table.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrWrongArgumentCount indicates a function call with an arity outside its signature.
	ErrWrongArgumentCount = errors.New("wrong number of arguments")
	// ErrInvalidOrderKey indicates an order() key that is not an expression with optional direction.
	ErrInvalidOrderKey = errors.New("invalid order key")

	// Complexity limit errors

	// ErrQueryTooComplex indicates a post-parse complexity limit was exceeded.
	ErrQueryTooComplex = errors.New("query exceeds complexity limits")

	// Evaluation errors

	// ErrFatalEval indicates contractual misuse that aborts the whole query.
	ErrFatalEval = errors.New("fatal evaluation error")
	// ErrCountArgument is returned when count() is applied to a non-array value.
	ErrCountArgument = errors.New("count() requires an array argument")
	// ErrEvaluationDepth indicates runaway recursion during evaluation.
	ErrEvaluationDepth = errors.New("evaluation depth exceeded")

	// Transpiler errors

	// ErrNotPushable indicates an AST fragment outside the pushable subset.
	ErrNotPushable = errors.New("fragment cannot be pushed to the store")
	// ErrUnsupportedDialect indicates SQL emission was requested for an unknown dialect.
	ErrUnsupportedDialect = errors.New("unsupported dialect")

	// Dispatcher errors

	// ErrNoStore indicates a dispatcher was used without a document store attached.
	ErrNoStore = errors.New("no document store configured")
	// ErrNoDataset indicates a query was dispatched without a dataset scope.
	ErrNoDataset = errors.New("no dataset specified")
	// ErrQueryTimeout indicates the per-query deadline elapsed before completion.
	ErrQueryTimeout = errors.New("query timed out")
	// ErrTooManyRows indicates a query fetched more candidates than the
	// configured max_rows backstop allows.
	ErrTooManyRows = errors.New("query result exceeds row limit")

	// Document errors

	// ErrInvalidDocumentID indicates a document id with characters outside the allowed set.
	ErrInvalidDocumentID = errors.New("invalid document id")
	// ErrInvalidDocumentType indicates an empty or reserved document type.
	ErrInvalidDocumentType = errors.New("invalid document type")
	// ErrMissingSystemField indicates a document without the required _id or _type field.
	ErrMissingSystemField = errors.New("document is missing required system field")
	// ErrEmptyFixture indicates a seed fixture without any documents.
	ErrEmptyFixture = errors.New("fixture contains no documents")

	// Parameter errors

	// ErrInvalidParameterName indicates a parameter binding whose name is not an identifier.
	ErrInvalidParameterName = errors.New("invalid parameter name")
	// ErrUnknownParameter indicates a $param reference with no binding supplied.
	ErrUnknownParameter = errors.New("unknown parameter")

	// Configuration errors

	// ErrConfigFileNotFound indicates a configuration file could not be located.
	ErrConfigFileNotFound = errors.New("configuration file not found")
	// ErrDialectMustBeSpecified indicates a dialect is required but missing.
	ErrDialectMustBeSpecified = errors.New("dialect must be specified (postgres, mysql, sqlite)")
	// ErrInvalidLimit indicates a non-positive complexity limit in configuration.
	ErrInvalidLimit = errors.New("complexity limits must be positive")
)
