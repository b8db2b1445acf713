package diagnostics

// Diagnostic codes for the Aurora compiler
const (
	// Environment errors
	ErrCannotOpenFile = "E0001"
	ErrModuleNotFound = "E0002"
	ErrEngineFailure  = "E0003"

	// Lexer errors
	ErrUnterminatedString  = "E1001"
	ErrUnexpectedCharacter = "E1002"

	// Parser errors
	ErrParse = "E2001"

	// Code generation errors
	ErrCodegenArray = "E3001"
	ErrCodegenExpr  = "E3002"
	ErrCodegenStmt  = "E3003"
	ErrCodegenClass = "E3004"

	// Internal consistency errors
	ErrVerifyModule = "E9001"

	// Warnings
	WarnUnusedImport = "W0001"
	WarnExternDecl   = "W0002"
)
