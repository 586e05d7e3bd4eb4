package shared

// LoaderOp identifies an async operation that can show a spinner.
type LoaderOp string

const (
	OpSave    LoaderOp = "save"
	OpLoad    LoaderOp = "load"
	OpSuggest LoaderOp = "suggest"
	OpResolve LoaderOp = "resolve"
)
