package extractor

// DependencyQuery captures every call site inside a method body: the bare
// callee identifier plus its argument list, so the resolver can apply
// arity-based disambiguation between overloads.
const DependencyQuery = `
	(method_invocation
		name: (identifier) @callee
		arguments: (argument_list) @args)
`
