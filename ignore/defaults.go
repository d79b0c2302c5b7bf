package ignore

// DefaultExcludeDirs is used when a workspace does not configure exclude-directory-names.
var DefaultExcludeDirs = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Dependencies
	"node_modules",
	"bower_components",

	// IDE / Editor
	".idea",
	".vscode",
	".vs",

	// Python
	"__pycache__",
	".venv",
}

// DefaultExcludeSuffixes is used when a workspace does not configure exclude-file-suffixes.
var DefaultExcludeSuffixes = []string{
	// Compiled output
	".class",
	".o",
	".a",
	".so",
	".pyc",
	".exe",
	".dll",

	// Editor leftovers
	".swp",
	"~",
}
