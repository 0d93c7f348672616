package options

// ChildCommand describes the tool host process a relay launches.
// It mirrors a stdio server entry: an executable, its arguments and the
// environment it runs with.
type ChildCommand struct {
	// Command is the executable path or name looked up in PATH
	Command string

	// Args are passed to Command
	Args []string

	// Env adds or overrides variables on top of the relay's environment
	Env map[string]string

	// Dir sets the working directory (optional)
	Dir *string
}
