package runner

// FilePlaceholder marks where the solution path goes in a command template.
// Templates without it get the path appended.
const FilePlaceholder = "{file}"

// DefaultCommands maps a solution extension to the command that runs it.
// Compiled languages build to /tmp/solution and then execute the binary.
var DefaultCommands = map[string]string{
	".ts":   "npx tsx {file}",
	".js":   "node {file}",
	".py":   "python3 {file}",
	".java": "java {file}",
	".cpp":  "g++ -o /tmp/solution {file} && /tmp/solution",
	".c":    "gcc -o /tmp/solution {file} && /tmp/solution",
	".cs":   "dotnet run {file}",
	".go":   "go run {file}",
	".rb":   "ruby {file}",
	".php":  "php {file}",
}
