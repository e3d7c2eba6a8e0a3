package context

// Environment is the interface to the process environment. It's used to read
// settings that conventionally live in environment variables, such as
// DATABASE_URL.
type Environment interface {
	Get(string) string
	Set(string, string) error
}
