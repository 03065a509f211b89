package version

// Current is the release version without a "v" prefix.
const Current = "2.0.0"

// String returns the human-readable version.
func String() string {
	return Current
}
