package vm

import (
	"errors"
	"fmt"
	"os"
)

// ReadFile reads a file into a string result: Ok(contents) on success,
// Err(message) on failure. I/O failures are script-level values, never
// faults.
func ReadFile(path string) Value {
	data, err := os.ReadFile(path)
	if err != nil {
		reason := err.Error()
		var pe *os.PathError
		if errors.As(err, &pe) {
			reason = pe.Err.Error()
		}
		return MakeErr(MakeString(fmt.Sprintf("unable to read from '%s': %s", path, reason)))
	}
	return MakeOk(MakeString(string(data)))
}
