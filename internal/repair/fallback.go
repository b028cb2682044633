package repair

import (
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// Fallback is a second-opinion repairer tried after the built-in passes have
// given up.
type Fallback interface {
	Name() string
	Repair(text string) (string, error)
}

// LibraryFallback delegates to the json-repair library.
type LibraryFallback struct{}

// Name implements Fallback.
func (LibraryFallback) Name() string { return "json-repair" }

// Repair implements Fallback. A panic inside the library is reported as an error.
func (LibraryFallback) Repair(text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("json-repair panicked: %v", r)
		}
	}()
	return jsonrepair.RepairJSON(text)
}
