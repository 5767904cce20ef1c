package ops

import (
	"fmt"
	"os"
)

// WriteBack writes text to path, the --fix commit step of the
// replacement state machine.
func WriteBack(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	return nil
}
