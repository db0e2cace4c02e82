package display

import (
	"bufio"
	"fmt"
	"io"
)

// Print writes each line to w followed by a newline until lines is closed.
// Output is flushed after every line that leaves the channel empty, so a
// slow feed is never held back in the buffer.
func Print(lines <-chan string, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
		if len(lines) == 0 {
			if err := bw.Flush(); err != nil {
				return fmt.Errorf("flushing output: %w", err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}
