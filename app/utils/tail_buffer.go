package utils

import (
	"bufio"
	"container/list"
	"fmt"
	"os"
)

// LineTailBuffer keeps the last maxLines lines written to it. Used to trim
// the supervisor's append-only log file down to its configured size without
// holding the whole file in memory.
type LineTailBuffer struct {
	maxLines int
	lines    *list.List
}

// NewLineTailBuffer returns an initialized LineTailBuffer bounded to maxLines.
func NewLineTailBuffer(maxLines int) *LineTailBuffer {
	return &LineTailBuffer{
		maxLines: maxLines,
		lines:    list.New(),
	}
}

// Push appends a line, evicting the oldest one once maxLines is exceeded.
func (b *LineTailBuffer) Push(line string) {
	b.lines.PushBack(line)

	for b.lines.Len() > b.maxLines {
		b.lines.Remove(b.lines.Front())
	}
}

// Lines returns the buffered lines, oldest first.
func (b *LineTailBuffer) Lines() []string {
	result := make([]string, 0, b.lines.Len())
	for e := b.lines.Front(); e != nil; e = e.Next() {
		result = append(result, e.Value.(string))
	}
	return result
}

// TrimLogFile truncates the log file at path down to its last maxLines/2
// lines, so a file that has just crossed maxLines doesn't immediately
// re-trigger a trim on the next check. The replacement is written to a
// temporary file and renamed over the original so a concurrent reader never
// observes a partially-written log.
func TrimLogFile(path string, maxLines int) error {
	keep := maxLines / 2
	if keep < 1 {
		keep = 1
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening log file %s: %w", path, err)
	}

	tail := NewLineTailBuffer(keep)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tail.Push(scanner.Text())
	}
	scanErr := scanner.Err()
	_ = f.Close()

	if scanErr != nil {
		return fmt.Errorf("error reading log file %s: %w", path, scanErr)
	}

	tmp := path + ".trim.tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("error creating temporary log file %s: %w", tmp, err)
	}

	writer := bufio.NewWriter(out)
	for _, line := range tail.Lines() {
		if _, err = writer.WriteString(line); err != nil {
			break
		}
		if _, err = writer.WriteString("\n"); err != nil {
			break
		}
	}
	if err == nil {
		err = writer.Flush()
	}
	if err == nil {
		err = out.Sync()
	}
	_ = out.Close()
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("error writing trimmed log file %s: %w", tmp, err)
	}

	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error renaming %s to %s: %w", tmp, path, err)
	}

	return nil
}

// CountLines counts the number of lines in path (a final line without a
// trailing newline counts too) without loading the whole file into memory.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	count := 0
	for scanner.Scan() {
		count++
	}

	return count, scanner.Err()
}
