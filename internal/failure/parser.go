// Package failure parses the textual report of an external unittest-style
// runner into structured failure records. The format is owned by the runner;
// this parser treats it as a fixed grammar and degrades to partially-parsed
// records instead of dropping blocks it cannot fully understand.
package failure

import (
	"bufio"
	"io"
	"iter"
	"regexp"
	"strconv"
	"strings"
)

var (
	headerPattern = regexp.MustCompile(`^(FAIL|ERROR): (\w+) \(([\w.]+)\)`)
	framePattern  = regexp.MustCompile(`^\s*File "([^"]+)", line (\d+)(?:, in (.+))?\s*$`)
	separator     = regexp.MustCompile(`^={10,}$`)
	dashedRule    = regexp.MustCompile(`^-{10,}$`)
)

// Parse lazily yields one Record per failure block, in report order. The
// sequence is single-use: stopping early (e.g. under a failure-count limit)
// leaves the rest of the input unread.
func Parse(r io.Reader) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

		var block []string
		flush := func() bool {
			rec, ok := parseBlock(block)
			block = block[:0]
			if !ok {
				return true
			}
			return yield(rec)
		}

		for scanner.Scan() {
			line := scanner.Text()
			if separator.MatchString(strings.TrimSpace(line)) {
				if !flush() {
					return
				}
				continue
			}
			block = append(block, line)
		}
		flush()
	}
}

// parseBlock turns one separator-delimited block into a Record. Blocks that
// carry neither a failure header nor a traceback are runner chrome (the dot
// progress line, the summary footer) and are skipped; anything that looks
// like a reported failure is kept, flagged Partial when malformed.
func parseBlock(lines []string) (Record, bool) {
	raw := strings.TrimSpace(strings.Join(lines, "\n"))
	if raw == "" {
		return Record{}, false
	}

	header := headerPattern.FindStringSubmatch(raw)
	frames, lastFrameLine := parseFrames(lines)
	hasTraceback := strings.Contains(raw, "Traceback")

	if header == nil && !hasTraceback && len(frames) == 0 {
		return Record{}, false
	}

	rec := Record{Raw: raw, Frames: frames}

	if header != nil {
		rec.Status = header[1]
		rec.TestName = header[2]
		classPath := header[3]
		parts := strings.Split(classPath, ".")
		rec.TestClass = parts[len(parts)-1]
		if rec.TestClass == rec.TestName && len(parts) > 1 {
			// Newer unittest prints "pkg.Class.test_name"; the class is one
			// component up.
			rec.TestClass = parts[len(parts)-2]
			rec.TestID = classPath
		} else {
			rec.TestID = classPath + "." + rec.TestName
		}
	}

	if header == nil || len(frames) == 0 {
		rec.Partial = true
	}

	if len(frames) > 0 {
		// The test's own frame is the one that names the test; tracebacks
		// start at the test call, so default to the outermost frame.
		testFrame := frames[0]
		for _, f := range frames {
			if f.Function == rec.TestName && rec.TestName != "" {
				testFrame = f
				break
			}
		}
		rec.File = testFrame.File
		rec.Line = testFrame.Line
	}

	rec.Message = extractMessage(lines, lastFrameLine)

	return rec, true
}

// parseFrames collects every frame line in order and reports the index of
// the last one.
func parseFrames(lines []string) ([]Frame, int) {
	var frames []Frame
	lastFrameLine := -1
	for i, line := range lines {
		m := framePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		frames = append(frames, Frame{
			File:     m[1],
			Line:     lineNo,
			Function: strings.TrimSpace(m[3]),
		})
		lastFrameLine = i
	}
	return frames, lastFrameLine
}

// extractMessage returns the text from the first non-indented line after the
// last frame (skipping the frame's source echo) up to the end of the block
// or a dashed rule, whichever comes first; the rule fences off the runner's
// summary footer. With no frames, the last non-empty line serves as the
// message.
func extractMessage(lines []string, lastFrameLine int) string {
	if lastFrameLine >= 0 {
		for i := lastFrameLine + 1; i < len(lines); i++ {
			line := lines[i]
			if strings.TrimSpace(line) == "" {
				continue
			}
			if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
				continue
			}
			end := len(lines)
			for j := i + 1; j < len(lines); j++ {
				if dashedRule.MatchString(strings.TrimSpace(lines[j])) {
					end = j
					break
				}
			}
			return strings.TrimRight(strings.Join(lines[i:end], "\n"), "\n ")
		}
	}

	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}
