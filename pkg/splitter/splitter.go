package splitter

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var dollarTag = regexp.MustCompile(`^\$(?:[A-Za-z_][A-Za-z0-9_]*)?\$`)

type (
	// Statement is one independently executable unit of SQL text.
	Statement struct {
		// SQL is the statement text, trimmed, without its terminator (unless it
		// ends a procedural block and the dialect keeps block terminators)
		SQL string

		// Repeat is how many times the statement must be executed (GO 3 -> 3)
		Repeat int

		// Line is the 1-based line on which the statement starts
		Line int

		// Warnings describes structural problems closed implicitly (unterminated
		// strings, comments or blocks)
		Warnings []string
	}

	// Splitter decomposes SQL scripts into executable statements.
	//
	// Splitting is purely structural: strings, quoted identifiers, comments,
	// dollar-quoted bodies and procedural blocks are recognized so that their
	// contents are never treated as boundaries, but the SQL itself is never
	// validated.
	Splitter struct {
		opts Options
	}
)

// New creates a Splitter with the given options.
//
// Example:
//
//	s := splitter.New(splitter.SQLServer())
//	for _, stmt := range s.Split(script) {
//		for i := 0; i < stmt.Repeat; i++ {
//			if _, err := db.ExecContext(ctx, stmt.SQL); err != nil {
//				return err
//			}
//		}
//	}
func New(opts Options) *Splitter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Splitter{opts: opts}
}

// Split splits text using the Default options.
func Split(text string) []Statement {
	return New(Default()).Split(text)
}

// Split returns the statements of text in order. Blank and comment-only
// segments produce no statements. Unterminated constructs at the end of the
// input are closed implicitly and reported as warnings on the statement (and
// through the configured logger).
func (s *Splitter) Split(text string) []Statement {
	sc := &scanner{opts: s.opts, src: text, line: 1, stmtLine: 1}
	sc.run()
	return sc.out
}

type frameKind int

const (
	declFrame frameKind = iota
	blockFrame
	caseFrame
)

type frame struct {
	kind    frameKind
	hasBody bool

	// literal is set when the routine body is a string literal
	// (AS 'select 1'), so the next terminator ends the declaration.
	literal bool
}

type scanner struct {
	opts Options
	src  string
	pos  int
	line int

	start         int
	stmtLine      int
	started       bool
	hasCode       bool
	words         int
	pendingCreate bool
	hadBlock      bool
	frames        []frame
	warnings      []string

	out []Statement
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		if s.opts.BatchSeparator != "" && s.atLineStart() && s.separator() {
			continue
		}

		c := s.src[s.pos]
		if c == '\n' {
			s.line++
			s.pos++
			continue
		}

		if isSpace(c) {
			s.pos++
			continue
		}

		s.mark()

		switch {
		case s.lineComment():
		case s.blockComment():
		case strings.IndexByte(s.opts.StringQuotes, c) >= 0:
			s.hasCode = true
			s.skipString(c, s.opts.BackslashEscapes)
		case s.quotedIdentifier():
			s.hasCode = true
		case s.opts.DollarQuotes && c == '$' && s.dollarString():
			s.hasCode = true
		case s.opts.Terminator != 0 && c == s.opts.Terminator:
			s.pos++
			if s.closesLiteralRoutine() {
				s.frames = nil
			}
			if len(s.frames) == 0 {
				s.terminate()
			}
		case isWordStart(c):
			s.word()
		default:
			s.hasCode = true
			s.pos++
		}
	}

	if len(s.frames) > 0 {
		s.warn(s.line, "unterminated procedural block closed at end of input")
	}
	s.emit(len(s.src), 1)
}

func (s *scanner) atLineStart() bool {
	return s.pos == 0 || s.src[s.pos-1] == '\n'
}

// separator consumes a batch separator line ("GO", "GO 5") at s.pos.
func (s *scanner) separator() bool {
	lineEnd, next := len(s.src), len(s.src)
	newline := strings.IndexByte(s.src[s.pos:], '\n')
	if newline >= 0 {
		lineEnd = s.pos + newline
		next = lineEnd + 1
	}

	text := s.src[s.pos:lineEnd]
	for _, tok := range s.opts.LineComments {
		if i := strings.Index(text, tok); i >= 0 {
			text = text[:i]
		}
	}

	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 || !strings.EqualFold(fields[0], s.opts.BatchSeparator) {
		return false
	}

	count := 1
	if len(fields) == 2 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return false
		}
		count = n
	}

	if len(s.frames) > 0 {
		s.warn(s.line, "batch separator inside an open procedural block")
	}

	s.emit(s.pos, count)
	s.pos = next
	if newline >= 0 {
		s.line++
	}
	s.reset(next)
	return true
}

func (s *scanner) lineComment() bool {
	for _, tok := range s.opts.LineComments {
		if !strings.HasPrefix(s.src[s.pos:], tok) {
			continue
		}

		// The newline is left for the main loop so line starts are still seen.
		if end := strings.IndexByte(s.src[s.pos:], '\n'); end >= 0 {
			s.pos += end
		} else {
			s.pos = len(s.src)
		}
		return true
	}

	return false
}

func (s *scanner) blockComment() bool {
	if !s.opts.BlockComments || !strings.HasPrefix(s.src[s.pos:], "/*") {
		return false
	}

	startLine := s.line
	depth := 0
	for s.pos < len(s.src) {
		switch {
		case strings.HasPrefix(s.src[s.pos:], "/*") && (depth == 0 || s.opts.NestedBlockComments):
			depth++
			s.pos += 2
		case strings.HasPrefix(s.src[s.pos:], "*/"):
			depth--
			s.pos += 2
			if depth == 0 {
				return true
			}
		default:
			if s.src[s.pos] == '\n' {
				s.line++
			}
			s.pos++
		}
	}

	s.warn(startLine, "unterminated block comment")
	return true
}

func (s *scanner) skipString(quote byte, backslash bool) {
	startLine := s.line
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case backslash && c == '\\':
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '\n' {
				s.line++
			}
			s.pos += 2
		case c == quote:
			s.pos++
			if s.pos < len(s.src) && s.src[s.pos] == quote {
				s.pos++
				continue
			}
			return
		default:
			if c == '\n' {
				s.line++
			}
			s.pos++
		}
	}

	s.pos = len(s.src)
	s.warn(startLine, "unterminated string literal")
}

func (s *scanner) quotedIdentifier() bool {
	for _, d := range s.opts.IdentifierQuotes {
		if !strings.HasPrefix(s.src[s.pos:], d.Open) {
			continue
		}

		startLine := s.line
		s.pos += len(d.Open)
		for s.pos < len(s.src) {
			if strings.HasPrefix(s.src[s.pos:], d.Close) {
				s.pos += len(d.Close)
				if strings.HasPrefix(s.src[s.pos:], d.Close) {
					s.pos += len(d.Close)
					continue
				}
				return true
			}

			if s.src[s.pos] == '\n' {
				s.line++
			}
			s.pos++
		}

		s.warn(startLine, "unterminated quoted identifier")
		return true
	}

	return false
}

func (s *scanner) dollarString() bool {
	tag := dollarTag.FindString(s.src[s.pos:])
	if tag == "" {
		return false
	}

	startLine := s.line
	body := s.pos + len(tag)
	end := strings.Index(s.src[body:], tag)
	if end < 0 {
		s.line += strings.Count(s.src[s.pos:], "\n")
		s.pos = len(s.src)
		s.warn(startLine, "unterminated dollar-quoted string")
		return true
	}

	stop := body + end + len(tag)
	s.line += strings.Count(s.src[s.pos:stop], "\n")
	s.pos = stop
	return true
}

func (s *scanner) word() {
	begin := s.pos
	for s.pos < len(s.src) && isWordChar(s.src[s.pos]) {
		s.pos++
	}

	w := s.src[begin:s.pos]
	first := s.words == 0
	s.words++
	s.hasCode = true

	if s.opts.EscapeStringPrefix && (w == "E" || w == "e") && s.pos < len(s.src) && s.src[s.pos] == '\'' {
		s.skipString('\'', true)
		return
	}

	if !s.opts.ProceduralBlocks || !s.boundary() {
		return
	}

	s.keyword(strings.ToUpper(w), first)
}

// keyword drives the procedural block frame stack.
func (s *scanner) keyword(kw string, first bool) {
	switch kw {
	case "CREATE":
		if first && s.createsRoutine() {
			s.pendingCreate = true
		}
	case "AS", "IS":
		if s.opts.DeclarationSections && s.pendingCreate && len(s.frames) == 0 {
			s.push(declFrame)
			s.top().literal = s.stringAt(s.skipTrivia(s.pos))
			s.pendingCreate = false
		}
	case "DECLARE":
		if !s.opts.DeclarationSections {
			return
		}
		top := s.top()
		if first || s.pendingCreate || (top != nil && (top.kind != declFrame || top.hasBody)) {
			s.push(declFrame)
			s.pendingCreate = false
		}
	case "PROCEDURE", "FUNCTION":
		if !s.opts.DeclarationSections {
			return
		}
		if top := s.top(); top != nil && top.kind == declFrame && !top.hasBody && s.declaresBody() {
			s.push(declFrame)
		}
	case "BEGIN":
		if s.beginsTransaction() {
			return
		}
		if top := s.top(); top != nil {
			if top.kind == declFrame && !top.hasBody {
				top.hasBody = true
			} else {
				s.push(blockFrame)
			}
			return
		}
		if first || s.pendingCreate {
			s.push(blockFrame)
			s.pendingCreate = false
		}
	case "CASE":
		if len(s.frames) > 0 {
			s.push(caseFrame)
		}
	case "END":
		next, end := s.wordAt(s.pos)
		switch next {
		case "IF", "LOOP", "WHILE", "REPEAT":
			// END IF and friends close control statements, not blocks.
			return
		case "CASE":
			s.pos = end
		}
		s.pop()
	}
}

// createsRoutine looks past CREATE [OR REPLACE] for a routine production.
func (s *scanner) createsRoutine() bool {
	pos := s.pos
	for range 4 {
		w, end := s.wordAt(pos)
		switch w {
		case "OR", "REPLACE", "EDITIONABLE", "NONEDITIONABLE", "TEMP", "TEMPORARY":
			pos = end
		case "PROCEDURE", "PROC", "FUNCTION", "PACKAGE", "TRIGGER":
			return true
		default:
			return false
		}
	}

	return false
}

func (s *scanner) beginsTransaction() bool {
	switch next, _ := s.wordAt(s.pos); next {
	case "TRANSACTION", "TRAN", "WORK", "DISTRIBUTED", "DEFERRED", "IMMEDIATE", "EXCLUSIVE":
		return true
	}

	p := s.skipTrivia(s.pos)
	return p >= len(s.src) || (s.opts.Terminator != 0 && s.src[p] == s.opts.Terminator)
}

// declaresBody reports whether an AS or IS keyword appears before the next
// terminator, i.e. the routine being declared carries a body.
func (s *scanner) declaresBody() bool {
	pos := s.pos
	for {
		pos = s.skipTrivia(pos)
		if pos >= len(s.src) {
			return false
		}

		c := s.src[pos]
		switch {
		case s.opts.Terminator != 0 && c == s.opts.Terminator:
			return false
		case strings.IndexByte(s.opts.StringQuotes, c) >= 0:
			if end := strings.IndexByte(s.src[pos+1:], c); end >= 0 {
				pos += end + 2
			} else {
				return false
			}
		case isWordStart(c):
			w, end := s.wordAt(pos)
			if w == "AS" || w == "IS" {
				return true
			}
			pos = end
		default:
			pos++
		}
	}
}

// wordAt returns the upper-cased word following any whitespace and comments
// at pos, and the offset just past it. An empty word means the next token is
// not a word.
func (s *scanner) wordAt(pos int) (string, int) {
	pos = s.skipTrivia(pos)
	if pos >= len(s.src) || !isWordStart(s.src[pos]) {
		return "", pos
	}

	end := pos
	for end < len(s.src) && isWordChar(s.src[end]) {
		end++
	}

	return strings.ToUpper(s.src[pos:end]), end
}

func (s *scanner) skipTrivia(pos int) int {
	for pos < len(s.src) {
		c := s.src[pos]
		if isSpace(c) || c == '\n' {
			pos++
			continue
		}

		rest := s.src[pos:]
		if s.opts.BlockComments && strings.HasPrefix(rest, "/*") {
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return len(s.src)
			}
			pos += end + 4
			continue
		}

		comment := false
		for _, tok := range s.opts.LineComments {
			if strings.HasPrefix(rest, tok) {
				comment = true
				break
			}
		}
		if !comment {
			return pos
		}

		end := strings.IndexByte(rest, '\n')
		if end < 0 {
			return len(s.src)
		}
		pos += end + 1
	}

	return pos
}

// boundary reports whether the word just read is followed by whitespace, a
// terminator, a comment or the end of input.
func (s *scanner) boundary() bool {
	if s.pos >= len(s.src) {
		return true
	}

	c := s.src[s.pos]
	if isSpace(c) || c == '\n' || (s.opts.Terminator != 0 && c == s.opts.Terminator) {
		return true
	}

	rest := s.src[s.pos:]
	if s.opts.BlockComments && strings.HasPrefix(rest, "/*") {
		return true
	}
	for _, tok := range s.opts.LineComments {
		if strings.HasPrefix(rest, tok) {
			return true
		}
	}

	return false
}

// stringAt reports whether a string literal starts at pos.
func (s *scanner) stringAt(pos int) bool {
	if pos >= len(s.src) {
		return false
	}

	c := s.src[pos]
	return strings.IndexByte(s.opts.StringQuotes, c) >= 0 || (s.opts.DollarQuotes && c == '$')
}

func (s *scanner) closesLiteralRoutine() bool {
	if len(s.frames) != 1 {
		return false
	}

	f := s.frames[0]
	return f.kind == declFrame && !f.hasBody && f.literal
}

func (s *scanner) push(kind frameKind) {
	s.frames = append(s.frames, frame{kind: kind, hasBody: kind != declFrame})
}

func (s *scanner) pop() {
	if len(s.frames) == 0 {
		return
	}

	s.frames = s.frames[:len(s.frames)-1]
	if len(s.frames) == 0 {
		s.hadBlock = true
	}
}

func (s *scanner) top() *frame {
	if len(s.frames) == 0 {
		return nil
	}

	return &s.frames[len(s.frames)-1]
}

func (s *scanner) mark() {
	if !s.started {
		s.started = true
		s.stmtLine = s.line
	}
}

// terminate ends the current statement at the terminator just consumed.
func (s *scanner) terminate() {
	end := s.pos - 1
	if s.hadBlock && s.opts.KeepBlockTerminator {
		end = s.pos
	}

	s.emit(end, 1)
	s.reset(s.pos)
}

func (s *scanner) emit(end, repeat int) {
	text := strings.TrimSpace(s.src[s.start:end])
	if !s.hasCode || text == "" {
		return
	}

	s.out = append(s.out, Statement{
		SQL:      text,
		Repeat:   repeat,
		Line:     s.stmtLine,
		Warnings: s.warnings,
	})
}

func (s *scanner) reset(pos int) {
	s.start = pos
	s.started = false
	s.hasCode = false
	s.words = 0
	s.pendingCreate = false
	s.hadBlock = false
	s.frames = nil
	s.warnings = nil
}

func (s *scanner) warn(line int, issue string) {
	s.warnings = append(s.warnings, fmt.Sprintf("line %d: %s", line, issue))
	s.opts.Logger.Warn("Structural ambiguity in SQL script", "line", line, "issue", issue)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9') || c == '$'
}
