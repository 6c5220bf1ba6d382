package parser

import (
	"strings"
)

// tokenLine is a normalized stackup line.
type tokenLine struct {
	num    int
	tokens []string
}

type stackupState byte

const (
	accumulating stackupState = iota
	sentinelLookahead
)

// ParseStackup regroups the flat key/value lines of a physical stackup
// export into one record per layer.
//
// A line starting with a sentinel keyword opens a new record. Every other
// line contributes key/value pairs to the current record. The record is
// complete when the next line is a sentinel line or the input ends.
func (p *Parser) ParseStackup(text string) ([]StackupRecord, error) {
	lines, err := p.tokenizeStackup(text)
	if err != nil {
		return nil, err
	}

	var records []StackupRecord
	acc := newAccumulator()
	state := accumulating

	for i := 0; i < len(lines); {
		switch state {
		case accumulating:
			line := lines[i]
			if p.isSentinel(line.tokens[0]) {
				if acc.labeled && acc.empty() {
					return nil, newError(opParseStackup, acc.labelLine, ErrMalformedRecord,
						"attributes for "+line.tokens[0]+" "+acc.label, strings.Join(line.tokens, " "))
				}
				acc.label = strings.Join(line.tokens[1:], " ")
				acc.labelLine = line.num
				acc.labeled = true
				i++
				continue
			}
			if len(line.tokens)%2 != 0 {
				return nil, newError(opParseStackup, line.num, ErrMalformedRecord,
					"even number of key/value tokens", strings.Join(line.tokens, " "))
			}
			if err := acc.merge(line); err != nil {
				return nil, err
			}
			state = sentinelLookahead

		case sentinelLookahead:
			next := i + 1
			if next < len(lines) && p.isSentinel(lines[next].tokens[0]) {
				records = append(records, acc.flush())
			}
			i = next
			state = accumulating
		}
	}

	// A trailing sentinel with no attributes leaves nothing to flush.
	if !acc.empty() {
		records = append(records, acc.flush())
	}

	if len(records) == 0 {
		end := 0
		if n := len(lines); n > 0 {
			end = lines[n-1].num + 1
		}
		return nil, newError(opParseStackup, end, ErrUnexpectedEOF, "at least one stackup record", "")
	}
	return records, nil
}

// tokenizeStackup normalizes every line and drops lines without tokens.
func (p *Parser) tokenizeStackup(text string) ([]tokenLine, error) {
	raw := strings.Split(text, "\n")
	lines := make([]tokenLine, 0, len(raw))
	for num, r := range raw {
		r = strings.TrimRight(r, "\r")
		r = strings.TrimPrefix(r, p.stackupIndent)
		tokens, ok := splitTokens(r)
		if !ok {
			return nil, newError(opParseStackup, num, ErrMalformedRecord, "closing quote", r)
		}
		if len(tokens) == 0 {
			continue
		}
		lines = append(lines, tokenLine{num: num, tokens: tokens})
	}
	return lines, nil
}

// splitTokens splits s on runs of spaces and tabs. Double quotes group a
// token and are removed, so `"35 um"` yields one token and `""` an empty one.
// It returns false when a quote is left open.
func splitTokens(s string) ([]string, bool) {
	var (
		tokens  []string
		cur     strings.Builder
		inToken bool
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			inToken = true
		case !inQuote && (c == ' ' || c == '\t'):
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteByte(c)
			inToken = true
		}
	}
	if inQuote {
		return nil, false
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens, true
}

// FormatStackup writes records back in the flat stackup format that
// ParseStackup reads. A sentinel line precedes every record after the first,
// and the first one too when it has a label.
func (p *Parser) FormatStackup(records []StackupRecord) string {
	var b strings.Builder
	for i, rec := range records {
		if i > 0 || rec.Label != "" {
			b.WriteString(p.stackupIndent)
			b.WriteString(p.sentinels[0])
			if rec.Label != "" {
				b.WriteByte(' ')
				b.WriteString(QuoteToken(rec.Label))
			}
			b.WriteByte('\n')
		}
		pairs := rec.Pairs()
		if len(pairs) == 0 {
			continue
		}
		b.WriteString(p.stackupIndent)
		for j, pair := range pairs {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(QuoteToken(pair.Key))
			b.WriteByte(' ')
			b.WriteString(QuoteToken(pair.Value))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// QuoteToken quotes s when it would not survive tokenizing as one token.
func QuoteToken(s string) string {
	if s == "" || strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
