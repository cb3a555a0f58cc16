package statement

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	ofxOpen  = "<STMTTRN>"
	ofxClose = "</STMTTRN>"
)

// ParseOFX reads the <STMTTRN> blocks of an OFX statement. Both the SGML
// form (unterminated leaf tags) and the XML form are accepted. Tags are
// matched case-insensitively.
func (p *Parser) ParseOFX(r io.Reader, bankAccountID string) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ofx: %w", err)
	}

	blocks := ofxBlocks(string(data))
	if len(blocks) == 0 {
		return nil, ErrNoTransactions
	}

	result := &Result{}
	for i, block := range blocks {
		memo := ofxTag(block, "MEMO")
		if memo == "" {
			memo = ofxTag(block, "NAME")
		}
		raw := rawLine{
			row:    i + 1,
			date:   ofxTag(block, "DTPOSTED"),
			amount: ofxTag(block, "TRNAMT"),
			memo:   memo,
			ref:    ofxTag(block, "FITID"),
		}
		result.Lines = append(result.Lines, p.build(raw, bankAccountID, parseOFXDate, result))
	}
	return result, nil
}

// ofxBlocks splits doc into transaction blocks. A block ends at its closing
// tag, or at the next opening tag for SGML files that omit it.
func ofxBlocks(doc string) []string {
	upper := asciiUpper(doc)
	var blocks []string
	for pos := 0; ; {
		start := strings.Index(upper[pos:], ofxOpen)
		if start < 0 {
			return blocks
		}
		start += pos + len(ofxOpen)

		end := len(doc)
		if i := strings.Index(upper[start:], ofxClose); i >= 0 {
			end = start + i
		}
		if i := strings.Index(upper[start:end], ofxOpen); i >= 0 {
			end = start + i
		}
		blocks = append(blocks, doc[start:end])
		pos = end
	}
}

// ofxTag returns the trimmed text following <tag> up to the next tag or
// line break.
func ofxTag(block, tag string) string {
	open := "<" + tag + ">"
	i := strings.Index(asciiUpper(block), open)
	if i < 0 {
		return ""
	}
	value := block[i+len(open):]
	if j := strings.IndexAny(value, "<\r\n"); j >= 0 {
		value = value[:j]
	}
	return strings.TrimSpace(decodeEntities(value))
}

// parseOFXDate reads the leading YYYYMMDD of an OFX datetime such as
// "20251015120000.000[-3:BRT]".
func parseOFXDate(s string) (time.Time, error) {
	if len(s) < 8 {
		return time.Time{}, fmt.Errorf("invalid DTPOSTED %q", s)
	}
	t, err := time.Parse("20060102", s[:8])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid DTPOSTED %q", s)
	}
	return t, nil
}

var entityReplacer = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityReplacer.Replace(s)
}

// asciiUpper upper-cases ASCII letters only, so byte offsets into the
// result are valid offsets into s.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
