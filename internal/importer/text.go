// Package importer reads and writes library files.
package importer

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/verte-zerg/dictype/internal/model"
)

// detectLines is how many leading lines DetectText inspects.
const detectLines = 20

var (
	englishLead   = regexp.MustCompile(`^[^\w\s]*`)
	englishTrail  = regexp.MustCompile(`[^\w\s.,!?'"-]*$`)
	chineseLead   = regexp.MustCompile(`^[^\p{Han}\w\s]*`)
	chineseTrail  = regexp.MustCompile(`[^\p{Han}\w\s.,!?，。！？]*$`)
	spaces        = regexp.MustCompile(`\s+`)
	dedupeStrip   = regexp.MustCompile(`[.?!]`)
	hanCharacters = regexp.MustCompile(`\p{Han}`)
)

// isEnglishLine matches lines that start with an ASCII letter and are long
// enough to be a phrase.
func isEnglishLine(line string) bool {
	if len(line) <= 3 {
		return false
	}
	ch := line[0]
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// hasHan matches lines containing at least one Chinese character.
func hasHan(line string) bool {
	return hanCharacters.MatchString(line)
}

func cleanEnglish(s string) string {
	s = strings.TrimSpace(s)
	s = englishLead.ReplaceAllString(s, "")
	s = englishTrail.ReplaceAllString(s, "")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

func cleanChinese(s string) string {
	s = strings.TrimSpace(s)
	s = chineseLead.ReplaceAllString(s, "")
	s = chineseTrail.ReplaceAllString(s, "")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// readLines returns the trimmed non-empty lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// DetectText reports whether content looks like bilingual English/Chinese text.
func DetectText(content string) bool {
	lines, err := readLines(strings.NewReader(content))
	if err != nil || len(lines) < 2 {
		return false
	}
	if len(lines) > detectLines {
		lines = lines[:detectLines]
	}
	hasEnglish, hasChinese := false, false
	for _, line := range lines {
		hasEnglish = hasEnglish || isEnglishLine(line)
		hasChinese = hasChinese || hasHan(line)
	}
	return hasEnglish && hasChinese
}

// ParseText extracts English/Chinese pairs from content. An English line may
// be followed by its Chinese translation directly, by a repeat and then the
// translation, or by a repeat, the translation and another repeat. Entries
// whose English differs only in case or final punctuation are kept once.
func ParseText(content, name string) model.Library {
	lines, _ := readLines(strings.NewReader(content))
	now := time.Now()
	lib := model.Library{ID: uuid.NewString(), Name: name, CreatedAt: now, Items: []model.Item{}}
	seen := map[string]struct{}{}

	add := func(englishLine, chineseLine string) bool {
		english := cleanEnglish(englishLine)
		chinese := cleanChinese(chineseLine)
		if len(english) <= 2 || chinese == "" {
			return false
		}
		key := dedupeStrip.ReplaceAllString(strings.ToLower(english), "")
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			lib.Items = append(lib.Items, model.Item{
				ID:        uuid.NewString(),
				English:   english,
				Chinese:   chinese,
				Type:      ClassifyType(english),
				CreatedAt: now,
			})
		}
		return true
	}

	for i := 0; i < len(lines); {
		line := lines[i]
		if !isEnglishLine(line) {
			i++
			continue
		}
		switch {
		case i+3 < len(lines) && lines[i+1] == line && lines[i+3] == line && hasHan(lines[i+2]) && add(line, lines[i+2]):
			i += 4
		case i+2 < len(lines) && lines[i+1] == line && hasHan(lines[i+2]) && add(line, lines[i+2]):
			i += 3
		case i+1 < len(lines) && hasHan(lines[i+1]) && add(line, lines[i+1]):
			i += 2
		default:
			i++
		}
	}
	return lib
}

// ClassifyType treats a single token without spaces as a word and anything
// longer as a sentence.
func ClassifyType(english string) model.ItemType {
	trimmed := strings.TrimFunc(english, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	if trimmed != "" && !strings.ContainsFunc(trimmed, unicode.IsSpace) {
		return model.ItemWord
	}
	return model.ItemSentence
}
