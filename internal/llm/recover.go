package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
)

// Strategy names how a JSON candidate was located in a model response.
type Strategy string

const (
	StrategyFenced       Strategy = "fenced"
	StrategyGreedyBraces Strategy = "greedy_braces"
)

// reFenced matches ```json { ... } ``` with a lazy object span; dot matches newlines.
var reFenced = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

type locator struct {
	strategy Strategy
	find     func(string) (string, bool)
}

// locators run in order; the first match wins.
var locators = []locator{
	{strategy: StrategyFenced, find: findFenced},
	{strategy: StrategyGreedyBraces, find: findBraceSpan},
}

func findFenced(s string) (string, bool) {
	m := reFenced.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// findBraceSpan takes everything from the first '{' to the last '}'.
// Braces inside strings or several objects can defeat it; that is accepted.
func findBraceSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// LocateJSON finds the JSON candidate in a model response: a fenced block
// first, then the greedy brace span. It fails with common.ErrNoJSONFound.
func LocateJSON(response string) (string, Strategy, error) {
	for _, l := range locators {
		if candidate, ok := l.find(response); ok {
			return candidate, l.strategy, nil
		}
	}
	return "", "", common.NewAppError(common.CodeNoJSONFound, "could not find a JSON object in the model response", nil)
}

// Recovery is a located and decoded JSON object.
type Recovery struct {
	Fields    map[string]any
	Candidate string
	Strategy  Strategy
}

// RecoverJSON locates and decodes the JSON object in a model response.
// Numbers are kept as json.Number so their literal text survives.
func RecoverJSON(response string) (Recovery, error) {
	candidate, strategy, err := LocateJSON(response)
	if err != nil {
		return Recovery{}, err
	}
	fields, err := decodeObject(candidate)
	if err != nil {
		return Recovery{}, common.NewJSONParseError(candidate, err)
	}
	return Recovery{Fields: fields, Candidate: candidate, Strategy: strategy}, nil
}

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("json value is not an object")
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("unexpected data after JSON object")
		}
		return nil, fmt.Errorf("unexpected data after JSON object: %w", err)
	}
	return m, nil
}

// PlainJSON converts json.Number values (recursively) to float64 so the
// mapping can be handed to encoders that only know plain JSON types.
func PlainJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = PlainJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = PlainJSON(val)
		}
		return out
	default:
		return v
	}
}
