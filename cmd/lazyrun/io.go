package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/kbukum/lazylists/errors"
	"github.com/kbukum/lazylists/pipeline"
)

// decodeJSON decodes one JSON value, keeping integers as int.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return normalize(v), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	default:
		return v
	}
}

func decodeArgs(args []string) ([]any, error) {
	inputs := make([]any, len(args))
	for i, arg := range args {
		v, err := decodeJSON([]byte(arg))
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("args[%d]", i), err.Error())
		}
		inputs[i] = v
	}
	return inputs, nil
}

// lineSource reads one JSON value per non-blank line. Lines are only read
// while the pipeline keeps accepting.
func lineSource(r io.Reader) pipeline.Iterator {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	return pipeline.FromFunc(func(ctx context.Context) (any, bool, error) {
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			v, err := decodeJSON([]byte(text))
			if err != nil {
				return nil, false, errors.InvalidInput(fmt.Sprintf("line %d", line), err.Error())
			}
			return v, true, nil
		}
		if err := sc.Err(); err != nil {
			return nil, false, errors.Internal(err)
		}
		return nil, false, nil
	})
}

// encodable converts aggregate results JSON cannot encode directly:
// sets become sorted arrays and maps with non-string keys get string keys.
func encodable(v any) any {
	switch t := v.(type) {
	case map[any]struct{}:
		out := make([]any, 0, len(t))
		for k := range t {
			out = append(out, encodable(k))
		}
		slices.SortFunc(out, pipeline.Natural)
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = encodable(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = encodable(val)
		}
		return out
	case map[string][]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = encodable(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = encodable(val)
		}
		return out
	default:
		return v
	}
}

func writeResult(w io.Writer, result any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(encodable(result)); err != nil {
		return errors.InvalidInput("result", err.Error())
	}
	return nil
}
