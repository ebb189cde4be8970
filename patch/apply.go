package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

var (
	tokenEncoder = strings.NewReplacer("~", "~0", "/", "~1")
	tokenDecoder = strings.NewReplacer("~1", "/", "~0", "~")
)

// Apply returns a copy of current with ops applied. Replacing a missing value
// adds it and removing a missing value does nothing.
func Apply[T any](current T, ops []Operation) (T, error) {
	var zero T
	if len(ops) == 0 {
		return current, nil
	}
	doc, err := sonic.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("failed to encode document: %w", err)
	}
	raw, err := sonic.Marshal(normalize(doc, ops))
	if err != nil {
		return zero, fmt.Errorf("failed to encode patch: %w", err)
	}
	p, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return zero, fmt.Errorf("failed to decode patch: %w", err)
	}
	opts := jsonpatch.NewApplyOptions()
	opts.EnsurePathExistsOnAdd = true
	patched, err := p.ApplyWithOptions(doc, opts)
	if err != nil {
		return zero, fmt.Errorf("failed to apply patch: %w", err)
	}
	var result T
	if err := sonic.Unmarshal(patched, &result); err != nil {
		return zero, fmt.Errorf("patched document does not fit %T: %w", zero, err)
	}
	return result, nil
}

func normalize(doc []byte, ops []Operation) []Operation {
	var tree any
	if err := sonic.Unmarshal(doc, &tree); err != nil {
		return ops
	}
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		_, found := resolve(tree, op.Path)
		if !found {
			if op.Op == OperationRemove {
				continue
			}
			if op.Op == OperationReplace {
				op.Op = OperationAdd
			}
		}
		out = append(out, op)
	}
	return out
}

// resolve follows a JSON pointer through a decoded document. Null counts as missing.
func resolve(tree any, pointer string) (any, bool) {
	tokens, ok := splitPointer(pointer)
	if !ok {
		return nil, false
	}
	node := tree
	for _, tok := range tokens {
		switch v := node.(type) {
		case map[string]any:
			node = v[tok]
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			node = v[i]
		default:
			return nil, false
		}
		if node == nil {
			return nil, false
		}
	}
	return node, true
}

func splitPointer(pointer string) ([]string, bool) {
	if pointer == "" {
		return nil, true
	}
	if pointer[0] != '/' {
		return nil, false
	}
	tokens := strings.Split(pointer[1:], "/")
	for i, tok := range tokens {
		tokens[i] = tokenDecoder.Replace(tok)
	}
	return tokens, true
}

func escapeToken(token string) string {
	return tokenEncoder.Replace(token)
}
