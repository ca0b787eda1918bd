package jsontree

import (
	"fmt"
	"io"
	"strings"
)

// EncodeInfo writes the tree in the line-oriented hierarchical format shared
// with configuration files: one "key value" pair per line, children wrapped
// in braces, array items written with an empty key. The next pipeline stage
// parses this without a JSON decoder.
func (n *Node) EncodeInfo(w io.Writer) error {
	return encodeInfoChildren(w, n, 0)
}

func encodeInfoChildren(w io.Writer, n *Node, depth int) error {
	switch n.kind {
	case KindObject:
		for _, key := range n.keys {
			if err := encodeInfoEntry(w, key, n.fields[key], depth); err != nil {
				return err
			}
		}
	case KindArray:
		for _, item := range n.items {
			if err := encodeInfoEntry(w, "", item, depth); err != nil {
				return err
			}
		}
	case KindScalar:
		// A bare scalar only appears at the root of a degenerate tree.
		if _, err := fmt.Fprintf(w, "%s\n", quoteInfo(n.value)); err != nil {
			return err
		}
	}
	return nil
}

func encodeInfoEntry(w io.Writer, key string, child *Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	if value, ok := child.Scalar(); ok {
		_, err := fmt.Fprintf(w, "%s%s %s\n", indent, quoteInfo(key), quoteInfo(value))
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s\n%s{\n", indent, quoteInfo(key), indent); err != nil {
		return err
	}
	if err := encodeInfoChildren(w, child, depth+1); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s}\n", indent)
	return err
}

// quoteInfo quotes keys and values that would break the line format.
func quoteInfo(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"{}") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
