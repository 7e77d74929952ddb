package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type jsonNode struct {
	Label    string  `json:"label"`
	Children []*Node `json:"children"`
}

// MarshalJSON encodes leaves as JSON strings and interior nodes as
// {"label": ..., "children": [...]}.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Terminal {
		return json.Marshal(n.Label)
	}
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	return json.Marshal(jsonNode{Label: n.Label, Children: children})
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Node{Label: s, Terminal: true}
		return nil
	}
	var v jsonNode
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding tree: %w", err)
	}
	*n = Node{Label: v.Label, Children: v.Children}
	return nil
}
