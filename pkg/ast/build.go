package ast

// Attrs is shorthand for an attribute map.
type Attrs map[string]string

// NewExpr creates an expression node. A nil attrs map is replaced with an
// empty one.
func NewExpr(name, nodeType string, attrs Attrs, children ...Element) *ASTNode {
	return &ASTNode{Node: *NewNode(name, nodeType, attrs, children...)}
}

// NewNode creates a structural node.
func NewNode(name, nodeType string, attrs Attrs, children ...Element) *Node {
	if attrs == nil {
		attrs = Attrs{}
	}
	return &Node{
		Name:       name,
		NodeType:   nodeType,
		Attributes: map[string]string(attrs),
		Children:   children,
	}
}
