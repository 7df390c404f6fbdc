package irsim

// MarkMerged flags n as part of a merged transistor stack.
func MarkMerged(n *Node) { n.flags |= Merged }
