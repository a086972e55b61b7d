package scope

import "context"

type ctxKey struct{}

// ContextWith returns a copy of ctx carrying n.
func ContextWith(ctx context.Context, n *Node) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the node carried by ctx, or nil.
func FromContext(ctx context.Context) *Node {
	if ctx == nil {
		return nil
	}
	n, _ := ctx.Value(ctxKey{}).(*Node)
	return n
}
