package redis

import "strings"

const keyNamespace = "proc"

// IdempotencyKey is proc:idempotency:<scope>:<id>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey("idempotency", scope, id)
}

// LockKey is proc:lock:<env>:<name>.
func (c *Client) LockKey(env, name string) string {
	return joinKey("lock", env, name)
}

// joinKey prefixes the namespace and drops blank parts.
func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
