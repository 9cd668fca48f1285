// Package token issues and verifies VoteMe bearer tokens.
//
// A token is two hex strings joined by a dot:
//
//	hex(json(payload)) + "." + hex(signature)
//
// The payload carries username, user_id, expires_at (unix nanoseconds) and
// rank. The signature is made by the signing oracle, using the key at the
// identity's derivation path, over SHA-256 of the hex payload string.
//
// # Basic Usage
//
//	svc := token.NewService(oracle, registry, token.Config{AppName: "VoteMe", TTL: 10 * time.Minute})
//	tok, err := svc.Issue(ctx, "alice", callerID, model.RoleAdmin)
//
//	payload, err := svc.Verify(ctx, tok)
//	if errors.Is(err, token.ErrInvalidToken) {
//	    // reject the request
//	}
package token
