// Package audit provides audit logging for VoteMe operations.
//
// Every security-relevant operation emits one RFC5424 record:
//
//   - Registration (success/failure, with the assigned role)
//   - Login (success/failure)
//   - Voting creation
//   - Vote casts
//
// # Usage
//
//	audit.Log(audit.LoginEvent{
//	    Request:  audit.Request{CallerID: id}.FromContext(ctx),
//	    Username: "alice",
//	    Success:  true,
//	})
//
// Records go to stdout and, when AUDIT_DATABASE_URL is set, to the
// messages table. VOTEME_AUDIT_ENABLED=false turns auditing off.
package audit
