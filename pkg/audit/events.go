package audit

import "fmt"

// RegisterEvent records an identity registration.
type RegisterEvent struct {
	Request
	Username     string
	Role         string
	Success      bool
	ErrorMessage string
}

func (e RegisterEvent) MessageID() string {
	return "register"
}

func (e RegisterEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s registered as %s", e.Username, e.Role)
	}
	msg := fmt.Sprintf("failed to register %s", e.Username)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e RegisterEvent) Severity() Severity {
	return severity(e.Success)
}

func (e RegisterEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RegisterEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDAction: {
			"operation": "register",
			"result":    result(e.Success),
		},
	}
	if e.Role != "" {
		sd[SDIDAuth]["role"] = e.Role
	}
	e.Request.addTo(sd)
	return sd
}

// LoginEvent records a login.
type LoginEvent struct {
	Request
	Username     string
	Success      bool
	ErrorMessage string
}

func (e LoginEvent) MessageID() string {
	return "login"
}

func (e LoginEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully logged in", e.Username)
	}
	msg := fmt.Sprintf("%s failed to log in", e.Username)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e LoginEvent) Severity() Severity {
	return severity(e.Success)
}

func (e LoginEvent) Facility() int {
	return FacilityAuthPriv
}

func (e LoginEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDAction: {
			"operation": "login",
			"result":    result(e.Success),
		},
	}
	e.Request.addTo(sd)
	return sd
}

// VotingCreateEvent records the creation or replacement of a voting.
type VotingCreateEvent struct {
	Request
	Username     string
	Voting       string
	Success      bool
	ErrorMessage string
}

func (e VotingCreateEvent) MessageID() string {
	return "voting-create"
}

func (e VotingCreateEvent) Message() string {
	user := e.Username
	if user == "" {
		user = "unknown user"
	}
	if e.Success {
		return fmt.Sprintf("%s created voting %s", user, e.Voting)
	}
	msg := fmt.Sprintf("%s tried to create voting %s", user, e.Voting)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e VotingCreateEvent) Severity() Severity {
	return severity(e.Success)
}

func (e VotingCreateEvent) Facility() int {
	return FacilityAuth
}

func (e VotingCreateEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDSubject: {
			"voting": e.Voting,
		},
		SDIDAction: {
			"operation": "create",
			"result":    result(e.Success),
		},
	}
	if e.Username != "" {
		sd[SDIDAuth] = map[string]string{"user": e.Username}
	}
	e.Request.addTo(sd)
	return sd
}

// VoteEvent records a vote cast.
type VoteEvent struct {
	Request
	Username     string
	Voting       string
	Choice       string
	Success      bool
	ErrorMessage string
}

func (e VoteEvent) MessageID() string {
	return "vote"
}

func (e VoteEvent) Message() string {
	user := e.Username
	if user == "" {
		user = "unknown user"
	}
	if e.Success {
		return fmt.Sprintf("%s voted %s on %s", user, e.Choice, e.Voting)
	}
	msg := fmt.Sprintf("%s tried to vote %s on %s", user, e.Choice, e.Voting)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e VoteEvent) Severity() Severity {
	return severity(e.Success)
}

func (e VoteEvent) Facility() int {
	return FacilityAuth
}

func (e VoteEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDSubject: {
			"voting": e.Voting,
			"choice": e.Choice,
		},
		SDIDAction: {
			"operation": "vote",
			"result":    result(e.Success),
		},
	}
	if e.Username != "" {
		sd[SDIDAuth] = map[string]string{"user": e.Username}
	}
	e.Request.addTo(sd)
	return sd
}
