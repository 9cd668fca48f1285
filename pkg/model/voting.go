package model

// Voting is a named yes/no poll. Voted lists usernames in the order their
// votes were cast and may contain the same username more than once.
type Voting struct {
	Description string   `json:"description"`
	Pro         uint64   `json:"pro"`
	Cons        uint64   `json:"cons"`
	Voted       []string `json:"voted"`
}

// NewVoting returns an empty voting with the given description.
func NewVoting(description string) Voting {
	return Voting{Description: description, Voted: []string{}}
}

// Clone returns a copy that shares no memory with v.
func (v Voting) Clone() Voting {
	voted := make([]string, len(v.Voted))
	copy(voted, v.Voted)
	v.Voted = voted
	return v
}

// Apply tallies a single vote by username.
func (v *Voting) Apply(choice Choice, username string) {
	switch choice {
	case ChoicePro:
		v.Pro++
	case ChoiceCons:
		v.Cons++
	}
	v.Voted = append(v.Voted, username)
}

// VotingRow maps a voting onto the votings table.
type VotingRow struct {
	Name        string `gorm:"column:name;primaryKey"`
	Description string `gorm:"column:description"`
	Pro         uint64 `gorm:"column:pro"`
	Cons        uint64 `gorm:"column:cons"`
}

func (VotingRow) TableName() string {
	return "votings"
}

// VoterRow is one entry of a voting's voted list.
type VoterRow struct {
	ID         int64  `gorm:"column:id;primaryKey"`
	VotingName string `gorm:"column:voting_name"`
	Username   string `gorm:"column:username"`
}

func (VoterRow) TableName() string {
	return "voting_voters"
}
