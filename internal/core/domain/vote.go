package domain

// VoteKind is the kind of vote a user holds on an item. The zero value
// means "no vote".
type VoteKind string

const (
	VoteNone    VoteKind = ""
	VoteLike    VoteKind = "like"
	VoteDislike VoteKind = "dislike"
)

func (k VoteKind) Valid() bool {
	return k == VoteLike || k == VoteDislike
}
