package model

//go:generate go run github.com/dmarkham/enumer -type Choice -trimprefix Choice -json -text -output choice.gen.go

// Choice is the side a vote is cast for.
type Choice int

const (
	ChoicePro Choice = iota
	ChoiceCons
)
