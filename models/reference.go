package models

import "fmt"

// Reference is a parsed scripture reference such as "Luke 2:1-20".
// Chapter and verse numbers are kept as the digit strings found in the label.
type Reference struct {
	Book    string `json:"book" yaml:"book"`
	Chapter string `json:"chapter" yaml:"chapter"`
	From    string `json:"from" yaml:"from"`
	// To is empty when the reference names a single verse.
	To string `json:"to" yaml:"to"`
}

// IsRange reports whether the reference carries an upper verse bound.
func (r Reference) IsRange() bool {
	return r.To != ""
}

func (r Reference) String() string {
	if r.IsRange() {
		return fmt.Sprintf("%s %s:%s-%s", r.Book, r.Chapter, r.From, r.To)
	}
	return fmt.Sprintf("%s %s:%s", r.Book, r.Chapter, r.From)
}
