package core

import "fmt"

// ClassKey identifies a single classroom topic: a school year plus a class name.
// It is a value type; equality is by value, which makes it usable as a map key.
type ClassKey struct {
	Year  int    `json:"year"`
	Class string `json:"class"`
}

func (k ClassKey) String() string {
	return fmt.Sprintf("%d/%s", k.Year, k.Class)
}

func (k ClassKey) IsZero() bool {
	return k.Year == 0 && k.Class == ""
}
