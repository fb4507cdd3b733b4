package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
)

var segmentRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Arity returns the number of name segments of a resource kind.
func Arity(label models.ObjectLabel) int {
	switch label {
	case models.LabelSchema:
		return 2
	case models.LabelTable, models.LabelVolume:
		return 3
	case models.LabelColumn:
		return 4
	}
	return 1
}

// ValidSegment reports whether s can be used as a name segment.
func ValidSegment(s string) bool {
	return segmentRegex.MatchString(s)
}

// ValidateName checks the arity and segment format of a name for label.
// Recipient tokens are named by digests and only need a single segment.
func ValidateName(label models.ObjectLabel, name []string) error {
	if want := Arity(label); len(name) != want {
		return ErrInvalidName.Msg(string(label) + " name must have " + strconv.Itoa(want) + " part(s), got '" + strings.Join(name, ".") + "'")
	}
	for _, seg := range name {
		if !ValidSegment(seg) {
			return ErrInvalidName.Msg("invalid name segment '" + seg + "' in " + string(label) + " name")
		}
	}
	return nil
}

// FullName composes the dotted full name of a resource.
func FullName(segments ...string) string {
	return strings.Join(segments, ".")
}

// SplitFullName splits a dotted full name and checks it has the arity of label.
func SplitFullName(label models.ObjectLabel, fullName string) ([]string, error) {
	name := strings.Split(fullName, ".")
	if err := ValidateName(label, name); err != nil {
		return nil, err
	}
	return name, nil
}

// ChildPrefix returns the namespace under which children of parent are named.
// Listing schemas of catalog "c" uses ["c"]; listing tables of "c.s" uses ["c", "s"].
func ChildPrefix(child models.ObjectLabel, parent []string) ([]string, error) {
	if want := Arity(child) - 1; len(parent) != want {
		return nil, ErrInvalidName.Msg(string(child) + " namespace must have " + strconv.Itoa(want) + " part(s)")
	}
	for _, seg := range parent {
		if !ValidSegment(seg) {
			return nil, ErrInvalidName.Msg("invalid name segment '" + seg + "'")
		}
	}
	return append([]string(nil), parent...), nil
}
