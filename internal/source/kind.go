package source

import (
	"fmt"
	"strings"
)

// Kind classifies a source node.
type Kind int

const (
	Bytestream Kind = iota
	File
	Directory
	Container
	FileSet
	Clump
)

var kindNames = [...]string{
	Bytestream: "Bytestream",
	File:       "File",
	Directory:  "Directory",
	Container:  "Container",
	FileSet:    "FileSet",
	Clump:      "Clump",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if strings.EqualFold(name, string(text)) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown source kind %q", text)
}

// IsAggregate reports whether sources of this kind group other sources.
func (k Kind) IsAggregate() bool {
	switch k {
	case Directory, Container, FileSet, Clump:
		return true
	default:
		return false
	}
}

// HasContent reports whether sources of this kind have a byte range to read.
func (k Kind) HasContent() bool {
	return k == File || k == Bytestream
}
