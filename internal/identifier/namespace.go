package identifier

import (
	"fmt"
	"strings"
)

// Namespace qualifies an identifier value with the authority that issued it.
type Namespace int

const (
	NamespaceUnknown Namespace = iota
	AES
	AFNOR
	AIIM
	ANSI
	Apple
	BSI
	CCITT
	CCSDS
	DDC
	DIN
	ECMA
	EXIF
	FDD
	GUID
	IANA
	IEC
	IETF
	IFLA
	INFO
	ISO
	ITU
	JEITA
	JHOVE
	JHOVE2
	LOC
	MIME
	NISO
	OCLC
	PUID
	RFC
	SMPTE
	TIFF
	TRADE
	UDFR
	URI
	URL
	URN
	UTI
	W3C
	XMP
)

var namespaceNames = [...]string{
	NamespaceUnknown: "UNKNOWN",
	AES:              "AES",
	AFNOR:            "AFNOR",
	AIIM:             "AIIM",
	ANSI:             "ANSI",
	Apple:            "APPLE",
	BSI:              "BSI",
	CCITT:            "CCITT",
	CCSDS:            "CCSDS",
	DDC:              "DDC",
	DIN:              "DIN",
	ECMA:             "ECMA",
	EXIF:             "EXIF",
	FDD:              "FDD",
	GUID:             "GUID",
	IANA:             "IANA",
	IEC:              "IEC",
	IETF:             "IETF",
	IFLA:             "IFLA",
	INFO:             "INFO",
	ISO:              "ISO",
	ITU:              "ITU",
	JEITA:            "JEITA",
	JHOVE:            "JHOVE",
	JHOVE2:           "JHOVE2",
	LOC:              "LOC",
	MIME:             "MIME",
	NISO:             "NISO",
	OCLC:             "OCLC",
	PUID:             "PUID",
	RFC:              "RFC",
	SMPTE:            "SMPTE",
	TIFF:             "TIFF",
	TRADE:            "TRADE",
	UDFR:             "UDFR",
	URI:              "URI",
	URL:              "URL",
	URN:              "URN",
	UTI:              "UTI",
	W3C:              "W3C",
	XMP:              "XMP",
}

func (n Namespace) String() string {
	if n < 0 || int(n) >= len(namespaceNames) {
		return fmt.Sprintf("Namespace(%d)", int(n))
	}
	return namespaceNames[n]
}

// Namespaces returns every known namespace except NamespaceUnknown, in
// declaration order.
func Namespaces() []Namespace {
	out := make([]Namespace, 0, len(namespaceNames)-1)
	for n := AES; int(n) < len(namespaceNames); n++ {
		out = append(out, n)
	}
	return out
}

// ParseNamespace resolves a namespace name case-insensitively.
func ParseNamespace(name string) (Namespace, error) {
	trimmed := strings.TrimSpace(name)
	for i, candidate := range namespaceNames {
		if i == int(NamespaceUnknown) {
			continue
		}
		if strings.EqualFold(candidate, trimmed) {
			return Namespace(i), nil
		}
	}
	return NamespaceUnknown, fmt.Errorf("unknown identifier namespace %q", name)
}
