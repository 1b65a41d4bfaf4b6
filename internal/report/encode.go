package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"jhove2/internal/fault"
)

// Format names a report encoding.
type Format string

const (
	Auto Format = "auto"
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
	CBOR Format = "cbor"
)

// Formats lists the concrete encodings.
func Formats() []Format { return []Format{Text, JSON, YAML, CBOR} }

// ParseFormat accepts a format name case-insensitively. "auto" is returned
// as Auto for the caller to resolve.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case Auto, Text, JSON, YAML, CBOR:
		return f, nil
	case "":
		return Auto, nil
	default:
		return "", fault.Wrap(fault.ErrConfiguration, "report", "parse format",
			fmt.Sprintf("unknown report format %q", value), nil)
	}
}

// Resolve replaces Auto with Text for terminals and JSON otherwise.
func (f Format) Resolve(terminal bool) Format {
	if f != Auto {
		return f
	}
	if terminal {
		return Text
	}
	return JSON
}

// Binary reports whether the encoding should not be written to a terminal.
func (f Format) Binary() bool { return f == CBOR }

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	cborEnc, err = opts.EncMode()
	if err != nil {
		panic("report: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("report: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode writes r to w in format f.
func Encode(w io.Writer, f Format, r Report) error {
	switch f {
	case Text:
		return WriteText(w, r, TextOptions{ShowIdentifications: true})
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case CBOR:
		data, err := MarshalCBOR(r)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fault.Wrap(fault.ErrConfiguration, "report", "encode",
			fmt.Sprintf("cannot encode format %q", f), nil)
	}
}

// MarshalCBOR encodes r with core deterministic encoding, so equal reports
// produce identical bytes.
func MarshalCBOR(r Report) ([]byte, error) {
	return cborEnc.Marshal(r)
}

// UnmarshalCBOR decodes a report produced by MarshalCBOR.
func UnmarshalCBOR(data []byte) (Report, error) {
	var r Report
	if err := cborDec.Unmarshal(data, &r); err != nil {
		return Report{}, fault.Wrap(fault.ErrValidation, "report", "decode", "malformed CBOR report", err)
	}
	return r, nil
}

// Decode reads a JSON, YAML, or CBOR report.
func Decode(data []byte, f Format) (Report, error) {
	var r Report
	switch f {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&r); err != nil {
			return Report{}, fault.Wrap(fault.ErrValidation, "report", "decode", "malformed JSON report", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &r); err != nil {
			return Report{}, fault.Wrap(fault.ErrValidation, "report", "decode", "malformed YAML report", err)
		}
	case CBOR:
		return UnmarshalCBOR(data)
	default:
		return Report{}, fault.Wrap(fault.ErrConfiguration, "report", "decode",
			fmt.Sprintf("cannot decode format %q", f), nil)
	}
	return r, nil
}
