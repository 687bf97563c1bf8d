package route

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrEmptyRoute is returned when an upload contains no station lines.
var ErrEmptyRoute = errors.New("route contains no stations")

// Route is an ordered list of station names for one trip. It is built once
// by Parse and never mutated afterwards.
type Route struct {
	Name     string
	Stations []string
}

// First returns the origin station.
func (r Route) First() string { return r.Stations[0] }

// Last returns the terminus.
func (r Route) Last() string { return r.Stations[len(r.Stations)-1] }

func (r Route) Len() int { return len(r.Stations) }

type decoder struct {
	name string
	dec  *encoding.Decoder
}

// decoders are tried in order. UTF-8 is attempted strictly first; Latin-1
// maps every byte to a rune and therefore cannot fail, so it terminates
// the chain.
var decoders = []decoder{
	{name: "utf-8", dec: nil},
	{name: "latin-1", dec: charmap.ISO8859_1.NewDecoder()},
}

// Parse turns raw uploaded bytes into a Route. Station names are taken
// verbatim per line, surrounding whitespace trimmed and blank lines
// dropped. Duplicates are allowed.
func Parse(raw []byte, name string) (Route, error) {
	text, err := decode(raw)
	if err != nil {
		return Route{}, err
	}

	// Uploads can carry \r\n or bare \r line endings.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var stations []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			stations = append(stations, s)
		}
	}
	if len(stations) == 0 {
		return Route{}, ErrEmptyRoute
	}
	return Route{Name: name, Stations: stations}, nil
}

func decode(raw []byte) (string, error) {
	for _, d := range decoders {
		if d.dec == nil {
			if utf8.Valid(raw) {
				return string(raw), nil
			}
			continue
		}
		decoded, err := d.dec.Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decode route as %s: %w", d.name, err)
		}
		return string(decoded), nil
	}
	// Unreachable while latin-1 ends the chain.
	return "", errors.New("no decoder accepted route data")
}

// DisplayName derives a route display name from an uploaded filename,
// mirroring how the operator UI labels a loaded list.
func DisplayName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
