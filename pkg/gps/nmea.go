// Package gps parses NMEA 0183 output of a GPS receiver attached to a raw
// link.
package gps

import (
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Errors returned when a sentence is rejected.
var (
	ErrNoStart          = errors.New("nmea: missing '$'")
	ErrNoChecksum       = errors.New("nmea: missing checksum")
	ErrBadChecksum      = errors.New("nmea: bad checksum")
	ErrChecksumMismatch = errors.New("nmea: checksum mismatch")
	ErrShortType        = errors.New("nmea: short type")
)

// MaxSentence is the longest line the Parser buffers.
const MaxSentence = 96

type sentence struct {
	Type string
	// Fields is the comma-split payload (excluding $ and checksum).
	Fields []string
}

func parseSentence(line string) (sentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return sentence{}, ErrNoStart
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return sentence{}, ErrNoChecksum
	}
	payload := line[1:star]
	ck := strings.TrimSpace(line[star+1:])
	if len(ck) < 2 {
		return sentence{}, ErrBadChecksum
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return sentence{}, ErrBadChecksum
	}
	var got byte
	for i := 0; i < len(payload); i++ {
		got ^= payload[i]
	}
	if got != want[0] {
		return sentence{}, ErrChecksumMismatch
	}

	parts := strings.Split(payload, ",")
	t := parts[0]
	if len(t) < 3 {
		return sentence{}, ErrShortType
	}
	// GPRMC, GNRMC etc.
	t = t[len(t)-3:]
	return sentence{Type: strings.ToUpper(t), Fields: parts}, nil
}

// Fix is the latest navigation solution.
type Fix struct {
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive
	Altitude  float64 // meters above MSL
	GroundKt  float64
	TrackDeg  float64
	Quality   int
	Sats      int
	HDOP      float64
}

// Parser assembles bytes into sentences and keeps the latest Fix.
type Parser struct {
	fix  Fix
	line []byte
	// Err is the last sentence error, cleared by a good sentence.
	Err error
}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{line: make([]byte, 0, MaxSentence)}
}

// Fix returns the latest fix.
func (p *Parser) Fix() Fix {
	return p.fix
}

// Feed consumes one byte. It returns true when the byte completes a sentence
// which updated the position.
func (p *Parser) Feed(c byte) bool {
	switch c {
	case '$':
		p.line = append(p.line[:0], c)
		return false
	case '\r':
		return false
	case '\n':
		if len(p.line) == 0 {
			return false
		}
		line := string(p.line)
		p.line = p.line[:0]
		return p.parseLine(line)
	}
	if len(p.line) == 0 {
		// wait for a sentence start
		return false
	}
	if len(p.line) >= MaxSentence {
		p.line = p.line[:0]
		return false
	}
	p.line = append(p.line, c)
	return false
}

func (p *Parser) parseLine(line string) bool {
	s, err := parseSentence(line)
	if err != nil {
		p.Err = err
		return false
	}
	p.Err = nil
	switch s.Type {
	case "RMC":
		return p.applyRMC(s.Fields)
	case "GGA":
		return p.applyGGA(s.Fields)
	}
	return false
}

// RMC fields:
//
//	2: status (A=active, V=void)
//	3,4: latitude ddmm.mmmm, N/S
//	5,6: longitude dddmm.mmmm, E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
func (p *Parser) applyRMC(f []string) bool {
	if len(f) < 10 || strings.TrimSpace(f[2]) != "A" {
		return false
	}
	lat, latOK := parseLatLon(f[3], f[4])
	lon, lonOK := parseLatLon(f[5], f[6])
	if !latOK || !lonOK {
		return false
	}
	p.fix.Latitude, p.fix.Longitude = lat, lon
	if gs, ok := parseFloat(f[7]); ok {
		p.fix.GroundKt = gs
	}
	if trk, ok := parseFloat(f[8]); ok {
		p.fix.TrackDeg = math.Mod(trk+360, 360)
	}
	return true
}

// GGA fields:
//
//	2,3: latitude, N/S
//	4,5: longitude, E/W
//	6: fix quality (0=invalid)
//	7: number of satellites
//	8: HDOP
//	9: altitude (meters)
func (p *Parser) applyGGA(f []string) bool {
	if len(f) < 11 {
		return false
	}
	q, err := strconv.Atoi(strings.TrimSpace(f[6]))
	if err != nil || q == 0 {
		return false
	}
	lat, latOK := parseLatLon(f[2], f[3])
	lon, lonOK := parseLatLon(f[4], f[5])
	if !latOK || !lonOK {
		return false
	}
	p.fix.Quality = q
	p.fix.Latitude, p.fix.Longitude = lat, lon
	if sats, err := strconv.Atoi(strings.TrimSpace(f[7])); err == nil {
		p.fix.Sats = sats
	}
	if hdop, ok := parseFloat(f[8]); ok {
		p.fix.HDOP = hdop
	}
	if alt, ok := parseFloat(f[9]); ok {
		p.fix.Altitude = alt
	}
	return true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseLatLon parses ddmm.mmmm (dddmm.mmmm) with a hemisphere letter.
func parseLatLon(v, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.ToUpper(strings.TrimSpace(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}
	intPart := v
	if dot := strings.IndexByte(v, '.'); dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, false
	}
	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil {
		return 0, false
	}
	dec := float64(deg) + mins/60
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}
