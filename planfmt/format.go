// Package planfmt implements the deterministic binary wire format for a
// frozen plan (spec §6): magic/version/flags framing, a BLAKE2b-256
// content digest, and a storage-agent handoff for operator instances,
// which this format never embeds inline.
package planfmt

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/semver"
)

const (
	// Magic identifies a flowplan serialized plan file.
	Magic = "FPLN"

	// Version is the current format version, packed as major<<8|minor.
	// A reader rejects any file whose major version exceeds its own
	// (spec §6, §4.K: "higher major rejected on read per semver-style
	// compatibility checked with golang.org/x/mod/semver").
	Version uint16 = 0x0100

	preambleLen = 4 + 2 + 2 + 4 + 8 // magic + version + flags + headerLen + bodyLen

	// ConfArtifact and LaunchConfigArtifact are the two canonical on-disk
	// artifacts of a plan (spec §6: "dt-conf.ser" / "dt-launch-config.xml",
	// renamed here since this format is not Java serialization).
	ConfArtifact         = "fpln-conf.bin"
	LaunchConfigArtifact = "fpln-launch-config.xml"
)

// Flags is a bitmask of optional wire features. No flags are defined yet;
// the field exists so a future format revision can add one (e.g.
// compression) without breaking the preamble layout.
type Flags uint16

func versionString(v uint16) string {
	return fmt.Sprintf("v%d.%d.0", v>>8, v&0xff)
}

// compatible reports whether a reader built for current can read a file
// written at incoming: the file's major version must not exceed the
// reader's (spec §4.K: "higher major rejected on read"). A lower or
// equal major is always accepted regardless of minor, since minor bumps
// are additive by convention.
func compatible(current, incoming uint16) bool {
	curMajor := semver.Major(versionString(current))
	inMajor := semver.Major(versionString(incoming))
	return semver.Compare(inMajor, curMajor) <= 0
}

// writePreamble writes the fixed 20-byte preamble: MAGIC(4) | VERSION(2)
// | FLAGS(2) | HEADER_LEN(4) | BODY_LEN(8), all little-endian.
func writePreamble(w io.Writer, headerLen uint32, bodyLen uint64, flags Flags) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return err
	}
	for _, v := range []any{Version, uint16(flags), headerLen, bodyLen} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

type preamble struct {
	version   uint16
	flags     Flags
	headerLen uint32
	bodyLen   uint64
}

func readPreamble(r io.Reader) (preamble, error) {
	var buf [preambleLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return preamble{}, fmt.Errorf("planfmt: read preamble: %w", err)
	}
	if string(buf[0:4]) != Magic {
		return preamble{}, fmt.Errorf("planfmt: bad magic %q, expected %q", buf[0:4], Magic)
	}
	p := preamble{
		version:   binary.LittleEndian.Uint16(buf[4:6]),
		flags:     Flags(binary.LittleEndian.Uint16(buf[6:8])),
		headerLen: binary.LittleEndian.Uint32(buf[8:12]),
		bodyLen:   binary.LittleEndian.Uint64(buf[12:20]),
	}
	if !compatible(Version, p.version) {
		return preamble{}, fmt.Errorf("planfmt: incompatible version %s, reader supports %s", versionString(p.version), versionString(Version))
	}
	return p, nil
}

// digest computes the BLAKE2b-256 content digest of body. Header metadata
// (creation time, in this format) never affects the digest, so rewriting
// it does not invalidate a previously recorded hash (spec §6: the digest
// is over the plan's structural content).
func digest(body []byte) ([32]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, err
	}
	if _, err := h.Write(body); err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}
