// Package wire implements the fixed-width, little-endian binary framing of
// the chunk-exchange protocol described by the design: one TCP connection,
// a one-shot preamble, then a strictly sequential chunk dialogue, ending
// in a sentinel frame. There is no third-party framing library in the
// retrieved stack suited to a bespoke fixed-width wire format, so this
// package is built directly on encoding/binary.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/AumSahayata/chunksync/internal/chunkio"
)

// VersionLength is the width, in bytes, of the NUL-padded ASCII version
// string exchanged in the preamble.
const VersionLength = 32

// Version identifies this build's wire format. Both peers compare it
// byte-exact; there is no semver negotiation.
const Version = "chunksync-1"

// Sentinel is the chunk-number value that signals graceful end-of-stream.
const Sentinel int64 = -1

// Response tokens, always exactly 3 ASCII bytes on the wire.
const (
	TokenACK = "ACK"
	TokenEQL = "EQL"
	TokenNOK = "NOK"
)

// WritePreamble writes the NUL-padded version string followed by the
// 8-byte filesize. Callers must ensure this is written at most once per
// session.
func WritePreamble(w io.Writer, version string, filesize int64) error {
	var buf [VersionLength]byte
	if len(version) > VersionLength {
		return errors.Errorf("version string %q exceeds %d bytes", version, VersionLength)
	}
	copy(buf[:], version)
	if _, err := w.Write(buf[:]); err != nil {
		return errors.Wrap(err, "writing preamble version")
	}
	if err := binary.Write(w, binary.LittleEndian, filesize); err != nil {
		return errors.Wrap(err, "writing preamble filesize")
	}
	return nil
}

// ReadPreamble reads the version string (trimmed of trailing NULs) and the
// filesize.
func ReadPreamble(r io.Reader) (version string, filesize int64, err error) {
	var buf [VersionLength]byte
	if _, err = io.ReadFull(r, buf[:]); err != nil {
		return "", 0, errors.Wrap(err, "reading preamble version")
	}
	version = trimNUL(buf[:])

	if err = binary.Read(r, binary.LittleEndian, &filesize); err != nil {
		return "", 0, errors.Wrap(err, "reading preamble filesize")
	}
	return version, filesize, nil
}

// WriteChunkHeader writes num (signed, 8 bytes), size (unsigned, 8 bytes),
// and hash (two little-endian 8-byte halves, low then high).
func WriteChunkHeader(w io.Writer, num int64, size uint64, hash chunkio.Hash128) error {
	if err := binary.Write(w, binary.LittleEndian, num); err != nil {
		return errors.Wrap(err, "writing chunk num")
	}
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return errors.Wrap(err, "writing chunk size")
	}
	if err := binary.Write(w, binary.LittleEndian, hash.Lo); err != nil {
		return errors.Wrap(err, "writing chunk hash (low half)")
	}
	if err := binary.Write(w, binary.LittleEndian, hash.Hi); err != nil {
		return errors.Wrap(err, "writing chunk hash (high half)")
	}
	return nil
}

// ReadChunkNum reads just the 8-byte signed chunk number, used by the
// receiver to detect the end-of-stream sentinel before reading the rest of
// a chunk header.
func ReadChunkNum(r io.Reader) (int64, error) {
	var num int64
	if err := binary.Read(r, binary.LittleEndian, &num); err != nil {
		return 0, errors.Wrap(err, "reading chunk num")
	}
	return num, nil
}

// ReadChunkRest reads the size and hash fields that follow the chunk num
// on the wire.
func ReadChunkRest(r io.Reader) (size uint64, hash chunkio.Hash128, err error) {
	if err = binary.Read(r, binary.LittleEndian, &size); err != nil {
		return 0, chunkio.Hash128{}, errors.Wrap(err, "reading chunk size")
	}
	if err = binary.Read(r, binary.LittleEndian, &hash.Lo); err != nil {
		return 0, chunkio.Hash128{}, errors.Wrap(err, "reading chunk hash (low half)")
	}
	if err = binary.Read(r, binary.LittleEndian, &hash.Hi); err != nil {
		return 0, chunkio.Hash128{}, errors.Wrap(err, "reading chunk hash (high half)")
	}
	return size, hash, nil
}

// WriteSentinel writes the end-of-stream marker: a chunk num of -1 with no
// further fields.
func WriteSentinel(w io.Writer) error {
	return errors.Wrap(binary.Write(w, binary.LittleEndian, Sentinel), "writing sentinel")
}

// WriteToken writes a 3-byte ASCII response token.
func WriteToken(w io.Writer, token string) error {
	if len(token) != 3 {
		return errors.Errorf("token %q is not 3 bytes", token)
	}
	_, err := w.Write([]byte(token))
	return errors.Wrap(err, "writing token")
}

// ReadToken reads a 3-byte ASCII response token.
func ReadToken(r io.Reader) (string, error) {
	var buf [3]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return "", errors.Wrap(err, "reading token")
	}
	return string(buf[:]), nil
}

func trimNUL(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
