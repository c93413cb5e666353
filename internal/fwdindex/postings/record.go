// Package postings defines the packed, self-delimiting wire format shared
// by chunk files and the final postings file: one record per document,
// holding its DocId and an ordered (TermId, weight) list.
package postings

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// Count is one (TermId, weight) pair within a Record.
type Count struct {
	TermID uint64
	Weight float64
}

// Record is the in-memory form of one document's postings: its DocId plus
// an ordered, duplicate-free sequence of (TermId, weight) pairs. The same
// struct backs both the intermediate (worker-written) and final
// (merger/uninverter-written) wire forms; they share one encoding.
type Record struct {
	DocID  uint64
	Counts []Count
}

// Encode writes r to w in the packed wire format:
//
//	[varint DocId][varint N][ N x ( varint TermId, IEEE-754 64-bit weight ) ]
//
// It returns the number of bytes written.
func Encode(w io.Writer, r Record) (int, error) {
	var buf [binary.MaxVarintLen64]byte
	n := 0

	nn := binary.PutUvarint(buf[:], r.DocID)
	if _, err := w.Write(buf[:nn]); err != nil {
		return n, err
	}
	n += nn

	nn = binary.PutUvarint(buf[:], uint64(len(r.Counts)))
	if _, err := w.Write(buf[:nn]); err != nil {
		return n, err
	}
	n += nn

	var wbuf [8]byte
	for _, c := range r.Counts {
		nn = binary.PutUvarint(buf[:], c.TermID)
		if _, err := w.Write(buf[:nn]); err != nil {
			return n, err
		}
		n += nn

		binary.LittleEndian.PutUint64(wbuf[:], math.Float64bits(c.Weight))
		if _, err := w.Write(wbuf[:]); err != nil {
			return n, err
		}
		n += 8
	}
	return n, nil
}

// Decode reads one Record from r. It returns io.EOF (with 0 bytes consumed
// and a zero Record) when r is exhausted before a new record begins, which
// is how callers detect the end of a chunk or postings stream.
func Decode(r *bufio.Reader) (Record, int, error) {
	docID, n1, err := readUvarint(r)
	if err != nil {
		return Record{}, 0, err
	}
	count, n2, err := readUvarint(r)
	if err != nil {
		return Record{}, 0, io.ErrUnexpectedEOF
	}
	n := n1 + n2

	rec := Record{DocID: docID}
	if count > 0 {
		rec.Counts = make([]Count, count)
	}
	var wbuf [8]byte
	for i := uint64(0); i < count; i++ {
		termID, nn, err := readUvarint(r)
		if err != nil {
			return Record{}, 0, io.ErrUnexpectedEOF
		}
		n += nn

		if _, err := io.ReadFull(r, wbuf[:]); err != nil {
			return Record{}, 0, io.ErrUnexpectedEOF
		}
		n += 8

		rec.Counts[i] = Count{
			TermID: termID,
			Weight: math.Float64frombits(binary.LittleEndian.Uint64(wbuf[:])),
		}
	}
	return rec, n, nil
}

// readUvarint reads a single varint, translating a clean EOF on the first
// byte into io.EOF so Decode can distinguish "no more records" from a
// truncated one.
func readUvarint(r *bufio.Reader) (uint64, int, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		if err == io.EOF {
			return 0, 0, io.EOF
		}
		return 0, 0, err
	}
	return v, uvarintLen(v), nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// EncodedSize returns the number of bytes Encode would write for r, without
// writing anything.
func EncodedSize(r Record) int {
	n := uvarintLen(r.DocID) + uvarintLen(uint64(len(r.Counts)))
	for _, c := range r.Counts {
		n += uvarintLen(c.TermID) + 8
	}
	return n
}
