package postings

import (
	"bufio"
	"bytes"
	"io"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []Record{
		{DocID: 0, Counts: nil},
		{DocID: 5, Counts: []Count{{TermID: 0, Weight: 1}}},
		{DocID: 42, Counts: []Count{
			{TermID: 3, Weight: 0.5},
			{TermID: 1, Weight: 2.0},
			{TermID: 100000, Weight: -3.25},
		}},
	}

	for _, want := range tests {
		var buf bytes.Buffer
		n, err := Encode(&buf, want)
		if err != nil {
			t.Fatalf("Encode(%v): %v", want, err)
		}
		if n != EncodedSize(want) {
			t.Fatalf("Encode returned %d bytes, EncodedSize said %d", n, EncodedSize(want))
		}
		if n != buf.Len() {
			t.Fatalf("Encode returned %d bytes, buffer has %d", n, buf.Len())
		}

		got, consumed, err := Decode(bufio.NewReader(&buf))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if consumed != n {
			t.Fatalf("Decode consumed %d bytes, want %d", consumed, n)
		}
		if got.DocID != want.DocID {
			t.Fatalf("DocID = %d, want %d", got.DocID, want.DocID)
		}
		if len(got.Counts) != len(want.Counts) {
			t.Fatalf("len(Counts) = %d, want %d", len(got.Counts), len(want.Counts))
		}
		for i := range want.Counts {
			if got.Counts[i] != want.Counts[i] {
				t.Fatalf("Counts[%d] = %+v, want %+v", i, got.Counts[i], want.Counts[i])
			}
		}
	}
}

func TestDecodeEOF(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader(nil))
	_, _, err := Decode(r)
	if err != io.EOF {
		t.Fatalf("Decode on empty stream = %v, want io.EOF", err)
	}
}

func TestDecodeMultipleRecordsSequentially(t *testing.T) {
	var buf bytes.Buffer
	want := []Record{
		{DocID: 0, Counts: []Count{{TermID: 0, Weight: 1}}},
		{DocID: 1, Counts: nil},
		{DocID: 2, Counts: []Count{{TermID: 7, Weight: 9.5}}},
	}
	for _, r := range want {
		if _, err := Encode(&buf, r); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	br := bufio.NewReader(&buf)
	for i, w := range want {
		got, _, err := Decode(br)
		if err != nil {
			t.Fatalf("Decode record %d: %v", i, err)
		}
		if got.DocID != w.DocID {
			t.Fatalf("record %d: DocID = %d, want %d", i, got.DocID, w.DocID)
		}
	}
	if _, _, err := Decode(br); err != io.EOF {
		t.Fatalf("Decode after last record = %v, want io.EOF", err)
	}
}
