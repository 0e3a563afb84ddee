package querycache

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"

	"github.com/caibirdme/qrygw/pkg/seriesstore"
)

// encodeSeries renders a stream list with a length-compact binary framing:
// uvarint stream count, then per stream a uvarint label count followed by
// uvarint-length-prefixed key/value byte pairs. This mirrors the teacher's
// compat.go use of encoding/binary for compact label-set framing.
func encodeSeries(streams []seriesstore.Stream) ([]byte, error) {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	writeUvarint := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf.Write(tmp[:n])
	}
	writeString := func(s string) {
		writeUvarint(uint64(len(s)))
		buf.WriteString(s)
	}

	writeUvarint(uint64(len(streams)))
	for _, s := range streams {
		writeUvarint(uint64(len(s)))
		for k, v := range s {
			writeString(k)
			writeString(v)
		}
	}
	return buf.Bytes(), nil
}

func decodeSeries(data []byte) ([]seriesstore.Stream, error) {
	r := bytes.NewReader(data)
	readUvarint := func() (uint64, error) { return binary.ReadUvarint(r) }
	readString := func() (string, error) {
		n, err := readUvarint()
		if err != nil {
			return "", err
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return "", err
		}
		return string(b), nil
	}

	count, err := readUvarint()
	if err != nil {
		return nil, err
	}
	streams := make([]seriesstore.Stream, 0, count)
	for i := uint64(0); i < count; i++ {
		labelCount, err := readUvarint()
		if err != nil {
			return nil, err
		}
		s := make(seriesstore.Stream, labelCount)
		for j := uint64(0); j < labelCount; j++ {
			k, err := readString()
			if err != nil {
				return nil, err
			}
			v, err := readString()
			if err != nil {
				return nil, err
			}
			s[k] = v
		}
		streams = append(streams, s)
	}
	return streams, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func encodeStringList(values []string) ([]byte, error) {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	writeUvarint := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf.Write(tmp[:n])
	}
	writeUvarint(uint64(len(values)))
	for _, v := range values {
		writeUvarint(uint64(len(v)))
		buf.WriteString(v)
	}
	return buf.Bytes(), nil
}

func decodeStringList(data []byte) ([]string, error) {
	r := bytes.NewReader(data)
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}

// DecodeStringList exposes decodeStringList for the label-values HTTP
// handler that reads cache entries written by flattenLabelValues.
func DecodeStringList(data []byte) ([]string, error) { return decodeStringList(data) }

// EncodeStringList exposes encodeStringList for HTTP handlers that want to
// populate the label/label-values cache entries themselves (e.g. on a
// cache miss the handler just served from the backing store directly).
func EncodeStringList(values []string) ([]byte, error) { return encodeStringList(values) }

// EncodeSeriesPayload is the public entry point producing the exact bytes
// stored under SeriesIndexKey: length-compact encoding, then gzip.
func EncodeSeriesPayload(streams []seriesstore.Stream) ([]byte, error) {
	raw, err := encodeSeries(streams)
	if err != nil {
		return nil, err
	}
	return gzipBytes(raw)
}

// DecodeSeriesPayload reverses EncodeSeriesPayload.
func DecodeSeriesPayload(payload []byte) ([]seriesstore.Stream, error) {
	raw, err := gunzipBytes(payload)
	if err != nil {
		return nil, err
	}
	return decodeSeries(raw)
}
