package binary

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrShortBuffer indicates a read past the end of instruction data.
var ErrShortBuffer = errors.New("short buffer")

// Writer lays out little-endian instruction data into a fixed size buffer.
type Writer struct {
	buf    []byte
	offset int
}

func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, size)}
}

func (w *Writer) PutUint8(v uint8) {
	w.buf[w.offset] = v
	w.offset++
}

func (w *Writer) PutUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.offset:], v)
	w.offset += 4
}

func (w *Writer) PutUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.offset:], v)
	w.offset += 8
}

func (w *Writer) PutKey32(key ed25519.PublicKey) {
	copy(w.buf[w.offset:], key)
	w.offset += ed25519.PublicKeySize
}

// PutOptionalKey32 writes a COption<Pubkey>. The tag occupies optionSize bytes and
// the key space is always reserved, unless compact is set, in which case an
// absent key only consumes the tag.
func (w *Writer) PutOptionalKey32(key ed25519.PublicKey, optionSize int, compact bool) {
	if len(key) == 0 {
		w.offset += optionSize
		if !compact {
			w.offset += ed25519.PublicKeySize
		}
		return
	}

	w.buf[w.offset] = 1
	copy(w.buf[w.offset+optionSize:], key)
	w.offset += optionSize + ed25519.PublicKeySize
}

// Bytes returns the bytes written so far.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.offset]
}

// Reader consumes little-endian instruction data.
type Reader struct {
	buf    []byte
	offset int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) need(n int) error {
	if len(r.buf)-r.offset < n {
		return errors.Wrapf(ErrShortBuffer, "need %d bytes at offset %d, have %d", n, r.offset, len(r.buf)-r.offset)
	}
	return nil
}

func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.offset]
	r.offset++
	return v, nil
}

func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.offset:])
	r.offset += 4
	return v, nil
}

func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.offset:])
	r.offset += 8
	return v, nil
}

func (r *Reader) Key32() (ed25519.PublicKey, error) {
	if err := r.need(ed25519.PublicKeySize); err != nil {
		return nil, err
	}
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, r.buf[r.offset:])
	r.offset += ed25519.PublicKeySize
	return key, nil
}

// OptionalKey32 reads a COption<Pubkey> written by PutOptionalKey32 with the same
// optionSize and compact settings. An absent key is returned as nil.
func (r *Reader) OptionalKey32(optionSize int, compact bool) (ed25519.PublicKey, error) {
	if err := r.need(optionSize); err != nil {
		return nil, err
	}

	present := r.buf[r.offset] == 1
	r.offset += optionSize

	if !present {
		if !compact {
			if err := r.need(ed25519.PublicKeySize); err != nil {
				return nil, err
			}
			r.offset += ed25519.PublicKeySize
		}
		return nil, nil
	}

	return r.Key32()
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.offset
}
