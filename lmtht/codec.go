package lmtht

import (
	"encoding/binary"
	"io"

	"github.com/dapperlabs/lmtht/lmtht/checksum"
	"github.com/dapperlabs/lmtht/lmtht/errs"
	"github.com/dapperlabs/lmtht/lmtht/hash"
	"github.com/dapperlabs/lmtht/lmtht/model"
)

// jMask is applied to the stored (j-1) byte on read, tolerating reserved
// upper bits a future version might set. Six low bits cover the full
// range of model.IndexSize (64).
const jMask = model.IndexSize - 1

// WriteHeader writes the 4-byte file prefix: magic followed by the
// current storage version.
func WriteHeader(w io.Writer) error {
	_, err := w.Write(append(append([]byte{}, magic[:]...), storageVersion))
	return err
}

// CheckHeader validates a 4-byte header read from storage, failing with
// BadMagic or IncompatibleVersion as appropriate.
func CheckHeader(header []byte) error {
	if len(header) != headerSize {
		return errs.New(errs.DamagedStorage, "short header read")
	}
	if header[0] != magic[0] || header[1] != magic[1] || header[2] != magic[2] {
		return errs.New(errs.BadMagic, "storage identifier mismatch")
	}
	if header[3] > storageVersion {
		return errs.Newf(errs.IncompatibleVersion, "file version %d newer than supported version %d", header[3], storageVersion)
	}
	return nil
}

// WriteEntry serializes e to w per the wire format in order: i, nI, the
// bottom-up INode records, the leaf payload and hash, the self-offset,
// and finally the checksum over everything preceding it. It returns the
// number of bytes written (including the trailer) and the checksum that
// was appended.
func WriteEntry(w io.Writer, hasher hash.Hasher, e *Entry) (written int64, sum uint64, err error) {
	if len(e.Payload) > MaxPayloadSize {
		return 0, 0, errs.Newf(errs.PayloadTooLarge, "payload of %d bytes exceeds MAX_PAYLOAD_SIZE", len(e.Payload))
	}
	if len(e.INodes) > MaxINodesPerEntry {
		return 0, 0, errs.Newf(errs.Inconsistent, "entry would carry %d INodes, more than the 255 the format allows", len(e.INodes))
	}

	hw := checksum.NewHashWriter(w)
	var n int64

	write := func(p []byte) error {
		k, werr := hw.Write(p)
		n += int64(k)
		return werr
	}

	var u64buf [8]byte
	binary.LittleEndian.PutUint64(u64buf[:], e.I)
	if err = write(u64buf[:]); err != nil {
		return 0, 0, err
	}
	if err = write([]byte{byte(len(e.INodes))}); err != nil {
		return 0, 0, err
	}

	for _, rec := range e.INodes {
		if err = write([]byte{byte(rec.J-1) & jMask}); err != nil {
			return 0, 0, err
		}
		binary.LittleEndian.PutUint64(u64buf[:], uint64(rec.Left.Pos))
		if err = write(u64buf[:]); err != nil {
			return 0, 0, err
		}
		binary.LittleEndian.PutUint64(u64buf[:], rec.Left.I)
		if err = write(u64buf[:]); err != nil {
			return 0, 0, err
		}
		if err = write([]byte{rec.Left.J}); err != nil {
			return 0, 0, err
		}
		if err = write(rec.Hash); err != nil {
			return 0, 0, err
		}
	}

	var u32buf [4]byte
	binary.LittleEndian.PutUint32(u32buf[:], uint32(len(e.Payload)))
	if err = write(u32buf[:]); err != nil {
		return 0, 0, err
	}
	if err = write(e.Payload); err != nil {
		return 0, 0, err
	}
	if err = write(e.LeafHash); err != nil {
		return 0, 0, err
	}

	binary.LittleEndian.PutUint32(u32buf[:], uint32(n))
	if err = write(u32buf[:]); err != nil {
		return 0, 0, err
	}

	sum = hw.Sum64()
	var u64sum [8]byte
	binary.LittleEndian.PutUint64(u64sum[:], sum)
	k, werr := w.Write(u64sum[:])
	n += int64(k)
	if werr != nil {
		return 0, 0, werr
	}

	return n, sum, nil
}

// ReadEntry parses one entry from r. When verify is true the trailing
// checksum is recomputed over the bytes read and compared, failing with
// ChecksumMismatch on any discrepancy; callers that have already
// established an entry's integrity (or only need its INode metadata) may
// pass verify=false to skip both the checksum and the trailer-offset
// checks.
func ReadEntry(r io.Reader, hasher hash.Hasher, verify bool) (*Entry, error) {
	hr := checksum.NewHashReader(r)
	var reader io.Reader = hr
	if !verify {
		reader = r
	}

	e := &Entry{}

	var u64buf [8]byte
	if _, err := io.ReadFull(reader, u64buf[:]); err != nil {
		return nil, errs.Wrap(err, errs.DamagedStorage, "reading entry index")
	}
	e.I = binary.LittleEndian.Uint64(u64buf[:])

	var nIBuf [1]byte
	if _, err := io.ReadFull(reader, nIBuf[:]); err != nil {
		return nil, errs.Wrap(err, errs.DamagedStorage, "reading INode count")
	}
	nI := int(nIBuf[0])

	e.INodes = make([]INodeRecord, 0, nI)
	for idx := 0; idx < nI; idx++ {
		var jm1 [1]byte
		if _, err := io.ReadFull(reader, jm1[:]); err != nil {
			return nil, errs.Wrap(err, errs.DamagedStorage, "reading INode height")
		}
		j := (jm1[0] & jMask) + 1

		if _, err := io.ReadFull(reader, u64buf[:]); err != nil {
			return nil, errs.Wrap(err, errs.DamagedStorage, "reading left child position")
		}
		leftPos := int64(binary.LittleEndian.Uint64(u64buf[:]))

		if _, err := io.ReadFull(reader, u64buf[:]); err != nil {
			return nil, errs.Wrap(err, errs.DamagedStorage, "reading left child index")
		}
		leftI := binary.LittleEndian.Uint64(u64buf[:])

		var leftJBuf [1]byte
		if _, err := io.ReadFull(reader, leftJBuf[:]); err != nil {
			return nil, errs.Wrap(err, errs.DamagedStorage, "reading left child height")
		}

		digest := make([]byte, hasher.Size())
		if _, err := io.ReadFull(reader, digest); err != nil {
			return nil, errs.Wrap(err, errs.DamagedStorage, "reading INode hash")
		}

		e.INodes = append(e.INodes, INodeRecord{
			J:    j,
			Left: NodeRef{Pos: leftPos, I: leftI, J: leftJBuf[0]},
			Hash: digest,
		})
	}

	var u32buf [4]byte
	if _, err := io.ReadFull(reader, u32buf[:]); err != nil {
		return nil, errs.Wrap(err, errs.DamagedStorage, "reading payload length")
	}
	payloadLen := binary.LittleEndian.Uint32(u32buf[:]) & MaxPayloadSize

	e.Payload = make([]byte, payloadLen)
	if _, err := io.ReadFull(reader, e.Payload); err != nil {
		return nil, errs.Wrap(err, errs.DamagedStorage, "reading payload")
	}

	e.LeafHash = make([]byte, hasher.Size())
	if _, err := io.ReadFull(reader, e.LeafHash); err != nil {
		return nil, errs.Wrap(err, errs.DamagedStorage, "reading leaf hash")
	}

	if _, err := io.ReadFull(reader, u32buf[:]); err != nil {
		return nil, errs.Wrap(err, errs.DamagedStorage, "reading entry trailer offset")
	}
	offset := binary.LittleEndian.Uint32(u32buf[:])

	var bodyLen int64
	if verify {
		bodyLen = int64(hr.BytesRead()) - 4
	}

	if verify {
		if int64(offset) != bodyLen {
			return nil, errs.Newf(errs.BadHeadOffset, "trailer offset %d disagrees with parsed body length %d", offset, bodyLen)
		}
	}

	var sumBuf [8]byte
	if _, err := io.ReadFull(r, sumBuf[:]); err != nil {
		return nil, errs.Wrap(err, errs.DamagedStorage, "reading checksum")
	}
	stored := binary.LittleEndian.Uint64(sumBuf[:])

	if verify {
		actual := hr.Sum64()
		if actual != stored {
			return nil, errs.ChecksumError(0, bodyLen+4, stored, actual)
		}
	}

	return e, nil
}
